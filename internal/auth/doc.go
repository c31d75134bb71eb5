// Package auth provides authentication for the bot console.
//
// # Admin Password
//
// Access to the console is gated by a single shared admin password. The
// check is an Authenticator so deployments can swap it out:
//
//	type Authenticator interface {
//	    Authenticate(ctx context.Context, password string) error
//	}
//
// StaticPassword compares against a configured plaintext password
// (constant-time) or a bcrypt hash. When nothing is configured the
// well-known DefaultAdminPassword is used. This is a gate, not a security
// boundary.
//
// # Session Tokens
//
// After login the browser holds a cookie containing an HS256 JWT whose
// subject is a session ID persisted in the store:
//
//	token, err := signer.Generate(sessionID, ttl)
//	sessionID, err := signer.Verify(token)
//
// # Context
//
// Authenticated handlers retrieve the session via FromContext.
package auth
