// Package store provides persistent storage for the bot console using SQLite.
//
// # Architecture
//
// The console keeps almost nothing locally; bot users live in the webhook
// backend. What the store holds:
//
//   - SessionStore: admin browser sessions referenced by the signed cookie
//   - AuditStore: an append-only log of console actions
//
// SQLiteStore implements both in a single struct. MockStore is an in-memory
// equivalent for handler tests.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//
// Use NewSQLiteStore(":memory:") for a throwaway database.
//
// # Data Rules
//
// Timestamps are stored as RFC3339 UTC text. Audit detail is stored as JSON.
// Passwords and password digests are never written.
package store
