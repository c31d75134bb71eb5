// ABOUTME: Bot user record types exchanged with the webhook backend
// ABOUTME: Defines UserRecord, UserListItem and the default prompt seed

package profile

// DefaultType is the category code sent when a record has no type set.
const DefaultType = "1"

// UserRecord is one chatbot user profile as stored by the webhook backend.
// Pass is write-only: it is never rendered back to the browser and an empty
// value on edit means "leave the stored password unchanged".
type UserRecord struct {
	User        string `json:"user"`
	Pass        string `json:"pass,omitempty"`
	TextPrompt  string `json:"textprompt"`
	ImagePrompt string `json:"imageprompt"`
	Type        string `json:"type"`

	// Server-assigned, read-only.
	ID        *int64 `json:"id,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// TypeOrDefault returns the record type, falling back to DefaultType.
func (r UserRecord) TypeOrDefault() string {
	if r.Type == "" {
		return DefaultType
	}
	return r.Type
}

// UserListItem is the projection returned by the list endpoint.
// Only User is trusted.
type UserListItem struct {
	User string `json:"user"`
}

// Usernames extracts the usernames from a list, preserving order.
func Usernames(items []UserListItem) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.User)
	}
	return names
}

// Defaults seeds the prompts of a new record.
type Defaults struct {
	TextPrompt  string
	ImagePrompt string
}

// DefaultTextPrompt is the text prompt a new user starts with.
const DefaultTextPrompt = `Role: You are the Lead Sales Representative for Promise Rice Trader. Your primary objective is to sell premium Steam Rice. You are professional, persuasive, and firm on the value of your product.

Core Product: * Product: Premium Steam Rice.

Key Selling Points: Long grain, non-sticky, easily digestible, 100% purity, and processed via advanced steam technology to lock in nutrients.

The Brand: The name "Promise" means a guarantee of quality and weight.

Pricing & Negotiation Logic:
Standard Rate: Your starting price is always 350 per kg.
The Negotiation Goal: Your goal is to keep the price as close to 350 per kg as possible.

Handling Resistance: If the customer says "it's too expensive" or asks for 300 per kg, you must first justify the value.

Conditional Discounting:
5kg - 19kg: Firm at 350 per kg.
20kg - 49kg: 325 per kg.
50kg or more: 300 per kg.

Strict Rule: Never offer 300 per kg immediately.`

// DefaultImagePrompt is the image prompt a new user starts with.
const DefaultImagePrompt = `user has sent u an image with the following description
Role: You are the Lead Sales Representative for Promise Rice Trader. Your primary objective is to sell premium Steam Rice. You are professional, persuasive, and firm on the value of your product.
Core Product: * Product: Premium Steam Rice.
(Refer to text prompt for detailed negotiation logic)`

// BuiltinDefaults returns the compiled-in prompt seed.
func BuiltinDefaults() Defaults {
	return Defaults{TextPrompt: DefaultTextPrompt, ImagePrompt: DefaultImagePrompt}
}
