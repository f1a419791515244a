package models

// User is the identity a connection authenticates as. The realtime core only
// uses ID for routing; Name and Avatar are carried for display payloads.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
