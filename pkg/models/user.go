package models

// User is a seeded account. Users are immutable after seeding; the core
// never creates them at runtime. Password is compared in plaintext against
// caller input, matching the persisted document format.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Snapshot is the entire persisted state (users + messages) loaded and
// saved as one atomic unit per operation. Messages are held most recent
// first; the natural order of the slice is the delivery and pagination
// order.
type Snapshot struct {
	Users    []User    `json:"users"`
	Messages []Message `json:"messages"`
}
