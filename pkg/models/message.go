package models

// Message content types.
const (
	TypeText  = "text"
	TypeImage = "image"
)

// SystemUser is the author recorded on auto-generated replies.
const SystemUser = "system"

// Message is a single chat message. Generated fields (ID, Timestamp) are
// assigned at persistence time by the repository, never by the caller.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	// IsAutoResponse marks synthetic replies authored by SystemUser.
	IsAutoResponse bool `json:"isAutoResponse"`
	// Image fields are only set for TypeImage messages.
	ImageURL  string `json:"imageUrl,omitempty"`
	ImageName string `json:"imageName,omitempty"`
	ImageSize int64  `json:"imageSize,omitempty"`
	// ReplyTo references the id of an existing message; the referenced
	// message is never mutated by the reply.
	ReplyTo string `json:"replyTo,omitempty"`
}

// Pagination describes the window applied to a message listing.
type Pagination struct {
	Offset        int  `json:"offset"`
	Limit         int  `json:"limit"`
	TotalMessages int  `json:"totalMessages"`
	HasMore       bool `json:"hasMore"`
}

// Page is one pagination window over the reverse-chronological message list.
type Page struct {
	Elements   []Message  `json:"elements"`
	Pagination Pagination `json:"pagination"`
}
