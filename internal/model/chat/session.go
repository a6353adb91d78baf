package chat

import "time"

// Session is one named conversation made of ordered messages. Temporary
// sessions live in a single ephemeral slot and are never listed.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdatedAt"`
	IsTemporary bool      `json:"isTemporary"`
}

// Clone returns a deep copy so callers never hold a mutable reference into
// the store's records.
func (s Session) Clone() Session {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	return out
}
