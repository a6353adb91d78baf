// Package session owns all conversation records for the process. The store
// is purely in-memory and does no I/O; a single store-wide mutex guards it
// because message append plus title derivation is a read-modify-write
// sequence.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haebom/hb-chat/backend/internal/model/chat"
)

// ErrNoActiveSession is returned by AddMessage when no session is active.
// Callers are expected to create a session first.
var ErrNoActiveSession = errors.New("no active session")

// titleLimit caps derived session titles at 30 characters.
const titleLimit = 30

// Store maps session ids to records and tracks the active session. A single
// temporary session can exist outside the durable mapping; it is never
// listed or exported.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
	temp     *chat.Session
	activeID string
	newTitle string
}

// NewStore creates an empty store. newTitle is the localized default title
// for fresh sessions ("새 채팅" / "New Chat").
func NewStore(newTitle string) *Store {
	if newTitle == "" {
		newTitle = "새 채팅"
	}
	return &Store{
		sessions: make(map[string]*chat.Session),
		newTitle: newTitle,
	}
}

// Create provisions a fresh session with a unique id and makes it active.
// Temporary sessions occupy the single ephemeral slot instead of the durable
// mapping, replacing whatever was there.
func (s *Store) Create(temporary bool) chat.Session {
	now := time.Now()
	record := &chat.Session{
		ID:          uuid.NewString(),
		Title:       s.newTitle,
		Messages:    make([]chat.Message, 0, 16),
		CreatedAt:   now,
		LastUpdated: now,
		IsTemporary: temporary,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if temporary {
		s.temp = record
	} else {
		s.sessions[record.ID] = record
	}
	s.activeID = record.ID

	return record.Clone()
}

// Active returns the current session, checking the durable mapping first and
// then the temporary slot.
func (s *Store) Active() (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.lookup(s.activeID)
	if !ok {
		return chat.Session{}, false
	}
	return record.Clone(), true
}

// Get retrieves a session by id from the durable mapping or the temporary
// slot.
func (s *Store) Get(id string) (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.lookup(id)
	if !ok {
		return chat.Session{}, false
	}
	return record.Clone(), true
}

// Switch activates the given session. Only durable sessions can be switched
// to; the temporary slot is unaffected either way.
func (s *Store) Switch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.activeID = id
	return true
}

// AddMessage appends a timestamped message to the active session and bumps
// its recency. When the append lands as exactly the second message and the
// role is assistant, the session title is derived from the first message.
// Consecutive same-role appends are allowed.
func (s *Store) AddMessage(role chat.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.lookup(s.activeID)
	if !ok {
		return ErrNoActiveSession
	}

	now := time.Now()
	record.Messages = append(record.Messages, chat.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	record.LastUpdated = now

	if len(record.Messages) == 2 && role == chat.RoleAssistant {
		record.Title = deriveTitle(record.Messages[0].Content)
	}

	return nil
}

// ClearMessages empties a session's history while keeping the session
// itself. Returns false if the id is unknown.
func (s *Store) ClearMessages(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.lookup(id)
	if !ok {
		return false
	}
	record.Messages = record.Messages[:0]
	record.LastUpdated = time.Now()
	return true
}

// Delete removes a durable session. If it was active, the most recently
// updated remaining session takes over, or the active pointer clears when
// none remain. Deleting the temporary session just drops the slot.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.temp != nil && s.temp.ID == id {
		s.temp = nil
		if s.activeID == id {
			s.activeID = ""
		}
		return
	}

	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)

	if s.activeID != id {
		return
	}
	s.activeID = ""
	var latest *chat.Session
	for _, record := range s.sessions {
		if latest == nil || record.LastUpdated.After(latest.LastUpdated) {
			latest = record
		}
	}
	if latest != nil {
		s.activeID = latest.ID
	}
}

// List returns all durable sessions ordered by recency, most recently
// updated first. Ties keep a stable order within the call.
func (s *Store) List() []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Session, 0, len(s.sessions))
	for _, record := range s.sessions {
		out = append(out, record.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}

// ActiveID exposes the current active session id, empty when none.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// lookup resolves an id against the durable mapping first, then the
// temporary slot. Callers hold the lock.
func (s *Store) lookup(id string) (*chat.Session, bool) {
	if id == "" {
		return nil, false
	}
	if record, ok := s.sessions[id]; ok {
		return record, true
	}
	if s.temp != nil && s.temp.ID == id {
		return s.temp, true
	}
	return nil, false
}

// deriveTitle truncates the first user message to the title limit, counting
// characters rather than bytes so Hangul is not cut mid-rune.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return content
}
