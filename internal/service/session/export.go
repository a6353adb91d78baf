package session

import (
	"encoding/json"
	"fmt"

	"github.com/haebom/hb-chat/backend/internal/model/chat"
)

// Export snapshots every durable session keyed by id. Timestamps marshal as
// RFC 3339 strings, so the result round-trips through Import.
func (s *Store) Export() map[string]chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]chat.Session, len(s.sessions))
	for id, record := range s.sessions {
		out[id] = record.Clone()
	}
	return out
}

// ExportJSON renders the export document.
func (s *Store) ExportJSON() ([]byte, error) {
	doc := s.Export()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}
	return data, nil
}

// Import merges sessions from an export document into the store. Records
// whose id is already present are skipped; message order inside each record
// is preserved as-is. A malformed document leaves the store untouched.
// Returns the number of sessions added.
func (s *Store) Import(data []byte) (int, error) {
	var doc map[string]chat.Session
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("invalid session document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for id, record := range doc {
		if id == "" || record.ID == "" {
			continue
		}
		if _, exists := s.sessions[id]; exists {
			continue
		}
		imported := record.Clone()
		imported.IsTemporary = false
		s.sessions[id] = &imported
		added++
	}
	return added, nil
}
