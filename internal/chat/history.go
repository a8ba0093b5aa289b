// Package chat persists conversation history as a flat JSON file.
package chat

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string   `json:"role"` // "user" or "assistant"
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
}

// Chat is one stored conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store reads and writes the chat history file. Every mutation rewrites the
// whole file; a mutex keeps concurrent writers from interleaving.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns all chats. A missing or unreadable file reads as empty.
func (s *Store) List() ([]Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the chat with the given id, or nil if absent.
func (s *Store) Get(id string) (*Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range chats {
		if chats[i].ID == id {
			return &chats[i], nil
		}
	}
	return nil, nil
}

// Save inserts or replaces a chat and stamps its update time.
func (s *Store) Save(chat Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats, err := s.load()
	if err != nil {
		return err
	}
	chat.UpdatedAt = time.Now()
	replaced := false
	for i := range chats {
		if chats[i].ID == chat.ID {
			chats[i] = chat
			replaced = true
			break
		}
	}
	if !replaced {
		chats = append(chats, chat)
	}
	return s.write(chats)
}

// Rename updates a chat's title. Unknown ids are a no-op.
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats, err := s.load()
	if err != nil {
		return err
	}
	for i := range chats {
		if chats[i].ID == id {
			chats[i].Title = title
			chats[i].UpdatedAt = time.Now()
			break
		}
	}
	return s.write(chats)
}

// Delete removes a chat. Unknown ids are a no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats, err := s.load()
	if err != nil {
		return err
	}
	kept := chats[:0]
	for _, c := range chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return s.write(kept)
}

func (s *Store) load() ([]Chat, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var chats []Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		// A corrupt history file should not brick the app.
		return nil, nil
	}
	return chats, nil
}

func (s *Store) write(chats []Chat) error {
	if chats == nil {
		chats = []Chat{}
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
