package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history", "chat_history.json"))
}

func TestStoreMissingFileReadsEmpty(t *testing.T) {
	s := testStore(t)
	chats, err := s.List()
	require.NoError(t, err)
	require.Empty(t, chats)

	got, err := s.Get("nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStoreSaveAndGet(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(Chat{
		ID:    "c1",
		Title: "March spending",
		Messages: []Message{
			{Role: "user", Content: "How much was rent?"},
			{Role: "assistant", Content: "Rent was $1000.", Sources: []string{"statement.pdf"}},
		},
	}))

	got, err := s.Get("c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "March spending", got.Title)
	require.Len(t, got.Messages, 2)
	require.Equal(t, []string{"statement.pdf"}, got.Messages[1].Sources)
	require.False(t, got.UpdatedAt.IsZero())
}

func TestStoreSaveReplacesSameID(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(Chat{ID: "c1", Title: "first"}))
	require.NoError(t, s.Save(Chat{ID: "c1", Title: "second"}))

	chats, err := s.List()
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, "second", chats[0].Title)
}

func TestStoreRenameAndDelete(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(Chat{ID: "c1", Title: "old"}))
	require.NoError(t, s.Save(Chat{ID: "c2", Title: "keep"}))

	require.NoError(t, s.Rename("c1", "new"))
	got, err := s.Get("c1")
	require.NoError(t, err)
	require.Equal(t, "new", got.Title)

	require.NoError(t, s.Delete("c1"))
	got, err = s.Get("c1")
	require.NoError(t, err)
	require.Nil(t, got)

	chats, err := s.List()
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, "c2", chats[0].ID)

	// Deleting an unknown id is a no-op.
	require.NoError(t, s.Delete("c1"))
}

func TestStoreCorruptFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path)
	chats, err := s.List()
	require.NoError(t, err)
	require.Empty(t, chats)

	// The store stays writable after recovering from corruption.
	require.NoError(t, s.Save(Chat{ID: "c1", Title: "fresh"}))
	chats, err = s.List()
	require.NoError(t, err)
	require.Len(t, chats, 1)
}
