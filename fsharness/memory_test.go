package fsharness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_SeedThenGet(t *testing.T) {
	m := NewMemory()
	m.Seed("a.txt", "seeded")

	content, ok := m.Get("a.txt")
	require.True(t, ok)
	require.Equal(t, "seeded", content)

	_, ok = m.Get("missing.txt")
	require.False(t, ok)
}

func TestMemory_WriteReadDeleteRoundtrip(t *testing.T) {
	m := NewMemory()

	exists, err := m.FileExists("a.txt")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, m.WriteFile("a.txt", "hello"))

	exists, err = m.FileExists("a.txt")
	require.NoError(t, err)
	require.True(t, exists)

	content, err := m.ReadFile("a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", content)

	require.NoError(t, m.DeleteFile("a.txt"))

	_, err = m.ReadFile("a.txt")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestMemory_DeleteAbsentFileFails(t *testing.T) {
	m := NewMemory()
	err := m.DeleteFile("missing.txt")
	require.ErrorIs(t, err, ErrNotExist)
}
