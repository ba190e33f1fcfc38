package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := New(NewMemoryStorage(), time.Hour)

	id, err := GenerateSessionID()
	require.NoError(t, err)
	assert.Len(t, id, 64)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Write(id, &Data{UserID: 42, CreatedAt: created}))

	got, err := store.Read(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.UserID)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, store.Delete(id))

	_, err = store.Read(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUnknownSession(t *testing.T) {
	store := New(NewMemoryStorage(), time.Hour)

	_, err := store.Read("")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Read("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(""))
}

func TestMemoryStorageExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mem := NewMemoryStorage()
	mem.now = func() time.Time { return now }

	require.NoError(t, mem.Set("a", []byte("1"), time.Minute))
	require.NoError(t, mem.Set("b", []byte("2"), 0))

	now = now.Add(2 * time.Minute)

	val, err := mem.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)

	val, err = mem.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)
}

func TestNewPanicsWithoutStorage(t *testing.T) {
	assert.Panics(t, func() { New(nil, time.Hour) })
}
