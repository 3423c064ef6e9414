package money

import (
	"testing"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddGetRemove(t *testing.T) {
	store := NewStore(0)

	txn := newTransaction(KindUserToUser, uuid.NewV4(), uuid.NewV4(), "seller@example.com", 500, uuid.Nil, "test")
	require.NoError(t, store.Add(txn))
	assert.Equal(t, 1, store.Len())

	got, found := store.Get(txn.ID)
	require.True(t, found)
	assert.Equal(t, txn.ID, got.ID)

	_, found = store.Get(uuid.NewV4())
	assert.False(t, found)

	store.Remove(txn.ID)
	_, found = store.Get(txn.ID)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())

	// removing an unknown id is fine
	store.Remove(txn.ID)
}

func TestStoreRejectsDuplicateID(t *testing.T) {
	store := NewStore(0)

	txn := newTransaction(KindUserToUser, uuid.NewV4(), uuid.NewV4(), "seller@example.com", 500, uuid.Nil, "test")
	require.NoError(t, store.Add(txn))
	assert.Error(t, store.Add(txn))
}

func TestStoreTTL(t *testing.T) {
	store := NewStore(10 * time.Millisecond)

	txn := newTransaction(KindUserToUser, uuid.NewV4(), uuid.NewV4(), "seller@example.com", 500, uuid.Nil, "test")
	require.NoError(t, store.Add(txn))

	time.Sleep(30 * time.Millisecond)
	_, found := store.Get(txn.ID)
	assert.False(t, found)
}
