package money

import (
	"time"

	cache "github.com/patrickmn/go-cache"
	uuid "github.com/satori/go.uuid"

	errorutils "github.com/gridwork/gridpay/utils/errors"
)

// Store holds transactions between trigger and settlement. Entries survive
// until settlement retires them; abandoned checkouts are only evicted when the
// store was built with a ttl.
type Store struct {
	pending *cache.Cache
}

// NewStore creates a pending transaction store. A ttl of zero keeps entries
// forever, matching a gateway that may deliver notifications at any time.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		return &Store{pending: cache.New(cache.NoExpiration, 0)}
	}
	return &Store{pending: cache.New(ttl, ttl)}
}

// Add records a freshly created transaction. The id must not already be
// pending.
func (s *Store) Add(txn *Transaction) error {
	if err := s.pending.Add(txn.ID.String(), txn, cache.DefaultExpiration); err != nil {
		return errorutils.Wrap(err, "transaction is already pending")
	}
	return nil
}

// Get finds a pending transaction by id.
func (s *Store) Get(id uuid.UUID) (*Transaction, bool) {
	v, found := s.pending.Get(id.String())
	if !found {
		return nil, false
	}
	txn, ok := v.(*Transaction)
	if !ok {
		return nil, false
	}
	return txn, true
}

// Remove retires a transaction. Removing an unknown id is a no-op.
func (s *Store) Remove(id uuid.UUID) {
	s.pending.Delete(id.String())
}

// Len reports how many transactions are awaiting settlement.
func (s *Store) Len() int {
	return s.pending.ItemCount()
}
