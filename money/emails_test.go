package money

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorutils "github.com/gridwork/gridpay/utils/errors"
)

func TestResolverLoad(t *testing.T) {
	ctx := context.Background()
	seller := uuid.NewV4()
	broken := uuid.NewV4()

	resolver := NewResolver(nil, false)
	resolver.Load(ctx, map[string]string{
		seller.String(): "seller@example.com",
		broken.String(): "not-an-email",
		"not-a-uuid":    "ignored@example.com",
	})

	email, err := resolver.Resolve(ctx, uuid.Nil, seller)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", email)

	// a configured but invalid address is a hard miss
	_, err = resolver.Resolve(ctx, uuid.Nil, broken)
	assert.ErrorIs(t, err, errorutils.ErrUnknownPayee)
}

func TestResolveLookupsDisabled(t *testing.T) {
	directory := &fakeDirectory{accounts: map[uuid.UUID]*Account{}}
	resolver := NewResolver(directory, false)

	_, err := resolver.Resolve(context.Background(), uuid.Nil, uuid.NewV4())
	assert.ErrorIs(t, err, errorutils.ErrUnknownPayee)
	assert.Equal(t, 0, directory.calls)
}

func TestResolveFromDirectory(t *testing.T) {
	seller := uuid.NewV4()
	directory := &fakeDirectory{accounts: map[uuid.UUID]*Account{
		seller: {PrincipalID: seller, FirstName: "Test", LastName: "Seller", Email: "seller@example.com"},
	}}
	resolver := NewResolver(directory, true)

	email, err := resolver.Resolve(context.Background(), uuid.Nil, seller)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", email)
	assert.Equal(t, 1, directory.calls)

	// second resolution comes from cache
	_, err = resolver.Resolve(context.Background(), uuid.Nil, seller)
	require.NoError(t, err)
	assert.Equal(t, 1, directory.calls)
}

func TestResolveMissIsCached(t *testing.T) {
	directory := &fakeDirectory{accounts: map[uuid.UUID]*Account{}}
	resolver := NewResolver(directory, true)
	unknown := uuid.NewV4()

	_, err := resolver.Resolve(context.Background(), uuid.Nil, unknown)
	assert.ErrorIs(t, err, errorutils.ErrUnknownPayee)
	assert.Equal(t, 1, directory.calls)

	_, err = resolver.Resolve(context.Background(), uuid.Nil, unknown)
	assert.ErrorIs(t, err, errorutils.ErrUnknownPayee)
	assert.Equal(t, 1, directory.calls)
}

func TestResolveDirectoryErrorNotCached(t *testing.T) {
	directory := &fakeDirectory{err: errors.New("directory offline")}
	resolver := NewResolver(directory, true)
	seller := uuid.NewV4()

	_, err := resolver.Resolve(context.Background(), uuid.Nil, seller)
	assert.ErrorIs(t, err, errorutils.ErrUnknownPayee)

	// a transient failure does not poison the cache
	directory.err = nil
	directory.accounts = map[uuid.UUID]*Account{
		seller: {PrincipalID: seller, Email: "seller@example.com"},
	}
	email, err := resolver.Resolve(context.Background(), uuid.Nil, seller)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", email)
}
