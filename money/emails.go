package money

import (
	"context"

	"github.com/asaskevich/govalidator"
	cache "github.com/patrickmn/go-cache"
	uuid "github.com/satori/go.uuid"

	errorutils "github.com/gridwork/gridpay/utils/errors"
	"github.com/gridwork/gridpay/utils/logging"
)

// Resolver maps principal ids to the payout email addresses money is sent to.
// Operator configuration is authoritative; the grid directory is consulted
// only when that is allowed and the principal has no configured entry.
//
// Resolution outcomes are cached indefinitely, including misses, which are
// stored as empty strings so a payee without an address fails fast instead of
// hammering the directory.
type Resolver struct {
	cache            *cache.Cache
	directory        Directory
	allowGridLookups bool
}

// NewResolver creates an empty resolver. The directory may be nil when grid
// lookups are disabled.
func NewResolver(directory Directory, allowGridLookups bool) *Resolver {
	return &Resolver{
		cache:            cache.New(cache.NoExpiration, 0),
		directory:        directory,
		allowGridLookups: allowGridLookups,
	}
}

// Load seeds the resolver from an operator table of principal id to email
// address. Malformed ids are skipped; entries with missing or invalid
// addresses are recorded as known-bad.
func (r *Resolver) Load(ctx context.Context, table map[string]string) {
	logger := logging.Logger(ctx, "money.Resolver.Load")

	for principal, email := range table {
		id, err := uuid.FromString(principal)
		if err != nil {
			logger.Error().Err(err).Str("principal", principal).Msg("not a valid principal id, skipping entry")
			continue
		}
		if email == "" || !govalidator.IsEmail(email) {
			logger.Error().Str("principal", principal).Msg("payout email address missing or invalid")
			r.cache.Set(id.String(), "", cache.DefaultExpiration)
			continue
		}
		r.cache.Set(id.String(), email, cache.DefaultExpiration)
	}
}

// Resolve returns the payout address for a principal or ErrUnknownPayee when
// none can be found.
func (r *Resolver) Resolve(ctx context.Context, scopeID uuid.UUID, principalID uuid.UUID) (string, error) {
	logger := logging.Logger(ctx, "money.Resolver.Resolve")

	if v, found := r.cache.Get(principalID.String()); found {
		email, _ := v.(string)
		if email == "" {
			return "", errorutils.ErrUnknownPayee
		}
		return email, nil
	}

	if !r.allowGridLookups || r.directory == nil {
		return "", errorutils.ErrUnknownPayee
	}

	logger.Warn().Str("principal", principalID.String()).Msg("fetching payout email address from the grid directory")

	account, err := r.directory.GetAccount(ctx, scopeID, principalID)
	if err != nil {
		logger.Error().Err(err).Str("principal", principalID.String()).Msg("directory lookup failed")
		return "", errorutils.ErrUnknownPayee
	}

	email := ""
	if account != nil && govalidator.IsEmail(account.Email) {
		email = account.Email
	}
	r.cache.Set(principalID.String(), email, cache.DefaultExpiration)
	if email == "" {
		return "", errorutils.ErrUnknownPayee
	}
	return email, nil
}
