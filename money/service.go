package money

import (
	"context"
	"errors"
	"sync"

	uuid "github.com/satori/go.uuid"

	"github.com/gridwork/gridpay/utils/clients/paypal"
	appctx "github.com/gridwork/gridpay/utils/context"
	"github.com/gridwork/gridpay/utils/logging"
)

// maxBalance is the fixed spendable ceiling, in cents, reported for every
// principal. Real funds live at the gateway, not in the simulator.
const maxBalance = 100000

// Service is the payment engine: it owns the pending transaction store, the
// payout address resolver and the gateway client, and bridges the simulation
// to the payment gateway.
type Service struct {
	store     *Store
	emails    *Resolver
	gateway   paypal.Client
	grid      Grid
	directory Directory

	baseURL           string
	gatewayURL        string
	currency          string
	allowGroupPayouts bool

	activeMu sync.RWMutex
	active   bool

	objectPaidMu sync.RWMutex
	objectPaid   ObjectPaidFunc
}

// NewService assembles a service from its collaborators and context
// configuration. The externally reachable base url is required, everything
// else has a usable default.
func NewService(ctx context.Context, gateway paypal.Client, grid Grid, directory Directory) (*Service, error) {
	baseURL, err := appctx.GetStringFromContext(ctx, appctx.ExternalBaseURLCTXKey)
	if err != nil {
		return nil, errors.New("an externally reachable base url must be configured")
	}

	gatewayURL, err := appctx.GetStringFromContext(ctx, appctx.PayPalServerCTXKey)
	if err != nil {
		gatewayURL = "https://www.paypal.com"
	}

	currency, err := appctx.GetStringFromContext(ctx, appctx.SettlementCurrencyCTXKey)
	if err != nil {
		currency = "USD"
	}

	allowGridEmails, err := appctx.GetBoolFromContext(ctx, appctx.AllowGridEmailsCTXKey)
	if err != nil {
		allowGridEmails = false
	}

	allowGroups, err := appctx.GetBoolFromContext(ctx, appctx.AllowGroupPayoutsCTXKey)
	if err != nil {
		allowGroups = false
	}

	ttl, err := appctx.GetDurationFromContext(ctx, appctx.PendingTTLCTXKey)
	if err != nil {
		ttl = 0
	}

	return &Service{
		store:             NewStore(ttl),
		emails:            NewResolver(directory, allowGridEmails),
		gateway:           gateway,
		grid:              grid,
		directory:         directory,
		baseURL:           baseURL,
		gatewayURL:        gatewayURL,
		currency:          currency,
		allowGroupPayouts: allowGroups,
		active:            true,
	}, nil
}

// InitService creates the gateway client from context configuration and
// assembles the service around it.
func InitService(ctx context.Context, grid Grid, directory Directory) (*Service, error) {
	logger := logging.Logger(ctx, "money.InitService")

	gateway, err := paypal.NewWithContext(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize gateway client")
		return nil, err
	}
	return NewService(ctx, gateway, grid, directory)
}

// LoadPayoutTables seeds the email resolver from the operator's user and
// group tables. The group table is ignored unless group payouts are allowed.
func (s *Service) LoadPayoutTables(ctx context.Context, users map[string]string, groups map[string]string) {
	logger := logging.Logger(ctx, "money.Service.LoadPayoutTables")

	s.emails.Load(ctx, users)
	if len(groups) == 0 {
		return
	}
	if !s.allowGroupPayouts {
		logger.Warn().Msg("group payout table configured but group payouts are not allowed, ignoring")
		return
	}
	s.emails.Load(ctx, groups)
}

// OnObjectPaid registers the hook invoked when a payment into a scripted
// object settles. Only one hook is kept, later registrations replace it.
func (s *Service) OnObjectPaid(fn ObjectPaidFunc) {
	s.objectPaidMu.Lock()
	defer s.objectPaidMu.Unlock()
	s.objectPaid = fn
}

// Balance reports the spendable ceiling for a principal. Every principal is
// shown the same fixed amount.
func (s *Service) Balance(agentID uuid.UUID) int64 {
	return maxBalance
}

// ObjectGiveMoney always declines. Scripted objects cannot disburse gateway
// money on anyone's behalf.
func (s *Service) ObjectGiveMoney(objectID uuid.UUID, payerID uuid.UUID, payeeID uuid.UUID, amount int64) bool {
	return false
}

// Active reports whether notifications are being processed.
func (s *Service) Active() bool {
	s.activeMu.RLock()
	defer s.activeMu.RUnlock()
	return s.active
}

// Close stops notification processing. Inbound notifications are still
// acknowledged so the gateway does not retry forever against a closed engine.
func (s *Service) Close() {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	s.active = false
}
