package money

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	uuid "github.com/satori/go.uuid"

	errorutils "github.com/gridwork/gridpay/utils/errors"
	"github.com/gridwork/gridpay/utils/logging"
)

var settlementsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Count of settlement outcomes, by transaction kind",
	},
	[]string{"kind", "outcome"},
)

// Settle applies the in-world side effect for a verified transaction. The
// transaction is retired from the pending table whatever happens: the payment
// has already cleared at the gateway and there is no refund path, so delivery
// failures are logged as their own class of problem rather than retried.
func (s *Service) Settle(ctx context.Context, txn *Transaction) {
	logger := logging.Logger(ctx, "money.Service.Settle")
	defer s.store.Remove(txn.ID)

	var err error
	switch txn.Kind {
	case KindUserToUser:
		err = s.settleUserPayment(ctx, txn)
	case KindObjectPayment:
		err = s.settleObjectPayment(ctx, txn)
	case KindObjectPurchase:
		err = s.settleObjectPurchase(ctx, txn)
	case KindLandPurchase:
		err = s.settleLandPurchase(ctx, txn)
	default:
		settlementsTotal.WithLabelValues(txn.Kind.String(), "dropped").Inc()
		logger.Error().Str("txn", txn.ID.String()).Msg("unknown transaction kind, retired without side effect")
		return
	}

	if err != nil {
		settlementsTotal.WithLabelValues(txn.Kind.String(), "failed").Inc()
		logger.Error().Err(err).
			Str("txn", txn.ID.String()).
			Str("kind", txn.Kind.String()).
			Int64("amount", txn.Amount).
			Msg("payment cleared but the in-world side effect failed")
		return
	}

	settlementsTotal.WithLabelValues(txn.Kind.String(), "ok").Inc()
	logger.Info().
		Str("txn", txn.ID.String()).
		Str("kind", txn.Kind.String()).
		Int64("amount", txn.Amount).
		Msg("transaction settled")
}

func (s *Service) settleUserPayment(ctx context.Context, txn *Transaction) error {
	payerName := s.accountName(ctx, txn.PayerID)
	payeeName := s.accountName(ctx, txn.PayeeID)

	if client, ok := s.grid.LocateClient(txn.PayeeID); ok {
		client.SendInstantMessage("PayPal", fmt.Sprintf("%s paid you US$ cents %d", payerName, txn.Amount))
	}
	if client, ok := s.grid.LocateClient(txn.PayerID); ok {
		client.SendInstantMessage("PayPal", fmt.Sprintf("You paid %s US$ cents %d", payeeName, txn.Amount))
	}
	return nil
}

func (s *Service) settleObjectPayment(ctx context.Context, txn *Transaction) error {
	logger := logging.Logger(ctx, "money.Service.settleObjectPayment")

	s.objectPaidMu.RLock()
	fn := s.objectPaid
	s.objectPaidMu.RUnlock()

	if fn == nil {
		logger.Warn().Str("txn", txn.ID.String()).Msg("no object paid hook registered, payment settled silently")
		return nil
	}
	fn(txn.SubjectID, txn.PayerID, txn.Amount)
	return nil
}

func (s *Service) settleObjectPurchase(ctx context.Context, txn *Transaction) error {
	if _, ok := s.grid.LocateClient(txn.PayerID); !ok {
		return errorutils.ErrSessionGone
	}
	if err := s.grid.DeliverObject(ctx, txn.PayerID, txn.SubjectID, txn.FolderID, txn.SaleType, txn.Amount); err != nil {
		return fmt.Errorf("failed to deliver purchased object: %w", err)
	}
	return nil
}

func (s *Service) settleLandPurchase(ctx context.Context, txn *Transaction) error {
	if txn.LandSale == nil {
		return errors.New("land purchase transaction is missing its sale request")
	}

	sale := *txn.LandSale
	sale.Validated = true
	sale.TransactionID = txn.ID

	if err := s.grid.TransferLand(ctx, sale); err != nil {
		return fmt.Errorf("failed to transfer land: %w", err)
	}
	return nil
}

// accountName resolves a principal's display name from the directory, falling
// back to the raw id when no directory is attached or the lookup misses.
func (s *Service) accountName(ctx context.Context, principalID uuid.UUID) string {
	if s.directory == nil {
		return principalID.String()
	}
	account, err := s.directory.GetAccount(ctx, uuid.Nil, principalID)
	if err != nil || account == nil {
		return principalID.String()
	}
	return fmt.Sprintf("%s %s", account.FirstName, account.LastName)
}
