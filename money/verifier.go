package money

import (
	"context"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	appctx "github.com/gridwork/gridpay/utils/context"
	errorutils "github.com/gridwork/gridpay/utils/errors"
	"github.com/gridwork/gridpay/utils/logging"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_notifications_total",
		Help: "Count of gateway notification outcomes",
	},
	[]string{"outcome"},
)

// notification field names and values, fixed by the gateway protocol
const (
	fieldPaymentStatus = "payment_status"
	fieldCurrency      = "mc_currency"
	fieldGross         = "mc_gross"
	fieldItemNumber    = "item_number"
	statusCompleted    = "Completed"
)

// ProcessNotification verifies one inbound gateway notification and, when
// every check passes, dispatches settlement. The caller has already
// acknowledged receipt, so failures here are terminal for this delivery and
// are only logged and counted.
func (s *Service) ProcessNotification(ctx context.Context, payload string) error {
	logger := logging.Logger(ctx, "money.Service.ProcessNotification")

	values, err := url.ParseQuery(payload)
	if err != nil {
		notificationsTotal.WithLabelValues("malformed").Inc()
		return logging.LogAndError(logger, "received a badly formatted notification", errorutils.ErrMalformedNotification)
	}

	// the gateway is the sole authority on whether this notification is real
	if err := s.gateway.VerifyNotification(ctx, payload); err != nil {
		notificationsTotal.WithLabelValues("unverified").Inc()
		logger.Error().Err(err).Msg("notification was not verified by the gateway")
		return errorutils.New(errorutils.ErrVerificationFailed, "gateway rejected the notification", err.Error())
	}

	if status := values.Get(fieldPaymentStatus); status != statusCompleted {
		notificationsTotal.WithLabelValues("incomplete").Inc()
		logger.Error().Str("status", status).Msg("transaction is verified but not completed")
		return errorutils.New(errorutils.ErrVerificationFailed, "payment status is not completed", status)
	}

	if currency := values.Get(fieldCurrency); !strings.EqualFold(currency, s.currency) {
		notificationsTotal.WithLabelValues("currency").Inc()
		logger.Error().Str("currency", currency).Msg("payment settled in the wrong currency")
		return errorutils.New(errorutils.ErrVerificationFailed, "payment settled in the wrong currency", currency)
	}

	txnID, err := uuid.FromString(values.Get(fieldItemNumber))
	if err != nil {
		notificationsTotal.WithLabelValues("malformed").Inc()
		logger.Error().Str("item_number", values.Get(fieldItemNumber)).Msg("notification carries no usable transaction reference")
		return errorutils.New(errorutils.ErrMalformedNotification, "item number is not a transaction id", err.Error())
	}

	logging.AddTransactionIDToContext(ctx, txnID)

	txn, found := s.store.Get(txnID)
	if !found {
		notificationsTotal.WithLabelValues("unknown").Inc()
		logger.Error().Str("txn", txnID.String()).Msg("no pending transaction for this notification")
		return errorutils.New(errorutils.ErrUnknownTransaction, "no pending transaction", txnID.String())
	}

	paid, err := decimal.NewFromString(values.Get(fieldGross))
	if err != nil {
		notificationsTotal.WithLabelValues("malformed").Inc()
		logger.Error().Str("mc_gross", values.Get(fieldGross)).Msg("notification carries no usable amount")
		return errorutils.New(errorutils.ErrMalformedNotification, "gross amount is not a number", err.Error())
	}

	if !txn.MatchesPaid(paid) {
		notificationsTotal.WithLabelValues("amount").Inc()
		logger.Error().
			Str("txn", txn.ID.String()).
			Str("expected", txn.DisplayAmount().String()).
			Str("received", paid.String()).
			Msg("amount paid does not match the transaction")
		return errorutils.New(errorutils.ErrVerificationFailed, "amount paid does not match the transaction", paid.String())
	}

	notificationsTotal.WithLabelValues("verified").Inc()
	logger.Info().Str("txn", txn.ID.String()).Str("kind", txn.Kind.String()).Msg("notification verified, dispatching settlement")

	// settlement never blocks notification processing
	go s.Settle(appctx.Wrap(ctx, context.Background()), txn)
	return nil
}
