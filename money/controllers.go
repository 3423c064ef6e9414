package money

import (
	"context"
	"net/http"

	uuid "github.com/satori/go.uuid"

	"github.com/gridwork/gridpay/middleware"
	appctx "github.com/gridwork/gridpay/utils/context"
	"github.com/gridwork/gridpay/utils/handlers"
	"github.com/gridwork/gridpay/utils/logging"
	"github.com/gridwork/gridpay/utils/requestutils"
)

// acknowledgment bodies, fixed by the original viewer-facing protocol
const (
	ipnAckBody      = "IPN Processed - Have a nice day."
	ipnDisabledBody = "IPN Not processed. Module is not enabled."
)

// ConfirmHandler renders the payment confirmation page for a pending
// transaction referenced by the txn query parameter.
func ConfirmHandler(service *Service) handlers.AppHandler {
	return handlers.AppHandler(func(w http.ResponseWriter, r *http.Request) *handlers.AppError {
		ctx := r.Context()
		logger := logging.Logger(ctx, "money.ConfirmHandler")

		txnID, err := uuid.FromString(r.URL.Query().Get("txn"))
		if err != nil {
			logger.Warn().Err(err).Msg("confirmation request without a usable transaction reference")
			return handlers.RenderHTML(ctx, invalidTransactionBody, w, http.StatusNotFound)
		}

		txn, found := service.store.Get(txnID)
		if !found {
			logger.Warn().Str("txn", txnID.String()).Msg("confirmation request for a transaction that is not pending")
			return handlers.RenderHTML(ctx, invalidTransactionBody, w, http.StatusNotFound)
		}

		page, err := service.RenderConfirmPage(txn)
		if err != nil {
			logger.Error().Err(err).Str("txn", txn.ID.String()).Msg("failed to render confirmation page")
			return handlers.WrapError(err, "failed to render confirmation page", http.StatusInternalServerError)
		}
		return handlers.RenderHTML(ctx, page, w, http.StatusOK)
	})
}

// IPNHandler accepts gateway notifications. The gateway protocol wants an
// immediate success acknowledgment on every delivery, so verification runs
// detached from the request and its outcome never changes the response.
func IPNHandler(service *Service) handlers.AppHandler {
	return handlers.AppHandler(func(w http.ResponseWriter, r *http.Request) *handlers.AppError {
		ctx := r.Context()
		logger := logging.Logger(ctx, "money.IPNHandler")

		if !service.Active() {
			return handlers.RenderHTML(ctx, ipnDisabledBody, w, http.StatusOK)
		}

		body, err := requestutils.Read(ctx, r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("failed to read notification body")
			return handlers.RenderHTML(ctx, ipnAckBody, w, http.StatusOK)
		}

		// keep request values but detach from the request lifetime, the
		// connection closes as soon as the acknowledgment is written
		detached := appctx.Wrap(ctx, context.Background())
		middleware.ConcurrentGoRoutines.WithLabelValues("ProcessNotification").Inc()
		go func() {
			defer middleware.ConcurrentGoRoutines.WithLabelValues("ProcessNotification").Dec()
			_ = service.ProcessNotification(detached, string(body))
		}()

		return handlers.RenderHTML(ctx, ipnAckBody, w, http.StatusOK)
	})
}
