package money

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	uuid "github.com/satori/go.uuid"

	errorutils "github.com/gridwork/gridpay/utils/errors"
	"github.com/gridwork/gridpay/utils/logging"
)

var transactionsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pending_transactions_started_total",
		Help: "Count of pending transactions created, by kind",
	},
	[]string{"kind"},
)

// MoneyTransfer handles a direct payment raised by the simulation, either to
// another avatar or into a scripted object. On success a pending transaction
// is recorded and the payer is redirected to the confirmation page.
func (s *Service) MoneyTransfer(ctx context.Context, scopeID uuid.UUID, payerID uuid.UUID, receiverID uuid.UUID, amount int64, description string, objectPayment bool) (*Transaction, error) {
	logger := logging.Logger(ctx, "money.Service.MoneyTransfer")

	client, ok := s.grid.LocateClient(payerID)
	if !ok {
		logger.Warn().Str("payer", payerID.String()).Msg("payer has no live session, dropping payment")
		return nil, errorutils.ErrSessionGone
	}

	var txn *Transaction
	if objectPayment {
		object, found := s.grid.GetObject(receiverID)
		if !found {
			logger.Warn().Str("object", receiverID.String()).Msg("paid object not found in scene")
			return nil, errorutils.ErrNotFound
		}
		email, err := s.payeeEmail(ctx, scopeID, object.OwnerID, object.GroupID)
		if err != nil {
			return nil, err
		}
		if description == "" {
			description = fmt.Sprintf("Paying object %s", object.Name)
		}
		txn = newTransaction(KindObjectPayment, payerID, object.OwnerID, email, amount, object.ID, description)
	} else {
		email, err := s.emails.Resolve(ctx, scopeID, receiverID)
		if err != nil {
			return nil, err
		}
		if description == "" {
			description = "Avatar to avatar payment"
		}
		txn = newTransaction(KindUserToUser, payerID, receiverID, email, amount, uuid.Nil, description)
	}

	if err := s.store.Add(txn); err != nil {
		return nil, err
	}
	transactionsStartedTotal.WithLabelValues(txn.Kind.String()).Inc()

	s.issueRedirect(ctx, client, txn, "Confirm payment?")
	return txn, nil
}

// ObjectBuy handles an object purchase raised by the simulation. Free objects
// are delivered immediately without touching the gateway.
func (s *Service) ObjectBuy(ctx context.Context, scopeID uuid.UUID, buyerID uuid.UUID, objectID uuid.UUID, folderID uuid.UUID, saleType byte, salePrice int64) (*Transaction, error) {
	logger := logging.Logger(ctx, "money.Service.ObjectBuy")

	client, ok := s.grid.LocateClient(buyerID)
	if !ok {
		logger.Warn().Str("buyer", buyerID.String()).Msg("buyer has no live session, dropping purchase")
		return nil, errorutils.ErrSessionGone
	}

	if salePrice == 0 {
		if err := s.grid.DeliverObject(ctx, buyerID, objectID, folderID, saleType, 0); err != nil {
			logger.Error().Err(err).Str("object", objectID.String()).Msg("failed to deliver free object")
			return nil, fmt.Errorf("failed to deliver free object: %w", err)
		}
		return nil, nil
	}

	object, found := s.grid.GetObject(objectID)
	if !found {
		logger.Warn().Str("object", objectID.String()).Msg("purchased object not found in scene")
		return nil, errorutils.ErrNotFound
	}

	email, err := s.payeeEmail(ctx, scopeID, object.OwnerID, object.GroupID)
	if err != nil {
		return nil, err
	}

	txn := newTransaction(KindObjectPurchase, buyerID, object.OwnerID, email,
		salePrice, object.ID, fmt.Sprintf("Item Purchase - %s", object.Name))
	txn.FolderID = folderID
	txn.SaleType = saleType

	if err := s.store.Add(txn); err != nil {
		return nil, err
	}
	transactionsStartedTotal.WithLabelValues(txn.Kind.String()).Inc()

	s.issueRedirect(ctx, client, txn, "Confirm purchase?")
	return txn, nil
}

// LandBuy handles a parcel sale request raised by the simulation. Free parcels
// validate immediately, paid parcels create a pending transaction and redirect
// the buyer; the sale itself waits for settlement.
func (s *Service) LandBuy(ctx context.Context, scopeID uuid.UUID, sale LandSale) (*LandBuyResult, error) {
	logger := logging.Logger(ctx, "money.Service.LandBuy")

	if sale.Price == 0 {
		return &LandBuyResult{Validated: true}, nil
	}

	client, ok := s.grid.LocateClient(sale.BuyerID)
	if !ok {
		logger.Warn().Str("buyer", sale.BuyerID.String()).Msg("buyer has no live session, dropping land sale")
		return nil, errorutils.ErrSessionGone
	}

	if sale.GroupOwned || uuid.Equal(sale.SellerID, sale.GroupID) {
		if !s.allowGroupPayouts {
			logger.Warn().Str("seller", sale.SellerID.String()).Msg("group owned parcel and group payouts are not allowed")
			return nil, errorutils.ErrPolicyDenied
		}
	}

	email, err := s.emails.Resolve(ctx, scopeID, sale.SellerID)
	if err != nil {
		return nil, err
	}

	txn := newTransaction(KindLandPurchase, sale.BuyerID, sale.SellerID, email,
		sale.Price, uuid.Nil, fmt.Sprintf("Land Purchase - %d sqm", sale.ParcelArea))
	saleCopy := sale
	txn.LandSale = &saleCopy

	if err := s.store.Add(txn); err != nil {
		return nil, err
	}
	transactionsStartedTotal.WithLabelValues(txn.Kind.String()).Inc()

	s.issueRedirect(ctx, client, txn, "Confirm payment?")
	return &LandBuyResult{RedirectIssued: true, TransactionID: txn.ID}, nil
}

// payeeEmail resolves an owner's payout address, routing group owned subjects
// through the group payout policy first.
func (s *Service) payeeEmail(ctx context.Context, scopeID uuid.UUID, ownerID uuid.UUID, groupID uuid.UUID) (string, error) {
	if !uuid.Equal(groupID, uuid.Nil) && uuid.Equal(ownerID, groupID) {
		if !s.allowGroupPayouts {
			return "", errorutils.ErrPolicyDenied
		}
	}
	return s.emails.Resolve(ctx, scopeID, ownerID)
}
