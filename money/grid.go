package money

import (
	"context"

	uuid "github.com/satori/go.uuid"

	"github.com/gridwork/gridpay/utils/logging"
)

// ClientHandle is the live viewer session of an in-world principal.
type ClientHandle interface {
	// SendLoadURL asks the viewer to open an external url with a prompt
	SendLoadURL(objectName string, objectID uuid.UUID, ownerID uuid.UUID, groupOwned bool, message string, url string)
	// SendInstantMessage delivers a notice from the named sender
	SendInstantMessage(fromName string, message string)
}

// SceneObject is the slice of in-world object state needed to resolve a payee
// and deliver a purchase.
type SceneObject struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
	GroupID uuid.UUID
}

// LandSale carries a parcel sale request from trigger to settlement. It is
// copied into the pending transaction, callers never see engine mutations.
type LandSale struct {
	ParcelLocalID int32
	ParcelArea    int32
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	GroupID       uuid.UUID
	GroupOwned    bool
	Price         int64

	// Validated and TransactionID are set by the engine when the sale is
	// cleared for transfer
	Validated     bool
	TransactionID uuid.UUID
}

// LandBuyResult is the engine's immediate answer to a land sale request.
type LandBuyResult struct {
	// Validated is true only for free parcels, which need no payment
	Validated bool
	// RedirectIssued is true when the buyer was sent to a confirmation page
	RedirectIssued bool
	TransactionID  uuid.UUID
}

// Grid exposes the running simulation to the payment engine.
type Grid interface {
	// LocateClient finds the controlling session for a principal, if any
	LocateClient(agentID uuid.UUID) (ClientHandle, bool)
	// GetObject resolves an in-world object by its full id
	GetObject(objectID uuid.UUID) (*SceneObject, bool)
	// DeliverObject hands a sold object (or a copy of it) to the buyer
	DeliverObject(ctx context.Context, buyerID uuid.UUID, objectID uuid.UUID, folderID uuid.UUID, saleType byte, price int64) error
	// TransferLand applies a validated land sale
	TransferLand(ctx context.Context, sale LandSale) error
}

// Account is a user directory record.
type Account struct {
	PrincipalID uuid.UUID
	FirstName   string
	LastName    string
	Email       string
}

// Directory looks up account records in the grid's user service.
type Directory interface {
	GetAccount(ctx context.Context, scopeID uuid.UUID, principalID uuid.UUID) (*Account, error)
}

// ObjectPaidFunc is invoked after a payment into a scripted object settles.
type ObjectPaidFunc func(objectID uuid.UUID, payerID uuid.UUID, amount int64)

// UnconnectedGrid is the Grid used when the engine runs standalone, with no
// simulator attached. Lookups find nothing and deliveries only log.
type UnconnectedGrid struct{}

// LocateClient never finds a session
func (UnconnectedGrid) LocateClient(agentID uuid.UUID) (ClientHandle, bool) {
	return nil, false
}

// GetObject never finds an object
func (UnconnectedGrid) GetObject(objectID uuid.UUID) (*SceneObject, bool) {
	return nil, false
}

// DeliverObject logs the delivery it cannot perform
func (UnconnectedGrid) DeliverObject(ctx context.Context, buyerID uuid.UUID, objectID uuid.UUID, folderID uuid.UUID, saleType byte, price int64) error {
	logger := logging.Logger(ctx, "money.UnconnectedGrid.DeliverObject")
	logger.Warn().
		Str("buyer", buyerID.String()).
		Str("object", objectID.String()).
		Msg("no simulator attached, object not delivered")
	return nil
}

// TransferLand logs the transfer it cannot perform
func (UnconnectedGrid) TransferLand(ctx context.Context, sale LandSale) error {
	logger := logging.Logger(ctx, "money.UnconnectedGrid.TransferLand")
	logger.Warn().
		Str("buyer", sale.BuyerID.String()).
		Int32("parcel", sale.ParcelLocalID).
		Msg("no simulator attached, land not transferred")
	return nil
}
