package money

import (
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// Kind discriminates what in-world side effect a transaction settles into.
type Kind int

const (
	// KindUserToUser - a direct payment from one avatar to another
	KindUserToUser Kind = iota
	// KindObjectPayment - money paid into a scripted object
	KindObjectPayment
	// KindObjectPurchase - an object bought from its owner
	KindObjectPurchase
	// KindLandPurchase - a parcel of land bought from its owner
	KindLandPurchase
)

// String implements fmt.Stringer for metrics labels and logs
func (k Kind) String() string {
	switch k {
	case KindUserToUser:
		return "user_payment"
	case KindObjectPayment:
		return "object_payment"
	case KindObjectPurchase:
		return "object_purchase"
	case KindLandPurchase:
		return "land_purchase"
	}
	return "unknown"
}

// amountTolerance is the absolute difference, in major currency units, allowed
// between the amount the payer settled and the amount the transaction asked for
var amountTolerance = decimal.New(1, -3)

// Transaction correlates one expected real-money payment with the in-world
// action that raised it. Amounts are held in minor currency units (US cents),
// conversion to major units happens only at the presentation edge.
type Transaction struct {
	ID          uuid.UUID
	Kind        Kind
	PayerID     uuid.UUID
	PayeeID     uuid.UUID
	PayeeEmail  string
	Amount      int64
	Description string

	// SubjectID is the object being paid or purchased, uuid.Nil otherwise
	SubjectID uuid.UUID

	// object purchase delivery details, captured at trigger time
	FolderID uuid.UUID
	SaleType byte

	// land purchase request, replayed at settlement
	LandSale *LandSale
}

func newTransaction(kind Kind, payer uuid.UUID, payee uuid.UUID, email string, amount int64, subject uuid.UUID, description string) *Transaction {
	return &Transaction{
		ID:          uuid.NewV4(),
		Kind:        kind,
		PayerID:     payer,
		PayeeID:     payee,
		PayeeEmail:  email,
		Amount:      amount,
		SubjectID:   subject,
		Description: description,
	}
}

// DisplayAmount converts the minor-unit amount into major units for
// presentation and gateway messages
func (t *Transaction) DisplayAmount() decimal.Decimal {
	return decimal.New(t.Amount, -2)
}

// MatchesPaid reports whether an externally reported major-unit amount settles
// this transaction. Differences at the tolerance boundary are accepted.
func (t *Transaction) MatchesPaid(paid decimal.Decimal) bool {
	return t.DisplayAmount().Sub(paid).Abs().LessThanOrEqual(amountTolerance)
}
