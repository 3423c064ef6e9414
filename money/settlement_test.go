package money

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleUserPayment(t *testing.T) {
	payer := uuid.NewV4()
	payee := uuid.NewV4()
	grid := newFakeGrid()
	payerClient := &fakeClient{}
	payeeClient := &fakeClient{}
	grid.clients[payer] = payerClient
	grid.clients[payee] = payeeClient

	directory := &fakeDirectory{accounts: map[uuid.UUID]*Account{
		payer: {PrincipalID: payer, FirstName: "Paying", LastName: "Avatar"},
		payee: {PrincipalID: payee, FirstName: "Paid", LastName: "Avatar"},
	}}

	service := newTestService(t, nil, grid, directory, nil)
	txn := newTransaction(KindUserToUser, payer, payee, "payee@example.com", 500, uuid.Nil, "test")
	require.NoError(t, service.store.Add(txn))

	service.Settle(context.Background(), txn)

	require.Len(t, payeeClient.messages, 1)
	assert.Equal(t, "Paying Avatar paid you US$ cents 500", payeeClient.messages[0])
	require.Len(t, payerClient.messages, 1)
	assert.Equal(t, "You paid Paid Avatar US$ cents 500", payerClient.messages[0])

	_, found := service.store.Get(txn.ID)
	assert.False(t, found)
}

func TestSettleObjectPayment(t *testing.T) {
	service := newTestService(t, nil, newFakeGrid(), nil, nil)

	var gotObject, gotPayer uuid.UUID
	var gotAmount int64
	service.OnObjectPaid(func(objectID uuid.UUID, payerID uuid.UUID, amount int64) {
		gotObject, gotPayer, gotAmount = objectID, payerID, amount
	})

	objectID := uuid.NewV4()
	payer := uuid.NewV4()
	txn := newTransaction(KindObjectPayment, payer, uuid.NewV4(), "owner@example.com", 250, objectID, "test")
	require.NoError(t, service.store.Add(txn))

	service.Settle(context.Background(), txn)

	assert.Equal(t, objectID, gotObject)
	assert.Equal(t, payer, gotPayer)
	assert.Equal(t, int64(250), gotAmount)
}

func TestSettleObjectPurchase(t *testing.T) {
	buyer := uuid.NewV4()
	grid := newFakeGrid()
	grid.clients[buyer] = &fakeClient{}

	service := newTestService(t, nil, grid, nil, nil)

	txn := newTransaction(KindObjectPurchase, buyer, uuid.NewV4(), "owner@example.com", 1500, uuid.NewV4(), "test")
	txn.FolderID = uuid.NewV4()
	txn.SaleType = 2
	require.NoError(t, service.store.Add(txn))

	service.Settle(context.Background(), txn)

	require.Len(t, grid.delivered, 1)
	assert.Equal(t, txn.SubjectID, grid.delivered[0].ObjectID)
	assert.Equal(t, txn.FolderID, grid.delivered[0].FolderID)
	assert.Equal(t, byte(2), grid.delivered[0].SaleType)
	assert.Equal(t, int64(1500), grid.delivered[0].Price)
}

func TestSettleObjectPurchaseSessionGone(t *testing.T) {
	grid := newFakeGrid()
	service := newTestService(t, nil, grid, nil, nil)

	txn := newTransaction(KindObjectPurchase, uuid.NewV4(), uuid.NewV4(), "owner@example.com", 1500, uuid.NewV4(), "test")
	require.NoError(t, service.store.Add(txn))

	service.Settle(context.Background(), txn)

	assert.Len(t, grid.delivered, 0)
	// the payment cleared, the transaction is retired either way
	_, found := service.store.Get(txn.ID)
	assert.False(t, found)
}

func TestSettleLandPurchase(t *testing.T) {
	grid := newFakeGrid()
	service := newTestService(t, nil, grid, nil, nil)

	sale := LandSale{Price: 900, ParcelLocalID: 7, BuyerID: uuid.NewV4(), SellerID: uuid.NewV4()}
	txn := newTransaction(KindLandPurchase, sale.BuyerID, sale.SellerID, "seller@example.com", 900, uuid.Nil, "test")
	saleCopy := sale
	txn.LandSale = &saleCopy
	require.NoError(t, service.store.Add(txn))

	service.Settle(context.Background(), txn)

	require.Len(t, grid.transfers, 1)
	assert.True(t, grid.transfers[0].Validated)
	assert.Equal(t, txn.ID, grid.transfers[0].TransactionID)
	assert.Equal(t, int32(7), grid.transfers[0].ParcelLocalID)

	// the transaction's own copy stays unmutated
	assert.False(t, txn.LandSale.Validated)
}

func TestSettleDeliveryFailureStillRetires(t *testing.T) {
	buyer := uuid.NewV4()
	grid := newFakeGrid()
	grid.clients[buyer] = &fakeClient{}
	grid.deliverErr = errors.New("inventory service offline")

	service := newTestService(t, nil, grid, nil, nil)

	txn := newTransaction(KindObjectPurchase, buyer, uuid.NewV4(), "owner@example.com", 1500, uuid.NewV4(), "test")
	require.NoError(t, service.store.Add(txn))

	service.Settle(context.Background(), txn)

	_, found := service.store.Get(txn.ID)
	assert.False(t, found)
}
