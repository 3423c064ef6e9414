package money

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwork/gridpay/utils/clients/paypal"
	mockpaypal "github.com/gridwork/gridpay/utils/clients/paypal/mock"
	errorutils "github.com/gridwork/gridpay/utils/errors"
)

// notificationFor builds a gateway notification payload settling a pending
// transaction, with optional field overrides
func notificationFor(txn *Transaction, overrides map[string]string) string {
	values := url.Values{}
	values.Set("payment_status", "Completed")
	values.Set("mc_currency", "USD")
	values.Set("mc_gross", txn.DisplayAmount().StringFixed(2))
	values.Set("item_number", txn.ID.String())
	values.Set("payer_email", "buyer@example.com")
	values.Set("receiver_email", txn.PayeeEmail)
	for k, v := range overrides {
		values.Set(k, v)
	}
	return values.Encode()
}

func pendingUserPayment(t *testing.T, service *Service, grid *fakeGrid) *Transaction {
	payer := uuid.NewV4()
	payee := uuid.NewV4()
	grid.clients[payer] = &fakeClient{}
	grid.clients[payee] = &fakeClient{}
	service.emails.Load(context.Background(), map[string]string{payee.String(): "payee@example.com"})

	txn, err := service.MoneyTransfer(context.Background(), uuid.Nil, payer, payee, 500, "", false)
	require.NoError(t, err)
	return txn
}

func TestProcessNotification(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	grid := newFakeGrid()
	gateway := mockpaypal.NewMockClient(mockCtrl)
	service := newTestService(t, gateway, grid, nil, nil)
	txn := pendingUserPayment(t, service, grid)

	payload := notificationFor(txn, nil)
	gateway.EXPECT().VerifyNotification(gomock.Any(), gomock.Eq(payload)).Return(nil)

	require.NoError(t, service.ProcessNotification(context.Background(), payload))

	// settlement runs detached and retires the transaction
	waitFor(t, time.Second, func() bool {
		_, found := service.store.Get(txn.ID)
		return !found
	})
	payerClient := grid.clients[txn.PayerID]
	waitFor(t, time.Second, func() bool { return len(payerClient.messages) == 1 })

	// a replayed notification finds nothing to settle
	gateway.EXPECT().VerifyNotification(gomock.Any(), gomock.Eq(payload)).Return(nil)
	err := service.ProcessNotification(context.Background(), payload)
	assert.ErrorIs(t, err, errorutils.ErrUnknownTransaction)
}

func TestProcessNotificationUnverified(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	grid := newFakeGrid()
	gateway := mockpaypal.NewMockClient(mockCtrl)
	service := newTestService(t, gateway, grid, nil, nil)
	txn := pendingUserPayment(t, service, grid)

	payload := notificationFor(txn, nil)
	gateway.EXPECT().VerifyNotification(gomock.Any(), gomock.Eq(payload)).Return(paypal.ErrNotVerified)

	err := service.ProcessNotification(context.Background(), payload)
	assert.ErrorIs(t, err, errorutils.ErrVerificationFailed)

	// the transaction stays pending, a later genuine notification can settle it
	_, found := service.store.Get(txn.ID)
	assert.True(t, found)
}

func TestProcessNotificationRejections(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	grid := newFakeGrid()
	gateway := mockpaypal.NewMockClient(mockCtrl)
	gateway.EXPECT().VerifyNotification(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	service := newTestService(t, gateway, grid, nil, nil)
	txn := pendingUserPayment(t, service, grid)

	cases := []struct {
		name      string
		overrides map[string]string
		want      error
	}{
		{"pending status", map[string]string{"payment_status": "Pending"}, errorutils.ErrVerificationFailed},
		{"wrong currency", map[string]string{"mc_currency": "EUR"}, errorutils.ErrVerificationFailed},
		{"amount too low", map[string]string{"mc_gross": "4.99"}, errorutils.ErrVerificationFailed},
		{"amount not a number", map[string]string{"mc_gross": "lots"}, errorutils.ErrMalformedNotification},
		{"unknown transaction", map[string]string{"item_number": uuid.NewV4().String()}, errorutils.ErrUnknownTransaction},
		{"item number not an id", map[string]string{"item_number": "42"}, errorutils.ErrMalformedNotification},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := service.ProcessNotification(context.Background(), notificationFor(txn, c.overrides))
			assert.ErrorIs(t, err, c.want)
		})
	}

	// every rejection left the transaction pending
	_, found := service.store.Get(txn.ID)
	assert.True(t, found)

	// lowercase currency and a boundary amount still settle
	payload := notificationFor(txn, map[string]string{"mc_currency": "usd", "mc_gross": "5.001"})
	require.NoError(t, service.ProcessNotification(context.Background(), payload))
	waitFor(t, time.Second, func() bool {
		_, found := service.store.Get(txn.ID)
		return !found
	})
}

func TestProcessNotificationMalformedPayload(t *testing.T) {
	service := newTestService(t, nil, newFakeGrid(), nil, nil)

	err := service.ProcessNotification(context.Background(), "%zz=broken")
	assert.ErrorIs(t, err, errorutils.ErrMalformedNotification)
}
