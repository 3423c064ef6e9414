package paypal

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gridwork/gridpay/utils/clients"
	errorutils "github.com/gridwork/gridpay/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyNotification(t *testing.T) {
	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, webscrPath, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("content-type"))
		b, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(b)
		_, err = w.Write([]byte(verifiedToken))
		assert.NoError(t, err)
	}))
	defer ts.Close()

	client, err := newClient(ts.URL)
	require.NoError(t, err)

	payload := "payment_status=Completed&mc_gross=5.00&mc_currency=USD"
	err = client.VerifyNotification(context.Background(), payload)
	assert.NoError(t, err)

	// the original payload must be relayed verbatim, directive appended
	assert.Equal(t, payload+"&"+notifyValidateCmd, gotBody)
}

func TestVerifyNotification_Invalid(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("INVALID"))
		assert.NoError(t, err)
	}))
	defer ts.Close()

	client, err := newClient(ts.URL)
	require.NoError(t, err)

	err = client.VerifyNotification(context.Background(), "payment_status=Completed")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestVerifyNotification_GatewayError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client, err := newClient(ts.URL)
	require.NoError(t, err)

	err = client.VerifyNotification(context.Background(), "payment_status=Completed")
	require.Error(t, err)

	var bundle *errorutils.ErrorBundle
	require.ErrorAs(t, err, &bundle)
	state, ok := bundle.Data().(clients.HTTPState)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, state.Status)
}
