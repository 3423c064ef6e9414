package paypal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gridwork/gridpay/utils/clients"
	appctx "github.com/gridwork/gridpay/utils/context"
)

// verification endpoint on the gateway, shared with the checkout flow
const webscrPath = "/cgi-bin/webscr"

// notifyValidateCmd is appended verbatim to the relayed notification payload
const notifyValidateCmd = "cmd=_notify-validate"

// verifiedToken is the body token the gateway answers with for authentic notifications
const verifiedToken = "VERIFIED"

var (
	// ErrNotVerified - the gateway did not acknowledge the notification as authentic
	ErrNotVerified = errors.New("gateway did not verify the notification")
)

// Client abstracts over the underlying gateway verification client
type Client interface {
	// VerifyNotification relays the raw notification payload back to the gateway
	// for authoritative re-validation
	VerifyNotification(ctx context.Context, payload string) error
}

// HTTPClient wraps http.Client for interacting with the payment gateway
type HTTPClient struct {
	client *clients.SimpleHTTPClient
}

// NewWithContext returns a new Client, retrieving the gateway URL from the context
func NewWithContext(ctx context.Context) (Client, error) {
	// get the gateway url from context
	serverURL, err := appctx.GetStringFromContext(ctx, appctx.PayPalServerCTXKey)
	if err != nil {
		return nil, err
	}
	return newClient(serverURL)
}

// New returns a new Client, retrieving the gateway URL from the environment
func New() (Client, error) {
	serverEnvKey := "PAYPAL_SERVER"
	serverURL := os.Getenv(serverEnvKey)
	if len(serverURL) == 0 {
		return nil, errors.New(serverEnvKey + " was empty")
	}
	return newClient(serverURL)
}

func newClient(serverURL string) (Client, error) {
	client, err := clients.NewInstrumented("paypal", serverURL)
	if err != nil {
		return nil, err
	}
	return NewClientWithPrometheus(&HTTPClient{client: client}, "paypal_client"), nil
}

// VerifyNotification implements Client. The entire original payload is posted back
// to the gateway with the validate directive appended; anything other than a 2xx
// carrying the VERIFIED token fails verification.
func (c *HTTPClient) VerifyNotification(ctx context.Context, payload string) error {
	body := payload + "&" + notifyValidateCmd

	req, err := c.client.NewRequest(ctx, http.MethodPost, webscrPath,
		strings.NewReader(body), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}

	respBody, _, err := c.client.Do(ctx, req)
	if err != nil {
		return err
	}

	if !strings.Contains(string(respBody), verifiedToken) {
		return ErrNotVerified
	}
	return nil
}
