package money

import (
	"context"
	"fmt"

	"github.com/google/go-querystring/query"

	"github.com/gridwork/gridpay/utils/logging"
)

// checkoutParams is the gateway's hosted checkout querystring. Field names are
// fixed by the gateway protocol.
type checkoutParams struct {
	Cmd          string `url:"cmd"`
	Business     string `url:"business"`
	ItemName     string `url:"item_name"`
	ItemNumber   string `url:"item_number"`
	Amount       string `url:"amount"`
	CurrencyCode string `url:"currency_code"`
	PageStyle    string `url:"page_style"`
	NoShipping   string `url:"no_shipping"`
	NoNote       string `url:"no_note"`
	Return       string `url:"return"`
	CancelReturn string `url:"cancel_return"`
	NotifyURL    string `url:"notify_url"`
	Locale       string `url:"lc"`
	BuildNotify  string `url:"bn"`
	Charset      string `url:"charset"`
}

// ConfirmURL is the local confirmation page address for a transaction.
func (s *Service) ConfirmURL(txn *Transaction) string {
	return fmt.Sprintf("%s/pp/?txn=%s", s.baseURL, txn.ID)
}

// CheckoutURL builds the gateway's hosted checkout address for a transaction.
func (s *Service) CheckoutURL(txn *Transaction) (string, error) {
	v, err := query.Values(&checkoutParams{
		Cmd:          "_xclick",
		Business:     txn.PayeeEmail,
		ItemName:     txn.Description,
		ItemNumber:   txn.ID.String(),
		Amount:       txn.DisplayAmount().StringFixed(2),
		CurrencyCode: s.currency,
		PageStyle:    "Paypal",
		NoShipping:   "1",
		NoNote:       "1",
		Return:       s.baseURL + "/",
		CancelReturn: s.baseURL + "/",
		NotifyURL:    s.baseURL + "/ppipn/",
		Locale:       "US",
		BuildNotify:  "PP-BuyNowBF",
		Charset:      "UTF-8",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout parameters: %w", err)
	}
	return s.gatewayURL + "/cgi-bin/webscr?" + v.Encode(), nil
}

// issueRedirect points the paying client's viewer at the confirmation page.
func (s *Service) issueRedirect(ctx context.Context, client ClientHandle, txn *Transaction, prompt string) {
	logger := logging.Logger(ctx, "money.Service.issueRedirect")

	client.SendLoadURL("PayPal", txn.SubjectID, txn.PayeeID, false, prompt, s.ConfirmURL(txn))

	logger.Info().
		Str("txn", txn.ID.String()).
		Str("kind", txn.Kind.String()).
		Int64("amount", txn.Amount).
		Msg("sent payer to the confirmation page")
}
