package money

import (
	"bytes"
	"fmt"
	"html/template"
)

// invalidTransactionBody is served for confirmation requests that reference no
// pending transaction. The body is fixed by the viewer integration.
const invalidTransactionBody = "<h1>Invalid Transaction</h1>"

type confirmPageData struct {
	Item        string
	Amount      string
	AmountGrid  int64
	Currency    string
	SellerEmail string
	CheckoutURL string
}

var confirmTemplate = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Confirm Payment</title>
</head>
<body>
<h1>Confirm Payment</h1>
<p>Item: {{.Item}}</p>
<p>Price: {{.Currency}} {{.Amount}} ({{.AmountGrid}} in-world)</p>
<p>Paid to: {{.SellerEmail}}</p>
<p><a href="{{.CheckoutURL}}">Pay with PayPal</a></p>
</body>
</html>
`))

// RenderConfirmPage fills the confirmation page for a pending transaction.
func (s *Service) RenderConfirmPage(txn *Transaction) (string, error) {
	checkout, err := s.CheckoutURL(txn)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	err = confirmTemplate.Execute(&b, confirmPageData{
		Item:        txn.Description,
		Amount:      txn.DisplayAmount().StringFixed(2),
		AmountGrid:  txn.Amount,
		Currency:    s.currency,
		SellerEmail: txn.PayeeEmail,
		CheckoutURL: checkout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render confirmation page: %w", err)
	}
	return b.String(), nil
}
