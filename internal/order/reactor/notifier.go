package reactor

import (
	"bytes"
	"fmt"
	"html/template"

	orderdomain "github.com/shopforge/shopforge/internal/order/domain"
	userdomain "github.com/shopforge/shopforge/internal/user/domain"
)

const (
	subjectPaymentSuccessful = "Payment Successful"
	subjectPaymentFailed     = "Payment Failed"
)

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(templateFuncs).Parse(`
<h2>Thank you for your purchase, {{.User.Name}}!</h2>
<p>Your payment for order <strong>{{.Order.Number}}</strong> was received.</p>
<table border="0" cellpadding="6" cellspacing="0">
  <tr><th align="left">Item</th><th align="left">Code</th><th align="right">Qty</th><th align="right">Unit</th><th align="right">Total</th></tr>
  {{range .Items}}
  <tr>
    <td>{{if .ImageURL}}<img src="{{.ImageURL}}" width="40" alt=""> {{end}}{{.Name}}</td>
    <td>{{.Code}}</td>
    <td align="right">{{.Quantity}}</td>
    <td align="right">{{money .UnitPrice}}</td>
    <td align="right">{{money .LineTotal}}</td>
  </tr>
  {{end}}
  <tr><td colspan="4" align="right"><strong>Order total</strong></td><td align="right"><strong>{{money .Order.TotalAmount}}</strong></td></tr>
</table>
<p>We are preparing your order for shipment.</p>
`))

var failureTemplate = template.Must(template.New("failure").Parse(`
<h2>We could not process your payment</h2>
<p>Hi {{.User.Name}}, the payment for order <strong>{{.Order.Number}}</strong> failed and the order was cancelled.</p>
<p>No funds were collected. If you believe this is an error, please contact support.</p>
`))

type notificationData struct {
	User  *userdomain.User
	Order *orderdomain.Order
	Items []orderdomain.ItemView
}

func renderReceipt(data notificationData) (string, string, error) {
	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subjectPaymentSuccessful, body.String(), nil
}

func renderFailure(data notificationData) (string, string, error) {
	var body bytes.Buffer
	if err := failureTemplate.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subjectPaymentFailed, body.String(), nil
}
