// Package receipt renders a bill as the 58mm printable document the POS
// hands to the thermal printer. The kitchen ticket variant omits amounts.
package receipt

import (
	"html/template"
	"strings"
	"time"

	"tandoor-system/internal/database/models"
)

const receiptTemplate = `<html>
<head>
<title>Bill - {{.MobileLastDigit}}</title>
<style>
body { font-family: monospace; font-size: 10px; margin: 5px; width: 58mm; line-height: 1.2; }
.header { text-align: center; margin-bottom: 8px; }
.header h2 { margin: 2px 0; font-size: 14px; font-weight: bold; }
.header p { margin: 1px 0; font-size: 9px; }
.bill-details { margin: 5px 0; font-size: 9px; }
.bill-details p { margin: 1px 0; }
.items-table { width: 100%; border-collapse: collapse; font-size: 9px; margin: 5px 0; }
.items-table th { text-align: left; padding: 1px 2px; border-bottom: 1px solid #000; font-weight: bold; }
.items-table td { text-align: left; padding: 1px 2px; }
.total { font-weight: bold; font-size: 10px; text-align: right; margin: 5px 0; }
.separator { border-top: 1px dashed #000; margin: 5px 0; }
.thank-you { text-align: center; margin-top: 8px; font-size: 9px; font-weight: bold; }
</style>
</head>
<body>
<div class="header">
<h2>JAF HOT CHICKEN</h2>
<p>57K, SENTHIL COMPLEX, TENKASI</p>
<p>TAMIL NADU 627811</p>
<p>Phone: +91 88385 14326</p>
</div>
<div class="separator"></div>
<div class="bill-details">
<p>Invoice Date: {{.Date}}</p>
<p>Customer Name: {{.CustomerName}}</p>
<p>Cust Mobile No: ***{{.MobileLastDigit}}</p>
</div>
<div class="separator"></div>
<table class="items-table">
<thead>
<tr><th>Sl</th><th>Product</th>{{if .ShowAmounts}}<th>Price</th>{{end}}<th>Qty</th>{{if .ShowAmounts}}<th>Amt</th>{{end}}</tr>
</thead>
<tbody>
{{range .Items}}<tr><td>{{.Index}}</td><td>{{.Name}}</td>{{if $.ShowAmounts}}<td>{{.Price}}</td>{{end}}<td>{{.Quantity}}</td>{{if $.ShowAmounts}}<td>{{.Total}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
<div class="separator"></div>
{{if .ShowAmounts}}<div class="total">
<p>Net Payable: &#8377;{{.Total}}</p>
{{if .PaymentMode}}<p>Payment Mode: {{.PaymentMode}}</p>{{end}}
</div>
<div class="separator"></div>
{{end}}<div class="thank-you">
<p>THANK YOU, VISIT US AGAIN!</p>
</div>
</body>
</html>
`

var tmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

type itemView struct {
	Index    int
	Name     string
	Price    string
	Quantity int
	Total    string
}

type billView struct {
	MobileLastDigit string
	CustomerName    string
	Date            string
	Items           []itemView
	Total           string
	PaymentMode     string
	ShowAmounts     bool
}

// Render produces the printable document for a bill. With showAmounts off it
// is the kitchen ticket: items and quantities only.
func Render(bill models.Bill, showAmounts bool) (string, error) {
	customer := "Walk-in Customer"
	if bill.CustomerName != nil && *bill.CustomerName != "" {
		customer = *bill.CustomerName
	}

	date := bill.CreatedAt
	if date.IsZero() {
		date = time.Now()
	}

	items := make([]itemView, 0, len(bill.BillItems))
	for i, it := range bill.BillItems {
		items = append(items, itemView{
			Index:    i + 1,
			Name:     it.FoodItemName,
			Price:    it.Price.StringFixed(2),
			Quantity: it.Quantity,
			Total:    it.Total.StringFixed(2),
		})
	}

	mode := ""
	if bill.PaymentMode != nil {
		mode = strings.ToUpper(*bill.PaymentMode)
	}

	view := billView{
		MobileLastDigit: bill.MobileLastDigit,
		CustomerName:    customer,
		Date:            date.Format("02/01/2006"),
		Items:           items,
		Total:           bill.Total.StringFixed(2),
		PaymentMode:     mode,
		ShowAmounts:     showAmounts,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}
