package invoice

import (
	"html/template"
	"io"

	"github.com/pkg/errors"
)

var page = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.TrackingNumber}} | {{.Brand}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;color:#111827;max-width:850px;margin:0 auto;padding:32px}
h1{color:#1e3a8a;text-transform:uppercase;margin:0}
.bar{background:#0284c7;color:#fff;padding:16px;font-family:monospace;font-size:22px}
.grid{display:flex;gap:24px;margin:24px 0}
.card{flex:1;border:1px solid #f3f4f6;border-radius:12px;padding:16px}
table{width:100%;border-collapse:collapse}
th,td{padding:10px;border-bottom:1px solid #f3f4f6;text-align:left}
.num{text-align:right;font-family:monospace}
.warn{color:#b45309}
</style>
</head>
<body>
<header>
<h1>{{.Brand}}</h1>
<p>Receipt generated {{.GeneratedOn}}</p>
</header>
<div class="bar">Tracking Number: {{.TrackingNumber}}</div>
<div class="grid">
<div class="card"><h3>Sender Details</h3><p><b>{{.Sender.Name}}</b></p><p>{{.Sender.Address}}</p><p>{{.Sender.Contact}}</p></div>
<div class="card"><h3>Receiver Details</h3><p><b>{{.Receiver.Name}}</b></p><p>{{.Receiver.Address}}</p><p>{{.Receiver.Contact}}</p></div>
<div class="card"><h3>Shipment Info</h3>
<p>Service Type: {{.ServiceMode}}</p>
<p>Total Weight: {{.Weight}}</p>
<p>Date: {{.ShipmentDate}}</p>
<p>Payment: {{.PaymentStatus}}</p>
</div>
</div>
<table>
<thead><tr><th>Description</th><th>Type</th><th class="num">Shipping</th><th class="num">Tax/Fees</th><th class="num">Total</th></tr></thead>
<tbody><tr>
<td>{{.Item.Service}}<br><small>{{.Item.Description}}</small></td>
<td>{{.Item.Type}}</td>
<td class="num">{{.Item.Shipping}}</td>
<td class="num">{{.Item.Tax}}</td>
<td class="num">{{.Item.Total}}</td>
</tr></tbody>
</table>
<h3>Payment Summary</h3>
<table>
<tr><td>Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
<tr><td>Tax &amp; Fees</td><td class="num">{{.Tax}}</td></tr>
<tr><td>Insurance</td><td class="num">{{.Insurance}}</td></tr>
<tr><th>Total</th><th class="num" id="total">{{.Total}}</th></tr>
</table>
{{if not .Reconciled}}<p class="warn">Stored total differs from the sum of its components.</p>{{end}}
</body>
</html>
`))

func Render(w io.Writer, v View) error {
	return errors.Wrap(page.Execute(w, v), "render invoice")
}
