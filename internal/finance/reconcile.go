// Package finance derives the display-side financial breakdown of a
// fulfillment unit. Everything here is a pure read projection: persisted
// amounts are never corrected, a mismatch is surfaced as-is.
package finance

import (
	"github.com/shopspring/decimal"

	"fulfillment/internal/identity"
	"fulfillment/internal/models"
	"fulfillment/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the reconciled totals of one fulfillment unit.
type Breakdown struct {
	SubtotalBase decimal.Decimal `json:"subtotal_base"`
	Shipping     decimal.Decimal `json:"shipping"`
	Packing      decimal.Decimal `json:"packing"`
	VAT          decimal.Decimal `json:"vat"`
	// VATRate is the actual rate implied by the stored amounts, in percent.
	// The source system hard-labeled this "5%"; the real ratio is reported
	// instead because the stored amounts are authoritative.
	VATRate    decimal.Decimal `json:"vat_rate"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	// VendorReceivable is set only for units owned by a real vendor.
	VendorReceivable *decimal.Decimal `json:"vendor_receivable,omitempty"`
}

// Reconcile derives the breakdown from the persisted unit state. The subtotal
// is derived from the total and its components rather than stored separately,
// so the two can never drift.
func Reconcile(f models.Fulfillment, vendor models.Vendor) Breakdown {
	subtotal := f.TotalAmount.Sub(f.VATAmount).Sub(f.TotalShipping).Sub(f.TotalPacking)
	b := Breakdown{
		SubtotalBase: subtotal,
		Shipping:     f.TotalShipping,
		Packing:      f.TotalPacking,
		VAT:          f.VATAmount,
		GrandTotal:   f.TotalAmount,
	}
	if subtotal.IsPositive() {
		b.VATRate = f.VATAmount.Div(subtotal).Mul(hundred).Round(2)
	}
	if !vendor.IsPlatform() {
		receivable := f.TotalAmount.Sub(f.AdminCommission)
		b.VendorReceivable = &receivable
	}
	return b
}

// LineView is the role-dependent presentation of one order line.
type LineView struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	// PlatformFee is the per-unit markup over the vendor's base price. Hidden
	// from vendors and omitted entirely when the commission is not positive.
	PlatformFee *decimal.Decimal `json:"platform_fee,omitempty"`
	LineTotal   decimal.Decimal  `json:"line_total"`
}

// LineViews renders order lines for a role. Vendors are shown their base
// price and base-price line totals; the platform markup never appears in
// anything a vendor reads.
func LineViews(items []models.OrderItem, role identity.Role) []LineView {
	views := make([]LineView, 0, len(items))
	for _, item := range items {
		v := LineView{ProductName: item.ProductName, Quantity: item.Quantity}
		if role == identity.RoleVendor {
			v.UnitPrice = item.BasePrice
			v.LineTotal = money.LineTotal(item.Quantity, item.BasePrice)
		} else {
			v.UnitPrice = item.Price
			v.LineTotal = money.LineTotal(item.Quantity, item.Price)
			if fee := item.Price.Sub(item.BasePrice); fee.IsPositive() {
				v.PlatformFee = &fee
			}
		}
		views = append(views, v)
	}
	return views
}
