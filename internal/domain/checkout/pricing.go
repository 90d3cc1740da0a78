// internal/domain/checkout/pricing.go
package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/catalog"
)

// Flat demo shipping rates in minor currency units
const (
	standardShippingCost = 500
	expressShippingCost  = 1500
)

// Fulfillment option ids
const (
	OptionIDStandard = "standard"
	OptionIDExpress  = "express"
	OptionIDDigital  = "digital"
)

// taxableState gets a flat 10% rate; everywhere else is untaxed in this demo
const taxableState = "CA"

// NewLineItem builds a priced line item from a product and quantity. Discount
// and item-level tax are always zero here; the fields are reserved.
func NewLineItem(product *catalog.Product, quantity int) LineItem {
	base := product.UnitPrice * int64(quantity)
	var discount int64 = 0
	subtotal := base - discount
	var tax int64 = 0
	return LineItem{
		ID:               "li_" + uuid.NewString(),
		ProductID:        product.ID,
		Quantity:         quantity,
		RequiresShipping: product.RequiresShipping,
		BaseAmount:       base,
		Discount:         discount,
		Subtotal:         subtotal,
		Tax:              tax,
		Total:            subtotal + tax,
	}
}

// taxFor applies the demo tax rule: flat 10% of the taxable amount when the
// fulfillment address is in CA, zero otherwise. Rounded half-up.
func taxFor(address Address, hasAddress bool, taxable int64) int64 {
	if !hasAddress || address.State != taxableState {
		return 0
	}
	return (taxable*10 + 50) / 100
}

// FulfillmentOptionsFor regenerates the option list from the current shipping
// requirement and address. Shipping carts without an address get no options,
// which forces the session to stay not_ready_for_payment.
func FulfillmentOptionsFor(requiresShipping, hasAddress bool, address Address, now time.Time) []FulfillmentOption {
	if !requiresShipping {
		return []FulfillmentOption{
			{
				Type:     FulfillmentOptionDigital,
				ID:       OptionIDDigital,
				Title:    "Digital Delivery",
				Subtitle: "Delivered instantly by email",
				Subtotal: 0,
				Tax:      0,
				Total:    0,
			},
		}
	}

	if !hasAddress {
		return nil
	}

	standardEarliest := addBusinessDays(now, 4)
	standardLatest := addBusinessDays(now, 5)
	expressEarliest := addBusinessDays(now, 1)
	expressLatest := addBusinessDays(now, 2)

	standardTax := taxFor(address, hasAddress, standardShippingCost)
	expressTax := taxFor(address, hasAddress, expressShippingCost)

	return []FulfillmentOption{
		{
			Type:                 FulfillmentOptionShipping,
			ID:                   OptionIDStandard,
			Title:                "Standard Shipping",
			Subtitle:             "4-5 business days",
			Carrier:              "USPS",
			EarliestDeliveryTime: &standardEarliest,
			LatestDeliveryTime:   &standardLatest,
			Subtotal:             standardShippingCost,
			Tax:                  standardTax,
			Total:                standardShippingCost + standardTax,
		},
		{
			Type:                 FulfillmentOptionShipping,
			ID:                   OptionIDExpress,
			Title:                "Express Shipping",
			Subtitle:             "1-2 business days",
			Carrier:              "FedEx",
			EarliestDeliveryTime: &expressEarliest,
			LatestDeliveryTime:   &expressLatest,
			Subtotal:             expressShippingCost,
			Tax:                  expressTax,
			Total:                expressShippingCost + expressTax,
		},
	}
}

// ComputeTotals derives the sparse order-level totals array. Entries for
// discount, fulfillment, and tax are omitted entirely when zero.
func ComputeTotals(items []LineItem, selected *FulfillmentOption, address Address, hasAddress bool) []Total {
	var itemsBase, itemsDiscount, subtotal int64
	for _, item := range items {
		itemsBase += item.BaseAmount
		itemsDiscount += item.Discount
		subtotal += item.Subtotal
	}

	var fulfillment int64
	if selected != nil {
		fulfillment = selected.Subtotal
	}

	tax := taxFor(address, hasAddress, subtotal+fulfillment)
	total := subtotal + fulfillment + tax

	totals := []Total{
		{Type: TotalTypeItemsBaseAmount, DisplayText: "Items", Amount: itemsBase},
	}
	if itemsDiscount != 0 {
		totals = append(totals, Total{Type: TotalTypeItemsDiscount, DisplayText: "Discount", Amount: itemsDiscount})
	}
	totals = append(totals, Total{Type: TotalTypeSubtotal, DisplayText: "Subtotal", Amount: subtotal})
	if fulfillment != 0 {
		totals = append(totals, Total{Type: TotalTypeFulfillment, DisplayText: "Shipping", Amount: fulfillment})
	}
	if tax != 0 {
		totals = append(totals, Total{Type: TotalTypeTax, DisplayText: "Tax", Amount: tax})
	}
	totals = append(totals, Total{Type: TotalTypeTotal, DisplayText: "Total", Amount: total})

	return totals
}

// TotalAmount extracts the final total entry from a totals array
func TotalAmount(totals []Total) int64 {
	for _, t := range totals {
		if t.Type == TotalTypeTotal {
			return t.Amount
		}
	}
	return 0
}

// SubtotalAmount extracts the subtotal entry from a totals array
func SubtotalAmount(totals []Total) int64 {
	for _, t := range totals {
		if t.Type == TotalTypeSubtotal {
			return t.Amount
		}
	}
	return 0
}

// addBusinessDays advances the date by n business days, skipping weekends
func addBusinessDays(from time.Time, n int) time.Time {
	t := from
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			added++
		}
	}
	return t
}

// invalidItemMessage builds the structured message for an unresolvable item
func invalidItemMessage(index int, itemID string) Message {
	return Message{
		Type:    MessageTypeError,
		Code:    "invalid",
		Param:   fmt.Sprintf("$.items[%d].id", index),
		Content: fmt.Sprintf("Item %q could not be found.", itemID),
	}
}

// outOfStockMessage builds the structured message for an unavailable quantity
func outOfStockMessage(index int, itemID string) Message {
	return Message{
		Type:    MessageTypeError,
		Code:    "out_of_stock",
		Param:   fmt.Sprintf("$.items[%d].quantity", index),
		Content: fmt.Sprintf("Item %q is not available in the requested quantity.", itemID),
	}
}
