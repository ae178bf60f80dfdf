package services

import (
	"strings"

	"github.com/kendall-kelly/shg-marketplace-api/models"
)

const (
	openOrderCodePrefix = "OPEN-"
	orderCodeSuffixLen  = 8
	defaultCountry      = "India"
)

// CustomerContact is what is known about the requesting customer at acceptance time
type CustomerContact struct {
	Name  string
	Phone string
}

// OrderCode derives the support-facing code of the order materialized from a request,
// e.g. OPEN-9F3A21C7 for a request id ending in 9f3a21c7.
func OrderCode(requestID string) string {
	compact := strings.ReplaceAll(requestID, "-", "")
	if len(compact) > orderCodeSuffixLen {
		compact = compact[len(compact)-orderCodeSuffixLen:]
	}
	return openOrderCodePrefix + strings.ToUpper(compact)
}

// Materialize maps an accepted bid onto a standard fulfillment order.
// Open orders carry no structured address, so the snapshot is marked unknown
// and only the contact name and phone are filled in.
// No inventory is touched: open order items are not drawn from tracked stock.
func Materialize(order *models.OpenOrder, bid models.Bid, contact CustomerContact) models.FulfillmentOrder {
	return models.FulfillmentOrder{
		OrderCode:   OrderCode(order.ID),
		OpenOrderID: order.ID,
		BidID:       bid.ID,
		CustomerID:  order.CustomerID,
		ShgID:       bid.ShgID,
		Item: models.LineItem{
			Name:     order.Title,
			Price:    bid.Price,
			Quantity: 1, // the whole requirement is one line
		},
		ShippingAddress: models.ShippingAddress{
			Name:    contact.Name,
			Phone:   contact.Phone,
			Country: defaultCountry,
			Status:  models.AddressUnknown,
		},
		TotalAmount:   bid.Price,
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.FulfillmentAccepted,
	}
}
