package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus tracks payment collection for a fulfillment order
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// FulfillmentStatus is the delivery progress of a fulfillment order
type FulfillmentStatus string

const (
	FulfillmentPlaced     FulfillmentStatus = "placed"
	FulfillmentAccepted   FulfillmentStatus = "accepted"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
)

// AddressStatus tells downstream fulfillment whether the shipping address can be used as is
type AddressStatus string

const (
	AddressKnown   AddressStatus = "known"
	AddressUnknown AddressStatus = "unknown" // must be collected from the customer before dispatch
)

// LineItem is a single priced line of a fulfillment order
type LineItem struct {
	Name     string  `gorm:"not null" json:"name"`
	Price    float64 `gorm:"not null" json:"price"`
	Quantity int     `gorm:"not null;check:item_quantity > 0" json:"quantity"`
}

// ShippingAddress is the delivery snapshot taken when the order was created
type ShippingAddress struct {
	Name    string        `json:"name"`
	Phone   string        `json:"phone"`
	Street  string        `json:"street"`
	City    string        `json:"city"`
	State   string        `json:"state"`
	Pincode string        `json:"pincode"`
	Country string        `json:"country"`
	Status  AddressStatus `gorm:"not null;default:'unknown'" json:"status"`
}

// FulfillmentOrder is a standard order synthesized from an accepted bid.
// OpenOrderID and BidID are unique so a request materializes at most once.
type FulfillmentOrder struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderCode       string            `gorm:"uniqueIndex;not null" json:"orderCode"`
	OpenOrderID     string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"openOrderId"`
	BidID           string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"bidId"`
	CustomerID      uint              `gorm:"not null;index" json:"customerId"`
	ShgID           uint              `gorm:"not null;index" json:"shgId"`
	Item            LineItem          `gorm:"embedded;embeddedPrefix:item_" json:"item"`
	ShippingAddress ShippingAddress   `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	TotalAmount     float64           `gorm:"not null;check:total_amount >= 0" json:"totalAmount"`
	PaymentStatus   PaymentStatus     `gorm:"not null;default:'pending'" json:"paymentStatus"`
	OrderStatus     FulfillmentStatus `gorm:"not null;default:'placed'" json:"orderStatus"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// TableName specifies the table name for the FulfillmentOrder model
func (FulfillmentOrder) TableName() string {
	return "fulfillment_orders"
}

// BeforeCreate assigns a uuid when the caller did not
func (o *FulfillmentOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
