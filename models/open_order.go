package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenOrderStatus is the lifecycle state of a customer requirement
type OpenOrderStatus string

const (
	OpenOrderOpen      OpenOrderStatus = "open"
	OpenOrderAssigned  OpenOrderStatus = "assigned"
	OpenOrderCompleted OpenOrderStatus = "completed"
	OpenOrderCancelled OpenOrderStatus = "cancelled"
)

// transitions lists the forward moves allowed from each status.
// An assigned request has a live fulfillment order and can no longer be cancelled.
var transitions = map[OpenOrderStatus][]OpenOrderStatus{
	OpenOrderOpen:     {OpenOrderAssigned, OpenOrderCancelled},
	OpenOrderAssigned: {OpenOrderCompleted},
}

// CanTransition reports whether a request may move from s to next
func (s OpenOrderStatus) CanTransition(next OpenOrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BidStatus is the resolution state of a bid
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// OpenOrder represents a customer-posted requirement open to SHG bids
type OpenOrder struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CustomerID    uint            `gorm:"not null;index" json:"customerId"`
	Customer      *UserSummary    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Title         string          `gorm:"not null" json:"title"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Category      string          `gorm:"not null" json:"category"`
	ExpectedPrice float64         `gorm:"not null;check:expected_price > 0" json:"expectedPrice"`
	Quantity      string          `gorm:"not null" json:"quantity"`
	Status        OpenOrderStatus `gorm:"not null;default:'open';index" json:"status"`
	Version       int             `gorm:"not null;default:1" json:"-"` // bumped on every state change
	Bids          []Bid           `gorm:"foreignKey:OpenOrderID" json:"bids"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for the OpenOrder model
func (OpenOrder) TableName() string {
	return "open_orders"
}

// BeforeCreate assigns a uuid when the caller did not
func (o *OpenOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// FindBid returns the bid with the given id, if it belongs to this request
func (o *OpenOrder) FindBid(bidID string) (*Bid, bool) {
	for i := range o.Bids {
		if o.Bids[i].ID == bidID {
			return &o.Bids[i], true
		}
	}
	return nil, false
}

// Bid represents one SHG's offer against an OpenOrder.
// (open_order_id, shg_id) is unique so an SHG can hold at most one bid per request.
type Bid struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OpenOrderID string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_bid_order_shg" json:"openOrderId"`
	ShgID       uint        `gorm:"not null;uniqueIndex:idx_bid_order_shg" json:"shgId"`
	SHG         *SHGSummary `gorm:"foreignKey:ShgID" json:"shg,omitempty"`
	Message     string      `gorm:"type:text;not null" json:"message"`
	Price       float64     `gorm:"not null;check:price > 0" json:"price"`
	Status      BidStatus   `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// TableName specifies the table name for the Bid model
func (Bid) TableName() string {
	return "bids"
}

// BeforeCreate assigns a uuid when the caller did not
func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// UserSummary is the public face of a requester shown next to their requests
type UserSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TableName maps UserSummary onto the users table
func (UserSummary) TableName() string {
	return "users"
}

// SHGSummary is the public face of a bidding SHG shown next to its bids
type SHGSummary struct {
	ID      uint    `json:"id"`
	ShgName string  `json:"shgName"`
	Rating  float64 `json:"rating"`
}

// TableName maps SHGSummary onto the shgs table
func (SHGSummary) TableName() string {
	return "shgs"
}
