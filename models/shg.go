package models

import "time"

// SHGStatus is the approval state of a Self-Help Group profile
type SHGStatus string

const (
	SHGPending  SHGStatus = "pending"
	SHGApproved SHGStatus = "approved"
	SHGRejected SHGStatus = "rejected"
)

// SHG represents a Self-Help Group profile owned by one shg-role user
type SHG struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	OwnerUserID        uint       `gorm:"uniqueIndex;not null" json:"ownerUserId"`
	Owner              User       `gorm:"foreignKey:OwnerUserID" json:"-"`
	ShgName            string     `gorm:"not null" json:"shgName"`
	Description        string     `gorm:"type:text" json:"description"`
	RegistrationNumber string     `gorm:"uniqueIndex;not null" json:"registrationNumber"`
	Rating             float64    `gorm:"not null;default:0" json:"rating"`
	Status             SHGStatus  `gorm:"not null;default:'pending';index" json:"status"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	ApprovedBy         *uint      `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time `json:"approvedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for the SHG model
func (SHG) TableName() string {
	return "shgs"
}

// Approved reports whether the SHG may take part in bidding
func (s SHG) Approved() bool {
	return s.Status == SHGApproved
}
