package models

import "time"

// ServiceRequestStatus defines the lifecycle of a guest service request
type ServiceRequestStatus string

const (
	ServiceRequestOpen         ServiceRequestStatus = "open"
	ServiceRequestAcknowledged ServiceRequestStatus = "acknowledged"
	ServiceRequestResolved     ServiceRequestStatus = "resolved"
)

// ServiceRequest is a guest call for service (water, bill, assistance)
// raised from a table, usually via the QR ordering page
type ServiceRequest struct {
	ID          string               `json:"id"`
	TableNumber int                  `json:"tableNumber"`
	Kind        string               `json:"kind"` // water | bill | assistance | custom
	Note        string               `json:"note,omitempty"`
	Status      ServiceRequestStatus `json:"status"`
	StaffID     string               `json:"staffId,omitempty"` // Who acknowledged/resolved it
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt,omitempty"`
}
