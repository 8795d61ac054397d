package models

import "time"

// TableStatus defines possible table states on the floor plan
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
	TableStatusCleaning  TableStatus = "cleaning"
)

// Table is a single table on the floor plan
type Table struct {
	ID        string      `json:"id"`
	Number    int         `json:"number"`
	SectionID string      `json:"sectionId"`
	Seats     int         `json:"seats"`
	Status    TableStatus `json:"status"`
	StaffID   string      `json:"staffId,omitempty"` // Assigned service staff
	OrderID   string      `json:"orderId,omitempty"` // Open order, if occupied
	UpdatedAt time.Time   `json:"updatedAt,omitempty"`
}

// FloorSection groups tables into a service area
type FloorSection struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tables []Table `json:"tables,omitempty"`
}

// FloorPlan is the full floor layout shared between devices
type FloorPlan struct {
	Sections  []FloorSection `json:"sections"`
	UpdatedAt time.Time      `json:"updatedAt,omitempty"`
}
