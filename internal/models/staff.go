package models

import "time"

// PinMask replaces PIN values in anything that leaves this device.
// Staff broadcasts must never carry a real PIN or its hash.
const PinMask = "****"

// StaffRole defines staff permission levels
type StaffRole string

const (
	StaffRoleManager StaffRole = "manager"
	StaffRoleWaiter  StaffRole = "waiter"
	StaffRoleKitchen StaffRole = "kitchen"
	StaffRoleCashier StaffRole = "cashier"
)

// StaffMember is a staff record shared between devices
type StaffMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      StaffRole `json:"role"`
	Pin       string    `json:"pin,omitempty"`
	PinHash   string    `json:"pinHash,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Redacted returns a copy safe for broadcast: the PIN is masked and the
// hash is dropped entirely.
func (s StaffMember) Redacted() StaffMember {
	out := s
	if out.Pin != "" {
		out.Pin = PinMask
	}
	out.PinHash = ""
	return out
}

// RedactStaff masks PINs on a whole staff list
func RedactStaff(staff []StaffMember) []StaffMember {
	out := make([]StaffMember, len(staff))
	for i, s := range staff {
		out[i] = s.Redacted()
	}
	return out
}
