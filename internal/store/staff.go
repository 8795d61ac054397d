package store

import (
	"sync"

	"github.com/suyeshs/hands-free-sub005/internal/models"
	"github.com/suyeshs/hands-free-sub005/internal/utils"
)

// StaffDirectory is the in-memory staff roster every device keeps.
// Plaintext PINs never survive an insert: they are bcrypt-hashed on the
// way in, and verification only ever compares against the hash.
type StaffDirectory struct {
	mu    sync.RWMutex
	staff map[string]models.StaffMember
}

// NewStaffDirectory creates an empty directory
func NewStaffDirectory() *StaffDirectory {
	return &StaffDirectory{
		staff: make(map[string]models.StaffMember),
	}
}

// Upsert inserts or replaces a staff record. A plaintext PIN is hashed
// and dropped; a redacted record (masked PIN, no hash) keeps whatever
// hash the directory already holds for that member.
func (d *StaffDirectory) Upsert(member models.StaffMember) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.upsertLocked(member)
}

func (d *StaffDirectory) upsertLocked(member models.StaffMember) {
	if member.Pin != "" && member.Pin != models.PinMask {
		if hash, err := utils.HashPin(member.Pin); err == nil {
			member.PinHash = hash
		}
	}
	member.Pin = ""
	if member.PinHash == "" {
		if prev, ok := d.staff[member.ID]; ok {
			member.PinHash = prev.PinHash
		}
	}
	d.staff[member.ID] = member
}

// Replace swaps in a full staff list
func (d *StaffDirectory) Replace(staff []models.StaffMember) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.staff
	d.staff = make(map[string]models.StaffMember, len(staff))
	for _, member := range staff {
		if old, ok := prev[member.ID]; ok && member.PinHash == "" && (member.Pin == "" || member.Pin == models.PinMask) {
			member.PinHash = old.PinHash
		}
		d.upsertLocked(member)
	}
}

// Remove deletes a staff member
func (d *StaffDirectory) Remove(staffID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.staff, staffID)
}

// Get looks up one staff member
func (d *StaffDirectory) Get(staffID string) (models.StaffMember, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	member, ok := d.staff[staffID]
	return member, ok
}

// List returns all staff records, PINs already stripped
func (d *StaffDirectory) List() []models.StaffMember {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.StaffMember, 0, len(d.staff))
	for _, member := range d.staff {
		out = append(out, member)
	}
	return out
}

// VerifyPin checks a PIN against the stored hash. Unknown members,
// inactive members and members without a stored hash always fail.
func (d *StaffDirectory) VerifyPin(staffID, pin string) bool {
	d.mu.RLock()
	member, ok := d.staff[staffID]
	d.mu.RUnlock()

	if !ok || !member.Active || member.PinHash == "" {
		return false
	}
	return utils.CheckPinHash(pin, member.PinHash)
}

// Len returns the number of staff records
func (d *StaffDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.staff)
}

// Clear drops all records
func (d *StaffDirectory) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.staff = make(map[string]models.StaffMember)
}
