package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

func TestStaffDirectory_PlaintextPinIsHashedOnInsert(t *testing.T) {
	d := NewStaffDirectory()
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha", Pin: "4821", Active: true})

	member, ok := d.Get("st-1")
	require.True(t, ok)
	assert.Empty(t, member.Pin, "plaintext PIN must not survive the insert")
	assert.NotEmpty(t, member.PinHash)
	assert.NotEqual(t, "4821", member.PinHash)

	assert.True(t, d.VerifyPin("st-1", "4821"))
	assert.False(t, d.VerifyPin("st-1", "0000"))
}

func TestStaffDirectory_VerifyPinRejectsUnknownAndInactive(t *testing.T) {
	d := NewStaffDirectory()
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha", Pin: "4821", Active: false})

	assert.False(t, d.VerifyPin("st-1", "4821"), "inactive staff cannot authenticate")
	assert.False(t, d.VerifyPin("no-such-member", "4821"))

	// No credentials stored at all
	d.Upsert(models.StaffMember{ID: "st-2", Name: "Ravi", Active: true})
	assert.False(t, d.VerifyPin("st-2", ""))
}

func TestStaffDirectory_RedactedUpdateKeepsCredentials(t *testing.T) {
	d := NewStaffDirectory()
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha", Pin: "4821", Active: true})

	// A record relayed by a peer arrives masked and hashless; it must
	// not wipe the local credentials
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha K", Pin: models.PinMask, Active: true})

	member, _ := d.Get("st-1")
	assert.Equal(t, "Asha K", member.Name)
	assert.True(t, d.VerifyPin("st-1", "4821"))
}

func TestStaffDirectory_ReplaceMergesCredentials(t *testing.T) {
	d := NewStaffDirectory()
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha", Pin: "4821", Active: true})

	d.Replace([]models.StaffMember{
		{ID: "st-1", Name: "Asha", Pin: models.PinMask, Active: true},
		{ID: "st-2", Name: "Ravi", Pin: "9090", Active: true},
	})

	assert.Equal(t, 2, d.Len())
	assert.True(t, d.VerifyPin("st-1", "4821"), "replace must keep the existing hash for masked records")
	assert.True(t, d.VerifyPin("st-2", "9090"))

	d.Replace(nil)
	assert.Equal(t, 0, d.Len())
}

func TestStaffDirectory_Remove(t *testing.T) {
	d := NewStaffDirectory()
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha", Pin: "4821", Active: true})

	d.Remove("st-1")
	assert.False(t, d.VerifyPin("st-1", "4821"))
	_, ok := d.Get("st-1")
	assert.False(t, ok)
}

func TestStaffDirectory_ListNeverExposesPlaintext(t *testing.T) {
	d := NewStaffDirectory()
	d.Upsert(models.StaffMember{ID: "st-1", Name: "Asha", Pin: "4821", Active: true})
	d.Upsert(models.StaffMember{ID: "st-2", Name: "Ravi", Pin: "9090", Active: true})

	for _, member := range d.List() {
		assert.Empty(t, member.Pin)
	}
}
