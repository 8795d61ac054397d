package handlers

import (
	"encoding/json"
	"net/http"
)

type verifyPinRequest struct {
	StaffID string `json:"staffId"`
	Pin     string `json:"pin"`
}

type verifyPinResponse struct {
	Valid bool              `json:"valid"`
	Staff *staffVerifiedRef `json:"staff,omitempty"`
}

type staffVerifiedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// verifyStaffPin checks a staff PIN against the synced roster. This is
// how a device unlocks manager actions locally; the PIN itself never
// crosses the sync transports.
func (r *Router) verifyStaffPin(w http.ResponseWriter, req *http.Request) {
	var body verifyPinRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.StaffID == "" || body.Pin == "" {
		http.Error(w, "staffId and pin are required", http.StatusBadRequest)
		return
	}

	staff := r.svc.Staff()
	if !staff.VerifyPin(body.StaffID, body.Pin) {
		writeJSON(w, http.StatusOK, verifyPinResponse{Valid: false})
		return
	}

	member, _ := staff.Get(body.StaffID)
	writeJSON(w, http.StatusOK, verifyPinResponse{
		Valid: true,
		Staff: &staffVerifiedRef{ID: member.ID, Name: member.Name, Role: string(member.Role)},
	})
}
