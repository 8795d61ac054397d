package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/suyeshs/hands-free-sub005/internal/buildinfo"
	syncsvc "github.com/suyeshs/hands-free-sub005/internal/sync"
)

// Router wraps the mux router and the sync service
type Router struct {
	*mux.Router
	svc      *syncsvc.Service
	tenantID string
}

// NewRouter creates the local HTTP surface: health, sync status and
// table QR codes
func NewRouter(svc *syncsvc.Service, tenantID string) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		svc:      svc,
		tenantID: tenantID,
	}

	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/sync/status", r.syncStatus).Methods("GET")
	r.HandleFunc("/sync/orders", r.activeOrders).Methods("GET")
	r.HandleFunc("/staff/verify-pin", r.verifyStaffPin).Methods("POST")
	r.HandleFunc("/qr/table/{number}", r.tableQR).Methods("GET")

	return r
}

// healthCheck responds to liveness checks
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// syncStatus reports the aggregated connection status and active path
func (r *Router) syncStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.svc.GetDetailedStatus())
}

// activeOrders returns the in-memory active-order view
func (r *Router) activeOrders(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.svc.ActiveOrders())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
