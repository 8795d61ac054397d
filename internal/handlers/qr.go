package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"
)

// qrOrderBase is where the guest ordering page lives; the table QR code
// points a phone at it with the tenant and table baked in
const qrOrderBase = "https://order.handsfreepos.com"

// tableQR renders the QR code guests scan to order from a table
func (r *Router) tableQR(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	number, err := strconv.Atoi(vars["number"])
	if err != nil || number <= 0 {
		http.Error(w, "invalid table number", http.StatusBadRequest)
		return
	}

	url := fmt.Sprintf("%s/t/%s/%d", qrOrderBase, r.tenantID, number)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
