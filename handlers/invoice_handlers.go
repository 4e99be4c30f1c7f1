package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"p9e.in/siteops/config"
	"p9e.in/siteops/middleware"
	"p9e.in/siteops/models"
)

// GenerateInvoice builds a weekly invoice for the calling contractor.
func GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"projectId"`
		WeekStart string `json:"weekStart"` // YYYY-MM-DD
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		http.Error(w, "invalid project ID", http.StatusBadRequest)
		return
	}
	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		http.Error(w, "invalid weekStart, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	invoice, err := NewInvoiceService().Generate(middleware.GetUserID(r), projectID, weekStart)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

// ApproveInvoice is the manager approval, triggering document generation
// and distribution.
func ApproveInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice ID", http.StatusBadRequest)
		return
	}

	invoice, err := NewInvoiceService().Approve(invoiceID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// RejectInvoice rejects a pending invoice with a reason.
func RejectInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	invoice, err := NewInvoiceService().Reject(invoiceID, middleware.GetUserID(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// UploadInvoiceDocument lets the contractor attach a manually prepared
// billing document to their own invoice.
func UploadInvoiceDocument(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice ID", http.StatusBadRequest)
		return
	}

	var req struct {
		DocumentURL string `json:"documentUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	invoice, err := NewInvoiceService().AttachUploadedDocument(invoiceID, middleware.GetUserID(r), req.DocumentURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// ListInvoices returns invoices scoped by the caller's role: contractors
// see their own, owners see owner-visible ones, managers see all on the
// project.
func ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.ContractorInvoice{}).Preload("Contractor")
	if p := r.URL.Query().Get("project_id"); p != "" {
		projectID, err := uuid.Parse(p)
		if err != nil {
			http.Error(w, "invalid project ID", http.StatusBadRequest)
			return
		}
		q = q.Where("project_id = ?", projectID)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	switch middleware.GetRole(r) {
	case models.RoleContractor:
		q = q.Where("contractor_id = ?", middleware.GetUserID(r))
	case models.RoleOwner:
		q = q.Where("visible_to_owner = ?", true)
	}

	var invoices []models.ContractorInvoice
	if err := q.Order("created_at DESC").Find(&invoices).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice returns a single invoice.
func GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice ID", http.StatusBadRequest)
		return
	}

	var invoice models.ContractorInvoice
	if err := config.DB.Preload("Contractor").First(&invoice, "id = ?", invoiceID).Error; err != nil {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}
