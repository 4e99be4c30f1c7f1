package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"p9e.in/siteops/config"
	"p9e.in/siteops/middleware"
	"p9e.in/siteops/models"
)

// SubmitPettyCashExpense creates an expense at PENDING_PM_APPROVAL.
func SubmitPettyCashExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID   string   `json:"projectId"`
		Amount      float64  `json:"amount"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		ReceiptURL  *string  `json:"receiptUrl"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
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

	expense, err := NewPettyCashService().Submit(SubmitInput{
		ProjectID:   projectID,
		SubmitterID: middleware.GetUserID(r),
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		ReceiptURL:  req.ReceiptURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// ApprovePettyCashPM is the manager tier-1 approval.
func ApprovePettyCashPM(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	expense, err := NewPettyCashService().ApprovePM(expenseID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// ApprovePettyCashOwner is the owner tier-2 sign-off.
func ApprovePettyCashOwner(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	expense, err := NewPettyCashService().ApproveOwner(expenseID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// RejectPettyCash rejects from either pending tier, terminally.
func RejectPettyCash(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	expense, err := NewPettyCashService().Reject(expenseID, middleware.GetUserID(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// ListPettyCashExpenses returns expenses filtered by project and status.
// Submitters see their own; approvers see everything on the project.
func ListPettyCashExpenses(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.PettyCashExpense{}).Preload("Submitter")
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
	role := middleware.GetRole(r)
	if role != models.RoleManager && role != models.RoleOwner {
		q = q.Where("submitter_id = ?", middleware.GetUserID(r))
	}

	var expenses []models.PettyCashExpense
	if err := q.Order("created_at DESC").Find(&expenses).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}
