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

// RequestPermit creates a new PENDING permit-to-work.
func RequestPermit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID       string   `json:"projectId"`
		TaskDescription string   `json:"taskDescription"`
		HazardType      string   `json:"hazardType"`
		SafetyMeasures  []string `json:"safetyMeasures"`
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

	permit, err := NewPermitService().Request(projectID, middleware.GetUserID(r),
		req.TaskDescription, req.HazardType, req.SafetyMeasures)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, permit)
}

// ApprovePermit issues the one-time code. Only managers and owners hold
// the approval capability; the route is role-gated accordingly, and the
// service enforces approver != requester.
func ApprovePermit(w http.ResponseWriter, r *http.Request) {
	permitID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid permit ID", http.StatusBadRequest)
		return
	}

	permit, err := NewPermitService().Approve(permitID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permit)
}

// VerifyPermitCode is the requester submitting their one-time code to
// start work.
func VerifyPermitCode(w http.ResponseWriter, r *http.Request) {
	permitID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid permit ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	permit, err := NewPermitService().VerifyCode(permitID, middleware.GetUserID(r), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permit)
}

// GetPermit returns one permit. The OTP fields are excluded from
// serialization at the model level.
func GetPermit(w http.ResponseWriter, r *http.Request) {
	permitID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid permit ID", http.StatusBadRequest)
		return
	}

	var permit models.Permit
	if err := config.DB.Preload("Requester").First(&permit, "id = ?", permitID).Error; err != nil {
		http.Error(w, "permit not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, permit)
}

// ListPermits returns permits, optionally filtered by project and status.
func ListPermits(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.Permit{})
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
	// Engineers see their own permits; approvers see the project's.
	if middleware.GetRole(r) == models.RoleEngineer {
		q = q.Where("requester_id = ?", middleware.GetUserID(r))
	}

	var permits []models.Permit
	if err := q.Order("created_at DESC").Find(&permits).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, permits)
}
