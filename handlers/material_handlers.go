package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"p9e.in/siteops/config"
	"p9e.in/siteops/middleware"
	"p9e.in/siteops/models"
	"p9e.in/siteops/pkg/anomaly"
)

// CreateMaterialRequest records a material requisition. The anomaly
// detector annotates the request against the 7-day history for the same
// material; the annotation is advisory and never blocks creation.
func CreateMaterialRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID       string   `json:"projectId"`
		MaterialID      string   `json:"materialId"`
		Description     string   `json:"description"`
		Quantity        float64  `json:"quantity"`
		Unit            string   `json:"unit"`
		QuotationPhotos []string `json:"quotationPhotos"`
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
	if req.MaterialID == "" || req.Quantity <= 0 {
		http.Error(w, "materialId and a positive quantity are required", http.StatusBadRequest)
		return
	}

	result, err := anomaly.NewDetector(config.DB).Detect(req.MaterialID, req.Quantity, &projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var photos datatypes.JSON
	if req.QuotationPhotos != nil {
		raw, _ := json.Marshal(req.QuotationPhotos)
		photos = datatypes.JSON(raw)
	}

	request := models.MaterialRequest{
		ProjectID:       projectID,
		RequesterID:     middleware.GetUserID(r),
		MaterialID:      req.MaterialID,
		Description:     req.Description,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		QuotationPhotos: photos,
		Status:          models.MaterialRequestPending,
		IsAnomaly:       result.IsAnomaly,
		AnomalyReason:   result.Reason,
		AverageUsage:    result.AverageUsage,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if result.IsAnomaly {
		ns := NewNotificationService()
		ns.NotifyAll(ns.ProjectApproverIDs(projectID),
			models.NotificationAnomalyFlagged,
			"Unusual material quantity",
			fmt.Sprintf("Request for %s: %s", req.MaterialID, *result.Reason),
			map[string]interface{}{"requestId": request.ID.String()})
	}

	writeJSON(w, http.StatusCreated, request)
}

// ResolveMaterialRequest lets a purchase manager approve or reject a
// pending request.
func ResolveMaterialRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid request ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var request models.MaterialRequest
	if err := config.DB.First(&request, "id = ?", requestID).Error; err != nil {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	resolverID := middleware.GetUserID(r)
	if err := request.CheckResolve(resolverID); err != nil {
		writeError(w, err)
		return
	}

	status := models.MaterialRequestRejected
	if req.Approve {
		status = models.MaterialRequestApproved
	}

	now := time.Now()
	res := config.DB.Model(&models.MaterialRequest{}).
		Where("id = ? AND status = ?", requestID, models.MaterialRequestPending).
		Updates(map[string]interface{}{
			"status":         status,
			"resolved_by_id": resolverID,
			"resolved_at":    now,
		})
	if res.Error != nil {
		http.Error(w, res.Error.Error(), http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "request already resolved or not found", http.StatusConflict)
		return
	}

	if err := config.DB.First(&request, "id = ?", requestID).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// ListMaterialRequests returns requests filtered by project, material and
// status.
func ListMaterialRequests(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.MaterialRequest{}).Preload("Requester")
	if p := r.URL.Query().Get("project_id"); p != "" {
		projectID, err := uuid.Parse(p)
		if err != nil {
			http.Error(w, "invalid project ID", http.StatusBadRequest)
			return
		}
		q = q.Where("project_id = ?", projectID)
	}
	if m := r.URL.Query().Get("material_id"); m != "" {
		q = q.Where("material_id = ?", m)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	var requests []models.MaterialRequest
	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}
