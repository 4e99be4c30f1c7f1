package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"p9e.in/siteops/config"
	"p9e.in/siteops/middleware"
	"p9e.in/siteops/models"
	"p9e.in/siteops/utils"
)

// RecordAttendance ingests one labour attendance event. The geofence flag
// is computed against the project fence when coordinates are provided; a
// project without a fence leaves the record valid (unvalidated).
func RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID      string   `json:"projectId"`
		LabourWorkerID string   `json:"labourWorkerId"`
		AttendanceDate string   `json:"attendanceDate"` // YYYY-MM-DD
		Present        bool     `json:"present"`
		FaceMatched    bool     `json:"faceMatched"`
		Latitude       *float64 `json:"latitude"`
		Longitude      *float64 `json:"longitude"`
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
	workerID, err := uuid.Parse(req.LabourWorkerID)
	if err != nil {
		http.Error(w, "invalid labour worker ID", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.AttendanceDate)
	if err != nil {
		http.Error(w, "invalid attendanceDate, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	record := models.LabourAttendanceRecord{
		ContractorID:   middleware.GetUserID(r),
		LabourWorkerID: workerID,
		ProjectID:      projectID,
		AttendanceDate: date,
		Present:        req.Present,
		FaceMatched:    req.FaceMatched,
		GeofenceValid:  true,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}

	if req.Latitude != nil && req.Longitude != nil {
		var project models.Project
		if err := config.DB.First(&project, "id = ?", projectID).Error; err != nil {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		result, err := utils.ValidateGeofence(*req.Latitude, *req.Longitude, project.GeoFence)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if result.Status != utils.GeofenceUnvalidated {
			record.GeofenceValid = !result.Violation
		}
	}

	if err := config.DB.Create(&record).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// ListAttendance returns a contractor's attendance records for a project
// and optional date window.
func ListAttendance(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.LabourAttendanceRecord{})
	if p := r.URL.Query().Get("project_id"); p != "" {
		projectID, err := uuid.Parse(p)
		if err != nil {
			http.Error(w, "invalid project ID", http.StatusBadRequest)
			return
		}
		q = q.Where("project_id = ?", projectID)
	}
	if middleware.GetRole(r) == models.RoleContractor {
		q = q.Where("contractor_id = ?", middleware.GetUserID(r))
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			q = q.Where("attendance_date >= ?", t)
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			q = q.Where("attendance_date <= ?", t)
		}
	}

	var records []models.LabourAttendanceRecord
	if err := q.Order("attendance_date DESC").Find(&records).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
