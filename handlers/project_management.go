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
	"p9e.in/siteops/utils"
)

// CreateProject creates a project owned by the calling owner, with an
// optional geofence.
func CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string           `json:"name"`
		Code     string           `json:"code"`
		Address  string           `json:"address"`
		GeoFence *models.GeoFence `json:"geoFence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Code == "" {
		http.Error(w, "name and code are required", http.StatusBadRequest)
		return
	}
	if req.GeoFence != nil && req.GeoFence.Enabled {
		if err := utils.ValidateCoordinate(req.GeoFence.CenterLat, req.GeoFence.CenterLng); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.GeoFence.RadiusMeters < 0 || req.GeoFence.BufferMeters < 0 {
			http.Error(w, "radius and buffer must be non-negative", http.StatusBadRequest)
			return
		}
	}

	project := models.Project{
		Name:     req.Name,
		Code:     req.Code,
		Address:  req.Address,
		OwnerID:  middleware.GetUserID(r),
		GeoFence: req.GeoFence,
		IsActive: true,
	}
	if err := config.DB.Create(&project).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProject returns a project with its members and contracts.
func GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid project ID", http.StatusBadRequest)
		return
	}

	var project models.Project
	err = config.DB.Preload("Owner").Preload("Members.User").Preload("Contracts.Contractor").
		First(&project, "id = ?", projectID).Error
	if err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ListProjects returns active projects.
func ListProjects(w http.ResponseWriter, r *http.Request) {
	var projects []models.Project
	if err := config.DB.Where("is_active = ?", true).Order("created_at DESC").Find(&projects).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// AddProjectMember assigns a user to a project.
func AddProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid project ID", http.StatusBadRequest)
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      user.Role,
	}
	if err := config.DB.Create(&member).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// CreateContract opens a contractor engagement on a project with a
// negotiated daily rate.
func CreateContract(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid project ID", http.StatusBadRequest)
		return
	}

	var req struct {
		ContractorID string  `json:"contractorId"`
		DailyRate    float64 `json:"dailyRate"`
		StartDate    string  `json:"startDate"` // YYYY-MM-DD
		EndDate      *string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	contractorID, err := uuid.Parse(req.ContractorID)
	if err != nil {
		http.Error(w, "invalid contractor ID", http.StatusBadRequest)
		return
	}
	if req.DailyRate <= 0 {
		http.Error(w, "dailyRate must be positive", http.StatusBadRequest)
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "invalid startDate, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var contractor models.User
	if err := config.DB.First(&contractor, "id = ? AND role = ?", contractorID, models.RoleContractor).Error; err != nil {
		http.Error(w, "contractor not found", http.StatusNotFound)
		return
	}

	contract := models.ContractorContract{
		ProjectID:    projectID,
		ContractorID: contractorID,
		DailyRate:    req.DailyRate,
		StartDate:    startDate,
		IsActive:     true,
	}
	if req.EndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			http.Error(w, "invalid endDate, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		contract.EndDate = &endDate
	}

	if err := config.DB.Create(&contract).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}
