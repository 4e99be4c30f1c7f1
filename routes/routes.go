package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/siteops/handlers"
	"p9e.in/siteops/middleware"
	"p9e.in/siteops/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.GetCurrentUser).Methods("GET")
	api.HandleFunc("/files", handlers.UploadFileHandler).Methods("POST")

	registerProjectRoutes(api)
	registerPermitRoutes(api)
	registerPettyCashRoutes(api)
	registerInvoiceRoutes(api)
	registerMaterialRoutes(api)
	registerAttendanceRoutes(api)
	registerNotificationRoutes(api)

	return r
}

func registerProjectRoutes(api *mux.Router) {
	api.Handle("/projects",
		middleware.RequireRole([]models.Role{models.RoleOwner},
			http.HandlerFunc(handlers.CreateProject))).Methods("POST")
	api.HandleFunc("/projects", handlers.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{id}", handlers.GetProject).Methods("GET")
	api.Handle("/projects/{id}/members",
		middleware.RequireRole([]models.Role{models.RoleOwner, models.RoleManager},
			http.HandlerFunc(handlers.AddProjectMember))).Methods("POST")
	api.Handle("/projects/{id}/contracts",
		middleware.RequireRole([]models.Role{models.RoleOwner, models.RoleManager},
			http.HandlerFunc(handlers.CreateContract))).Methods("POST")
}

func registerPermitRoutes(api *mux.Router) {
	api.HandleFunc("/permits", handlers.RequestPermit).Methods("POST")
	api.HandleFunc("/permits", handlers.ListPermits).Methods("GET")
	api.HandleFunc("/permits/{id}", handlers.GetPermit).Methods("GET")
	// Only approval-capable roles may issue the one-time code.
	api.Handle("/permits/{id}/approve",
		middleware.RequireRole([]models.Role{models.RoleManager, models.RoleOwner},
			http.HandlerFunc(handlers.ApprovePermit))).Methods("POST")
	api.HandleFunc("/permits/{id}/verify", handlers.VerifyPermitCode).Methods("POST")
}

func registerPettyCashRoutes(api *mux.Router) {
	api.HandleFunc("/petty-cash", handlers.SubmitPettyCashExpense).Methods("POST")
	api.HandleFunc("/petty-cash", handlers.ListPettyCashExpenses).Methods("GET")
	api.Handle("/petty-cash/{id}/approve-pm",
		middleware.RequireRole([]models.Role{models.RoleManager},
			http.HandlerFunc(handlers.ApprovePettyCashPM))).Methods("POST")
	api.Handle("/petty-cash/{id}/approve-owner",
		middleware.RequireRole([]models.Role{models.RoleOwner},
			http.HandlerFunc(handlers.ApprovePettyCashOwner))).Methods("POST")
	api.Handle("/petty-cash/{id}/reject",
		middleware.RequireRole([]models.Role{models.RoleManager, models.RoleOwner},
			http.HandlerFunc(handlers.RejectPettyCash))).Methods("POST")
}

func registerInvoiceRoutes(api *mux.Router) {
	api.Handle("/invoices/generate",
		middleware.RequireRole([]models.Role{models.RoleContractor},
			http.HandlerFunc(handlers.GenerateInvoice))).Methods("POST")
	api.HandleFunc("/invoices", handlers.ListInvoices).Methods("GET")
	api.HandleFunc("/invoices/{id}", handlers.GetInvoice).Methods("GET")
	api.Handle("/invoices/{id}/approve",
		middleware.RequireRole([]models.Role{models.RoleManager},
			http.HandlerFunc(handlers.ApproveInvoice))).Methods("POST")
	api.Handle("/invoices/{id}/reject",
		middleware.RequireRole([]models.Role{models.RoleManager},
			http.HandlerFunc(handlers.RejectInvoice))).Methods("POST")
	api.Handle("/invoices/{id}/document",
		middleware.RequireRole([]models.Role{models.RoleContractor},
			http.HandlerFunc(handlers.UploadInvoiceDocument))).Methods("POST")
}

func registerMaterialRoutes(api *mux.Router) {
	api.HandleFunc("/material-requests", handlers.CreateMaterialRequest).Methods("POST")
	api.HandleFunc("/material-requests", handlers.ListMaterialRequests).Methods("GET")
	api.Handle("/material-requests/{id}/resolve",
		middleware.RequireRole([]models.Role{models.RolePurchaseManager, models.RoleManager},
			http.HandlerFunc(handlers.ResolveMaterialRequest))).Methods("POST")
}

func registerAttendanceRoutes(api *mux.Router) {
	api.Handle("/attendance",
		middleware.RequireRole([]models.Role{models.RoleContractor},
			http.HandlerFunc(handlers.RecordAttendance))).Methods("POST")
	api.HandleFunc("/attendance", handlers.ListAttendance).Methods("GET")
}

func registerNotificationRoutes(api *mux.Router) {
	api.HandleFunc("/notifications", handlers.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods("POST")
}
