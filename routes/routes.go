package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/fleetparts/handlers"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// managerOnly gates destructive operations behind manager or admin
var managerOnly = []string{models.RoleAdmin, models.RoleManager}

// RegisterRoutes wires every handler into the router. Everything under
// /api/v1 requires a valid JWT; deletes and conversions additionally
// require a managing role.
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/me", handlers.Me).Methods("GET")

	supplierHandler := handlers.NewSupplierHandler()
	api.HandleFunc("/suppliers", supplierHandler.List).Methods("GET")
	api.HandleFunc("/suppliers", supplierHandler.Create).Methods("POST")
	api.HandleFunc("/suppliers/{id}", supplierHandler.Get).Methods("GET")
	api.HandleFunc("/suppliers/{id}", supplierHandler.Update).Methods("PUT", "PATCH")
	api.Handle("/suppliers/{id}",
		middleware.RequireRole(managerOnly, http.HandlerFunc(supplierHandler.Delete))).Methods("DELETE")
	api.HandleFunc("/suppliers/{id}/emails", supplierHandler.ListAuxiliaryEmails).Methods("GET")
	api.HandleFunc("/suppliers/{id}/emails", supplierHandler.AddAuxiliaryEmail).Methods("POST")
	api.HandleFunc("/suppliers/{id}/emails/{emailId}", supplierHandler.UpdateAuxiliaryEmail).Methods("PATCH")
	api.HandleFunc("/suppliers/{id}/emails/{emailId}", supplierHandler.RemoveAuxiliaryEmail).Methods("DELETE")

	vehicleHandler := handlers.NewVehicleHandler()
	api.HandleFunc("/vehicles", vehicleHandler.List).Methods("GET")
	api.HandleFunc("/vehicles", vehicleHandler.Create).Methods("POST")
	api.HandleFunc("/vehicles/{id}", vehicleHandler.Get).Methods("GET")
	api.HandleFunc("/vehicles/{id}", vehicleHandler.Update).Methods("PUT", "PATCH")
	api.Handle("/vehicles/{id}",
		middleware.RequireRole(managerOnly, http.HandlerFunc(vehicleHandler.Delete))).Methods("DELETE")

	partHandler := handlers.NewPartHandler()
	api.HandleFunc("/parts", partHandler.List).Methods("GET")
	api.HandleFunc("/parts", partHandler.Create).Methods("POST")
	api.HandleFunc("/parts/search", partHandler.Search).Methods("GET")
	api.HandleFunc("/parts/{id}", partHandler.Get).Methods("GET")
	api.HandleFunc("/parts/{id}", partHandler.Update).Methods("PUT", "PATCH")
	api.Handle("/parts/{id}",
		middleware.RequireRole(managerOnly, http.HandlerFunc(partHandler.Delete))).Methods("DELETE")

	maintenanceHandler := handlers.NewMaintenanceHandler()
	api.HandleFunc("/maintenance", maintenanceHandler.List).Methods("GET")
	api.HandleFunc("/maintenance", maintenanceHandler.Create).Methods("POST")
	api.HandleFunc("/maintenance/{id}", maintenanceHandler.Get).Methods("GET")
	api.HandleFunc("/maintenance/{id}", maintenanceHandler.Update).Methods("PUT", "PATCH")
	api.Handle("/maintenance/{id}",
		middleware.RequireRole(managerOnly, http.HandlerFunc(maintenanceHandler.Delete))).Methods("DELETE")

	quoteHandler := handlers.NewQuoteRequestHandler()
	api.HandleFunc("/quote-requests", quoteHandler.List).Methods("GET")
	api.HandleFunc("/quote-requests", quoteHandler.Create).Methods("POST")
	api.HandleFunc("/quote-requests/{id}", quoteHandler.Get).Methods("GET")
	api.HandleFunc("/quote-requests/{id}", quoteHandler.Update).Methods("PUT", "PATCH")
	api.Handle("/quote-requests/{id}",
		middleware.RequireRole(managerOnly, http.HandlerFunc(quoteHandler.Delete))).Methods("DELETE")
	api.HandleFunc("/quote-requests/{id}/send", quoteHandler.Send).Methods("POST")
	api.HandleFunc("/quote-requests/{id}/prices", quoteHandler.RefreshPrices).Methods("POST")
	api.HandleFunc("/quote-requests/{id}/follow-up", quoteHandler.FollowUp).Methods("POST")
	api.Handle("/quote-requests/{id}/convert",
		middleware.RequireRole(managerOnly, http.HandlerFunc(quoteHandler.Convert))).Methods("POST")

	orderHandler := handlers.NewOrderHandler()
	api.HandleFunc("/orders", orderHandler.List).Methods("GET")
	api.HandleFunc("/orders/{id}", orderHandler.Get).Methods("GET")
	api.HandleFunc("/orders/{id}", orderHandler.Update).Methods("PUT", "PATCH")
	api.Handle("/orders/{id}/cancel",
		middleware.RequireRole(managerOnly, http.HandlerFunc(orderHandler.Cancel))).Methods("POST")
	api.HandleFunc("/orders/{id}/sync", orderHandler.Sync).Methods("POST")
	api.HandleFunc("/orders/{id}/follow-up", orderHandler.FollowUp).Methods("POST")

	emailHandler := handlers.NewEmailHandler()
	api.HandleFunc("/emails/threads", emailHandler.ListThreads).Methods("GET")
	api.HandleFunc("/emails/threads/{id}", emailHandler.GetThread).Methods("GET")
	api.HandleFunc("/emails/orphaned", emailHandler.Orphaned).Methods("GET")
	api.HandleFunc("/emails/orphaned/{id}/candidates", emailHandler.Candidates).Methods("GET")
	api.HandleFunc("/emails/orphaned/assign", emailHandler.Assign).Methods("POST")
	api.HandleFunc("/emails/merge", emailHandler.Merge).Methods("POST")
	api.HandleFunc("/emails/inbound", emailHandler.Inbound).Methods("POST")

	chatHandler := handlers.NewChatHandler()
	api.HandleFunc("/support/conversations", chatHandler.ListConversations).Methods("GET")
	api.HandleFunc("/support/conversations", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/support/conversations/{id}", chatHandler.GetConversation).Methods("GET")
	api.HandleFunc("/support/conversations/{id}", chatHandler.DeleteConversation).Methods("DELETE")
	api.HandleFunc("/support/conversations/{id}/messages", chatHandler.SendMessage).Methods("POST")

	exportHandler := handlers.NewExportHandler()
	api.HandleFunc("/export/orders.{format}", exportHandler.Orders).Methods("GET")
	api.HandleFunc("/export/quote-requests.{format}", exportHandler.QuoteRequests).Methods("GET")

	api.HandleFunc("/activity", handlers.GetActivityFeed).Methods("GET")

	return r
}
