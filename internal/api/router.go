package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zanlubej/gusar/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	expeditionsHandler := &ExpeditionsHandler{DB: db}
	piratesHandler := &PiratesHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	assignmentsHandler := &AssignmentsHandler{DB: db}
	paymentsHandler := &PaymentsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireQuartermaster := RequireRole(model.RoleQuartermaster)

	// Public: login and metrics.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Expeditions: read (all roles), write (quartermaster+),
	// export/import and reveals (admin only).
	mux.Handle("GET /api/expeditions", authMW(http.HandlerFunc(expeditionsHandler.List)))
	mux.Handle("POST /api/expeditions", authMW(requireQuartermaster(http.HandlerFunc(expeditionsHandler.Create))))
	mux.Handle("GET /api/expeditions/{id}", authMW(http.HandlerFunc(expeditionsHandler.Get)))
	mux.Handle("POST /api/expeditions/{id}/complete", authMW(requireQuartermaster(http.HandlerFunc(expeditionsHandler.Complete))))
	mux.Handle("PUT /api/expeditions/{id}/emblem", authMW(requireQuartermaster(http.HandlerFunc(expeditionsHandler.UploadEmblem))))
	mux.Handle("GET /api/expeditions/{id}/emblem", authMW(http.HandlerFunc(expeditionsHandler.GetEmblem)))
	mux.Handle("GET /api/expeditions/{id}/export", authMW(requireAdmin(http.HandlerFunc(expeditionsHandler.Export))))
	mux.Handle("POST /api/expeditions/{id}/import", authMW(requireAdmin(http.HandlerFunc(expeditionsHandler.Import))))
	mux.Handle("GET /api/expeditions/{id}/identities", authMW(requireAdmin(http.HandlerFunc(piratesHandler.RevealAll))))
	mux.Handle("GET /api/expeditions/{id}/item-names", authMW(requireAdmin(http.HandlerFunc(itemsHandler.RevealAll))))

	// Pirates: read (all roles), write (quartermaster+), reveal (admin).
	mux.Handle("GET /api/pirates", authMW(http.HandlerFunc(piratesHandler.List)))
	mux.Handle("POST /api/pirates", authMW(requireQuartermaster(http.HandlerFunc(piratesHandler.Enroll))))
	mux.Handle("GET /api/pirates/{id}", authMW(http.HandlerFunc(piratesHandler.Get)))
	mux.Handle("PUT /api/pirates/{id}/name", authMW(requireQuartermaster(http.HandlerFunc(piratesHandler.Rename))))
	mux.Handle("DELETE /api/pirates/{id}", authMW(requireQuartermaster(http.HandlerFunc(piratesHandler.Remove))))
	mux.Handle("GET /api/pirates/{id}/identity", authMW(requireAdmin(http.HandlerFunc(piratesHandler.Reveal))))
	mux.Handle("GET /api/pirates/{id}/debt", authMW(http.HandlerFunc(paymentsHandler.Debt)))

	// Items: read (all roles), write (quartermaster+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireQuartermaster(http.HandlerFunc(itemsHandler.Enroll))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("DELETE /api/items/{id}", authMW(requireQuartermaster(http.HandlerFunc(itemsHandler.Archive))))

	// Assignments: read (all roles), allocate/cancel (quartermaster+),
	// consumption (any role).
	mux.Handle("GET /api/assignments", authMW(http.HandlerFunc(assignmentsHandler.List)))
	mux.Handle("POST /api/assignments", authMW(requireQuartermaster(http.HandlerFunc(assignmentsHandler.Allocate))))
	mux.Handle("GET /api/assignments/{id}", authMW(http.HandlerFunc(assignmentsHandler.Get)))
	mux.Handle("POST /api/assignments/{id}/consume", authMW(http.HandlerFunc(assignmentsHandler.Consume)))
	mux.Handle("DELETE /api/assignments/{id}", authMW(requireQuartermaster(http.HandlerFunc(assignmentsHandler.Cancel))))

	// Payments: read (all roles), apply/reverse (quartermaster+).
	mux.Handle("GET /api/payments", authMW(http.HandlerFunc(paymentsHandler.List)))
	mux.Handle("POST /api/payments", authMW(requireQuartermaster(http.HandlerFunc(paymentsHandler.Apply))))
	mux.Handle("GET /api/payments/{id}", authMW(http.HandlerFunc(paymentsHandler.Get)))
	mux.Handle("POST /api/payments/{id}/reverse", authMW(requireQuartermaster(http.HandlerFunc(paymentsHandler.Reverse))))

	return mux
}
