package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/billing"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/faq"
	"github.com/apdq/deliver-backend/internal/garage"
	"github.com/apdq/deliver-backend/internal/message"
	"github.com/apdq/deliver-backend/internal/remorqueur"
	"github.com/apdq/deliver-backend/internal/staff"
	"github.com/apdq/deliver-backend/internal/transport"
	"github.com/apdq/deliver-backend/internal/transport/middleware"
	"github.com/apdq/deliver-backend/internal/transport/swagger"
	"github.com/apdq/deliver-backend/internal/vehicle"
)

// Routes bundles everything the router mounts. An empty MetricsPath disables
// the scrape endpoint and a nil LoginLimiter leaves login unthrottled.
// TrustProxy rewrites RemoteAddr from the forwarding headers.
type Routes struct {
	Auth       *auth.Handler
	Gate       *auth.Gate
	Staff      *staff.Handler
	Garage     *garage.Handler
	Remorqueur *remorqueur.Handler
	Message    *message.Handler
	FAQ        *faq.Handler
	Vehicle    *vehicle.Handler
	Billing    *billing.Handler
	Health     *HealthHandler

	LoginLimiter   *middleware.RateLimiter
	AllowedOrigins []string
	MetricsPath    string
	TrustProxy     bool
	Logger         *slog.Logger
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", transport.AuthHeader, transport.DispatchHeader, middleware.TraceHeader},
		ExposedHeaders:   []string{middleware.TraceHeader, "Retry-After"},
		AllowCredentials: true,
	}).Handler
}

func RegisterAllRoutes(router chi.Router, rt Routes) {
	gate := rt.Gate
	garageOnly := gate.RequireKind(account.KindGarage)
	operatorOnly := gate.RequireKind(account.KindOperator)
	staffOnly := gate.RequireKind(account.KindStaff)

	if rt.TrustProxy {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(corsHandler(rt.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(rt.Logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.LoggingMiddleware(rt.Logger))

	if rt.MetricsPath != "" {
		router.Method(http.MethodGet, rt.MetricsPath, promhttp.Handler())
	}
	router.Get(swagger.DocumentPath, swagger.DocumentHandler)
	router.Handle("/swagger/*", swagger.Handler())

	router.Get("/api/v1/health", rt.Health.Health)
	router.Get("/api/v1/ping", rt.Health.Ping)

	// public
	login := http.HandlerFunc(rt.Auth.Login)
	if rt.LoginLimiter != nil {
		router.Method(http.MethodPost, "/auth/api/v1/login", rt.LoginLimiter.Handler(login))
	} else {
		router.Post("/auth/api/v1/login", login)
	}
	router.Get("/admin/api/v1/all_faqs", rt.FAQ.AllFAQs)
	router.Get("/admin/api/v1/faqs", rt.FAQ.FAQsByLanguage)
	router.Get("/ftp/images/*", rt.Vehicle.ServeFile)
	router.Post("/webhook", rt.Billing.Webhook)

	router.With(rt.Staff.DispatchKeyMiddleware).Post("/misc_dispatch/api/v1/create-user", rt.Staff.CreateUser)

	router.Group(func(pr chi.Router) {
		pr.Use(rt.Auth.AuthMiddleware)

		// staff
		pr.With(gate.RequireStaffRole(account.RoleSuperAdmin, account.RoleAPDQ)).
			Put("/admin/api/v1/update_admin", rt.Staff.UpdateAdmin)
		pr.Group(func(sr chi.Router) {
			sr.Use(staffOnly, gate.Require(account.PermViewAccounts))
			sr.Get("/api/v1/get_all_garages_with_remorqueurs/", rt.Staff.GaragesWithRemorqueurs)
			sr.Get("/api/v1/get_all_remorqueurs_with_garages/", rt.Staff.RemorqueursWithGarages)
		})
		pr.With(gate.RequireStaffRole(account.RoleSuperAdmin, account.RoleAPDQ), gate.Require(account.PermCreateGarage)).
			Post("/garages/api/v1/create_garages", rt.Garage.CreateGarage)
		pr.Group(func(sr chi.Router) {
			sr.Use(staffOnly, gate.Require(account.PermSendAdminMessage))
			sr.Post("/admin/api/v1/create_admin_messages", rt.Message.CreateAdminMessage)
			sr.Get("/admin/api/v1/get_all_admin_messages", rt.Message.ListAdminMessages)
			sr.Delete("/admin/api/v1/delete_admin_message", rt.Message.DeleteAdminMessage)
			sr.Delete("/admin/api/v1/delete_admin_messages", rt.Message.DeleteAdminMessages)
		})
		pr.Group(func(sr chi.Router) {
			sr.Use(staffOnly, gate.Require(account.PermManageFAQ))
			sr.Post("/admin/api/v1/faq", rt.FAQ.CreateFAQ)
			sr.Delete("/admin/api/v1/faq/{id}", rt.FAQ.DeleteFAQ)
		})

		// garages
		pr.Group(func(gr chi.Router) {
			gr.Use(garageOnly)
			gr.Put("/garages/api/v1/update_garage", rt.Garage.UpdateGarage)
			gr.Post("/garages/api/v1/current_garage", rt.Garage.CurrentGarage)
			gr.Get("/remorqueurs/api/v1/get_garage_remorqueurs/", rt.Remorqueur.GarageRemorqueurs)
			gr.Post("/admin/api/v1/get_garages_fromAdmin_messages", rt.Message.GarageInbox)
			gr.Put("/admin/admin-messages/{id}/read", rt.Message.MarkAdminMessageRead)
			gr.Get("/garages/api/v1/get_all_garage_messages", rt.Message.ListGarageMessages)
			gr.With(gate.Require(account.PermSendGarageMessage)).
				Post("/garages/api/v1/create_garage_messages", rt.Message.CreateGarageMessage)
			gr.With(gate.Require(account.PermSendGarageMessage)).
				Delete("/garages/api/v1/delete_garage_message", rt.Message.DeleteGarageMessage)
			gr.With(gate.Require(account.PermCreateRemorqueur)).
				Post("/remorqueurs/api/v1/create_remorqueur", rt.Remorqueur.CreateRemorqueur)
			gr.With(gate.Require(account.PermUpdateRemorqueur)).
				Put("/remorqueurs/api/v1/update_remorqueur/{id}", rt.Remorqueur.UpdateRemorqueur)
			gr.With(gate.Require(account.PermDeleteRemorqueur)).
				Delete("/remorqueurs/api/v1/delete_remorqueur/{id}", rt.Remorqueur.DeleteRemorqueur)
		})
		pr.Get("/garages/api/v1/count", rt.Garage.Count)
		pr.Post("/billing/create-portal-session", rt.Billing.CreatePortalSession)

		// remorqueurs
		pr.Group(func(or chi.Router) {
			or.Use(operatorOnly)
			or.Post("/garages/api/v1/get_remoqueurs_fromGarage_messages", rt.Message.OperatorInbox)
			or.Put("/garages/garage-messages/{id}/read", rt.Message.MarkGarageMessageRead)
		})

		// vehicles
		pr.Get("/vehicles/", rt.Vehicle.ListVehicles)
		pr.Get("/vehicles/{id}", rt.Vehicle.GetVehicle)
		pr.Get("/api/v1/years", rt.Vehicle.Years)
		pr.Get("/api/v1/brands/{year}", rt.Vehicle.Brands)
		pr.Get("/api/v1/models/{year}/{brand}", rt.Vehicle.Models)
		pr.Get("/api/v1/vehicles", rt.Vehicle.SearchVehicles)
		pr.Group(func(vr chi.Router) {
			vr.Use(staffOnly, gate.Require(account.PermManageVehicles))
			vr.Post("/vehicles/", rt.Vehicle.CreateVehicle)
			vr.Put("/vehicles/{id}", rt.Vehicle.UpdateVehicle)
			vr.Post("/vehicles/{id}/upload-image", rt.Vehicle.UploadImage)
			vr.Post("/vehicles/{id}/upload-neutral-pdf", rt.Vehicle.UploadNeutralPDF)
			vr.Post("/vehicles/{id}/upload-deactivation-pdf", rt.Vehicle.UploadDeactivationPDF)
			vr.Post("/vehicles/{id}/update-image", rt.Vehicle.ReplaceImage)
			vr.Post("/vehicles/{id}/update-neutral-pdf", rt.Vehicle.ReplaceNeutralPDF)
			vr.Post("/vehicles/{id}/update-deactivation-pdf", rt.Vehicle.ReplaceDeactivationPDF)
			vr.Delete("/vehicles/{id}/neutral-pdfs/{pdf_id}", rt.Vehicle.DeleteNeutralPDF)
			vr.Delete("/vehicles/{id}/deactivation-pdfs/{pdf_id}", rt.Vehicle.DeleteDeactivationPDF)
		})
	})
}
