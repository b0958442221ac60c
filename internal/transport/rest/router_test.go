package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	authPostgres "github.com/apdq/deliver-backend/internal/auth/postgres"
	"github.com/apdq/deliver-backend/internal/billing"
	billingPostgres "github.com/apdq/deliver-backend/internal/billing/postgres"
	"github.com/apdq/deliver-backend/internal/cache"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/core/events"
	"github.com/apdq/deliver-backend/internal/faq"
	faqPostgres "github.com/apdq/deliver-backend/internal/faq/postgres"
	"github.com/apdq/deliver-backend/internal/garage"
	garagePostgres "github.com/apdq/deliver-backend/internal/garage/postgres"
	"github.com/apdq/deliver-backend/internal/message"
	messagePostgres "github.com/apdq/deliver-backend/internal/message/postgres"
	"github.com/apdq/deliver-backend/internal/remorqueur"
	remorqueurPostgres "github.com/apdq/deliver-backend/internal/remorqueur/postgres"
	"github.com/apdq/deliver-backend/internal/staff"
	staffPostgres "github.com/apdq/deliver-backend/internal/staff/postgres"
	"github.com/apdq/deliver-backend/internal/storage"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
	"github.com/apdq/deliver-backend/internal/transport/middleware"
	"github.com/apdq/deliver-backend/internal/transport/rest"
	"github.com/apdq/deliver-backend/internal/vehicle"
	vehiclePostgres "github.com/apdq/deliver-backend/internal/vehicle/postgres"
)

const (
	testSecret  = "router-test-secret-0123456789abcdef"
	dispatchKey = "dispatch-key"
)

var _ = Describe("Router", func() {
	var (
		db        *gorm.DB
		router    *chi.Mux
		dbHealthy error
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		roles, err := testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())

		lg := quietLogger()
		hasher, err := auth.NewHasher("pepper")
		Expect(err).NotTo(HaveOccurred())
		issuer, err := auth.NewTokenIssuer(testSecret, lg)
		Expect(err).NotTo(HaveOccurred())

		digest, err := hasher.Hash("admin-pw")
		Expect(err).NotTo(HaveOccurred())
		admin := accountDatamodel.User{Username: "root", Password: digest, RoleID: roles[account.RoleSuperAdmin].ID, IsActive: true}
		Expect(db.Create(&admin).Error).To(Succeed())
		Expect(db.Create(&accountDatamodel.Garage{
			Name: "Nord", Email: "nord@example.com", Username: "nord", Password: digest,
			RoleID: roles[account.RoleGarage].ID, IsActive: true, CreatedByID: admin.ID,
		}).Error).To(Succeed())

		store, err := storage.NewLocalStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		bus := events.NewEventBus(lg)
		base := transport.NewBaseHandler(lg)
		authService := auth.NewService(authPostgres.NewRepository(db), hasher, issuer, lg)
		dbHealthy = nil

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Routes{
			Auth:       auth.NewHandler(authService),
			Gate:       auth.NewGate(lg),
			Staff:      staff.NewHandler(base, staff.NewService(staffPostgres.NewStaffRepository(db), hasher, lg), dispatchKey),
			Garage:     garage.NewHandler(base, garage.NewService(garagePostgres.NewGarageRepository(db), hasher, bus, lg)),
			Remorqueur: remorqueur.NewHandler(base, remorqueur.NewService(remorqueurPostgres.NewRemorqueurRepository(db), hasher, lg)),
			Message:    message.NewHandler(base, message.NewService(messagePostgres.NewMessageRepository(db), bus, lg)),
			FAQ:        faq.NewHandler(base, faq.NewService(faqPostgres.NewFAQRepository(db), lg)),
			Vehicle:    vehicle.NewHandler(base, vehicle.NewService(vehiclePostgres.NewVehicleRepository(db), store, cache.Nop{}, "apdq", lg)),
			Billing:    billing.NewHandler(base, billing.NewService(billingPostgres.NewBillingRepository(db), nil, nil, bus, "http://localhost:5173", lg)),
			Health: rest.NewHealthHandler(base, map[string]rest.Pinger{
				"database": rest.PingFunc(func(context.Context) error { return dbHealthy }),
				"storage":  store,
			}),
			LoginLimiter: middleware.NewRateLimiter(internal.RateLimitConfig{}, nil, "login", lg),
			MetricsPath:  "/metrics",
			Logger:       lg,
		})
	})

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set(transport.AuthHeader, token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	login := func(username string) string {
		rec := do(http.MethodPost, "/auth/api/v1/login", `{"username":"`+username+`","password":"admin-pw"}`, "")
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		var resp auth.LoginResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp.AccessToken
	}

	Describe("operational endpoints", func() {
		It("answers ping and stamps a trace id", func() {
			rec := do(http.MethodGet, "/api/v1/ping", "", "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get(middleware.TraceHeader)).NotTo(BeEmpty())
		})

		It("reports 503 when a component is down", func() {
			dbHealthy = errors.New("connection refused")

			rec := do(http.MethodGet, "/api/v1/health", "", "")

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			var body rest.HealthResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Components["database"].Status).To(Equal(rest.HealthUnhealthy))
			Expect(body.Components["storage"].Status).To(Equal(rest.HealthHealthy))
		})

		It("serves the OpenAPI document and metrics", func() {
			Expect(do(http.MethodGet, "/openapi.yml", "", "").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/metrics", "", "").Body.String()).To(ContainSubstring("deliver_http_requests_total"))
		})
	})

	Describe("authentication", func() {
		It("rejects protected routes without a token", func() {
			Expect(do(http.MethodGet, "/api/v1/years", "", "").Code).To(Equal(http.StatusUnauthorized))
		})

		It("keeps public routes open", func() {
			rec := do(http.MethodGet, "/admin/api/v1/all_faqs", "", "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
		})

		It("guards staff provisioning with the dispatch key", func() {
			rec := do(http.MethodPost, "/misc_dispatch/api/v1/create-user", `{"username":"ops","password":"pw","role_name":"apdq"}`, "")

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("authorization", func() {
		It("lets staff manage FAQs and shows them publicly", func() {
			token := login("root")

			rec := do(http.MethodPost, "/admin/api/v1/faq", `{"question":"Q?","answer":"A.","language":"fr"}`, token)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())

			rec = do(http.MethodGet, "/admin/api/v1/faqs?language=fr", "", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"question":"Q?"`))
		})

		It("forbids a garage from staff routes", func() {
			token := login("nord")

			Expect(do(http.MethodPost, "/admin/api/v1/faq", `{"question":"Q","answer":"A","language":"fr"}`, token).Code).
				To(Equal(http.StatusForbidden))
			Expect(do(http.MethodGet, "/api/v1/get_all_garages_with_remorqueurs/", "", token).Code).
				To(Equal(http.StatusForbidden))
		})

		It("forbids staff from garage routes", func() {
			token := login("root")

			Expect(do(http.MethodPost, "/garages/api/v1/current_garage", "", token).Code).To(Equal(http.StatusForbidden))
		})

		It("returns the calling garage", func() {
			token := login("nord")

			rec := do(http.MethodPost, "/garages/api/v1/current_garage", "", token)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"name":"Nord"`))
		})
	})
})
