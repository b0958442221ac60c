package garage_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/garage"
	garagePostgres "github.com/apdq/deliver-backend/internal/garage/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
)

var _ = Describe("Garage Handler Integration", func() {
	var (
		db     *gorm.DB
		roles  map[string]accountDatamodel.Role
		router *chi.Mux
		caller account.Account
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		roles, err = testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())

		repo := garagePostgres.NewGarageRepository(db)
		service := garage.NewService(repo, fakeHasher{}, &recordingPublisher{}, quietLogger())
		handler := garage.NewHandler(transport.NewBaseHandler(quietLogger()), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithAccount(r.Context(), caller)))
			})
		})
		router.Post("/garages/api/v1/create_garages", handler.CreateGarage)
		router.Put("/garages/api/v1/update_garage", handler.UpdateGarage)
		router.Get("/garages/api/v1/count", handler.Count)
		router.Post("/garages/api/v1/current_garage", handler.CurrentGarage)

		superadmin := roles[account.RoleSuperAdmin]
		caller = &account.StaffUser{UserID: 1, Name: "root", Active: true, AssignedRole: account.RoleFromDataModel(superadmin)}
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	createBody := `{"name":"Garage Nord","email":"nord@example.com","username":"nord","password":"s3cret-pass","role_name":"garage"}`

	It("creates a garage and returns 201 with the role snapshot", func() {
		rec := send(http.MethodPost, "/garages/api/v1/create_garages", createBody)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("name", "Garage Nord"))
		Expect(body).To(HaveKeyWithValue("is_active", false))
		Expect(body["role"]).To(HaveKeyWithValue("name", "garage"))
		Expect(body["role"].(map[string]interface{})["permissions"]).To(HaveLen(4))

		var stored accountDatamodel.Garage
		Expect(db.Where("username = ?", "nord").First(&stored).Error).To(Succeed())
		Expect(stored.CreatedByID).To(Equal(int64(1)))
	})

	It("rejects a second garage with the same name", func() {
		Expect(send(http.MethodPost, "/garages/api/v1/create_garages", createBody).Code).To(Equal(http.StatusCreated))

		rec := send(http.MethodPost, "/garages/api/v1/create_garages",
			`{"name":"Garage Nord","email":"other@example.com","username":"other","password":"s3cret-pass","role_name":"garage"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeDuplicateGarage)))
	})

	It("returns 400 on a malformed body", func() {
		rec := send(http.MethodPost, "/garages/api/v1/create_garages", `{"name":`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("lets the garage update itself and read its profile", func() {
		// Given
		Expect(send(http.MethodPost, "/garages/api/v1/create_garages", createBody).Code).To(Equal(http.StatusCreated))
		var stored accountDatamodel.Garage
		Expect(db.Preload("Role.Permissions").Where("username = ?", "nord").First(&stored).Error).To(Succeed())
		caller = account.GarageFromDataModel(&stored)

		// When
		rec := send(http.MethodPut, "/garages/api/v1/update_garage", `{"garage_name":"Garage Nord","username":"nord-2"}`)

		// Then
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"username":"nord-2"`))

		rec = send(http.MethodPost, "/garages/api/v1/current_garage", `{}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("username", "nord-2"))
		Expect(body).To(HaveKey("stripe_customer_id"))
		Expect(body).To(HaveKey("payment_status"))
	})

	It("counts active garages", func() {
		Expect(db.Create(&accountDatamodel.Garage{Name: "A", Email: "a@x.io", Username: "a", Password: "x", RoleID: roles[account.RoleGarage].ID, IsActive: true, CreatedByID: 1}).Error).To(Succeed())
		Expect(db.Create(&accountDatamodel.Garage{Name: "B", Email: "b@x.io", Username: "b", Password: "x", RoleID: roles[account.RoleGarage].ID, CreatedByID: 1}).Error).To(Succeed())

		rec := send(http.MethodGet, "/garages/api/v1/count", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"total_garages":1}`))
	})
})
