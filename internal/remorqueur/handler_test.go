package remorqueur_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/remorqueur"
	remorqueurPostgres "github.com/apdq/deliver-backend/internal/remorqueur/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
)

var _ = Describe("Remorqueur Handler Integration", func() {
	var (
		router *chi.Mux
		caller account.Account
	)

	BeforeEach(func() {
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		roles, err := testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())
		caller = seedGarage(db, roles, "nord")

		service := remorqueur.NewService(remorqueurPostgres.NewRemorqueurRepository(db), fakeHasher{}, quietLogger())
		handler := remorqueur.NewHandler(transport.NewBaseHandler(quietLogger()), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithAccount(r.Context(), caller)))
			})
		})
		router.Route("/remorqueurs/api/v1", func(r chi.Router) {
			r.Post("/create_remorqueur", handler.CreateRemorqueur)
			r.Put("/update_remorqueur/{id}", handler.UpdateRemorqueur)
			r.Delete("/delete_remorqueur/{id}", handler.DeleteRemorqueur)
			r.Get("/get_garage_remorqueurs/", handler.GarageRemorqueurs)
		})
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("runs the create, update, list and delete cycle", func() {
		rec := send(http.MethodPost, "/remorqueurs/api/v1/create_remorqueur",
			`{"garage_name":"nord","name":"Jean","tel":"514-555-0101","username":"jean","password":"tow-truck-1","role_name":"remorqueur"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var created remorqueur.RemorqueurResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())

		rec = send(http.MethodPut, fmt.Sprintf("/remorqueurs/api/v1/update_remorqueur/%d", created.ID), `{"name":"Jean-Marc"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"name":"Jean-Marc"`))

		rec = send(http.MethodGet, "/remorqueurs/api/v1/get_garage_remorqueurs/", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list []map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		Expect(list).To(HaveLen(1))
		Expect(list[0]).To(HaveKeyWithValue("garage_name", "nord"))

		rec = send(http.MethodDelete, fmt.Sprintf("/remorqueurs/api/v1/delete_remorqueur/%d", created.ID), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(fmt.Sprintf(`{"message":"Remorqueur successfully deleted","remorqueur_id":%d}`, created.ID)))
	})

	It("returns 400 for a non numeric id", func() {
		rec := send(http.MethodDelete, "/remorqueurs/api/v1/delete_remorqueur/abc", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unknown operator", func() {
		rec := send(http.MethodDelete, "/remorqueurs/api/v1/delete_remorqueur/42", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("returns an empty array when the garage has no operators", func() {
		rec := send(http.MethodGet, "/remorqueurs/api/v1/get_garage_remorqueurs/", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`[]`))
	})
})
