package faq_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/faq"
	faqPostgres "github.com/apdq/deliver-backend/internal/faq/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
)

var _ = Describe("FAQ Handler Integration", func() {
	var router *chi.Mux

	BeforeEach(func() {
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		roles, err := testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())

		service := faq.NewService(faqPostgres.NewFAQRepository(db), quietLogger())
		handler := faq.NewHandler(transport.NewBaseHandler(quietLogger()), service)
		caller := &account.StaffUser{UserID: 1, Name: "root", Active: true, AssignedRole: account.RoleFromDataModel(roles[account.RoleSuperAdmin])}

		router = chi.NewRouter()
		router.Get("/admin/api/v1/all_faqs", handler.AllFAQs)
		router.Get("/admin/api/v1/faqs", handler.FAQsByLanguage)
		router.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(internal.ContextWithAccount(r.Context(), caller)))
				})
			})
			r.Post("/admin/api/v1/faq", handler.CreateFAQ)
			r.Delete("/admin/api/v1/faq/{id}", handler.DeleteFAQ)
		})
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("creates, lists and deletes", func() {
		rec := send(http.MethodPost, "/admin/api/v1/faq", `{"question":"Tarif ?","answer":"Voir contrat","language":"fr"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var created faq.FAQResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
		Expect(created.Language).To(Equal("fr"))

		rec = send(http.MethodGet, "/admin/api/v1/faqs?language=fr", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Tarif ?"))

		rec = send(http.MethodGet, "/admin/api/v1/faqs?language=en", "")
		Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))

		rec = send(http.MethodDelete, "/admin/api/v1/faq/1", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"faq_id":1`))

		rec = send(http.MethodGet, "/admin/api/v1/all_faqs", "")
		Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
	})

	It("returns 400 for an unknown language and 404 for a missing entry", func() {
		Expect(send(http.MethodGet, "/admin/api/v1/faqs?language=it", "").Code).To(Equal(http.StatusBadRequest))
		Expect(send(http.MethodDelete, "/admin/api/v1/faq/77", "").Code).To(Equal(http.StatusNotFound))
		Expect(send(http.MethodDelete, "/admin/api/v1/faq/zero", "").Code).To(Equal(http.StatusBadRequest))
	})
})
