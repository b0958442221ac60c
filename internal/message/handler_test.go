package message_test

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
	"github.com/apdq/deliver-backend/internal/message"
	messagePostgres "github.com/apdq/deliver-backend/internal/message/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
)

var _ = Describe("Message Handler Integration", func() {
	var (
		router *chi.Mux
		caller account.Account
		f      fixture
	)

	BeforeEach(func() {
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		_, err = testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())
		f = seedFixture(db)

		service := message.NewService(messagePostgres.NewMessageRepository(db), &recordingPublisher{}, quietLogger())
		handler := message.NewHandler(transport.NewBaseHandler(quietLogger()), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithAccount(r.Context(), caller)))
			})
		})
		router.Post("/admin/api/v1/create_admin_messages", handler.CreateAdminMessage)
		router.Get("/admin/api/v1/get_all_admin_messages", handler.ListAdminMessages)
		router.Post("/admin/api/v1/get_garages_fromAdmin_messages", handler.GarageInbox)
		router.Delete("/admin/api/v1/delete_admin_messages", handler.DeleteAdminMessages)
		router.Put("/admin/admin-messages/{id}/read", handler.MarkAdminMessageRead)
		router.Post("/garages/api/v1/create_garage_messages", handler.CreateGarageMessage)
		router.Post("/garages/api/v1/get_remoqueurs_fromGarage_messages", handler.OperatorInbox)
	})

	send := func(as account.Account, method, path, body string) *httptest.ResponseRecorder {
		caller = as
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("delivers an admin message and lets the garage mark it read", func() {
		// Given
		rec := send(f.admin, http.MethodPost, "/admin/api/v1/create_admin_messages",
			fmt.Sprintf(`{"title":"Tarifs","content":"Nouveaux tarifs","garage_ids":[%d]}`, f.nord.ID()))
		Expect(rec.Code).To(Equal(http.StatusOK))
		var created message.AdminMessageResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())

		// When
		rec = send(f.nord, http.MethodPut, fmt.Sprintf("/admin/admin-messages/%d/read", created.ID), "")

		// Then
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Message marked as read successfully"))

		rec = send(f.nord, http.MethodPost, "/admin/api/v1/get_garages_fromAdmin_messages", `{}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var inbox []message.AdminMessageResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &inbox)).To(Succeed())
		Expect(inbox).To(HaveLen(1))
		Expect(inbox[0].IsRead).To(BeTrue())
	})

	It("returns 400 with the offending ids", func() {
		rec := send(f.admin, http.MethodPost, "/admin/api/v1/create_admin_messages",
			fmt.Sprintf(`{"title":"x","content":"y","garage_ids":[%d]}`, f.foreign.ID()))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("invalid_ids"))
	})

	It("refuses admin routes to garages", func() {
		rec := send(f.nord, http.MethodPost, "/admin/api/v1/create_admin_messages", `{"title":"x","content":"y","to_all":true}`)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("rejects a malformed read id", func() {
		rec := send(f.nord, http.MethodPut, "/admin/admin-messages/abc/read", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when a bulk delete matches nothing", func() {
		rec := send(f.admin, http.MethodDelete, "/admin/api/v1/delete_admin_messages", `{"message_ids":[41,42]}`)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("serves the operator inbox", func() {
		rec := send(f.nord, http.MethodPost, "/garages/api/v1/create_garage_messages", `{"title":"Shift","content":"Tonight","to_all":true}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = send(f.luc, http.MethodPost, "/garages/api/v1/get_remoqueurs_fromGarage_messages", `{}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))

		rec = send(f.paul, http.MethodPost, "/garages/api/v1/get_remoqueurs_fromGarage_messages", `{}`)
		Expect(rec.Body.String()).To(ContainSubstring(`"title":"Shift"`))
	})
})
