package billing_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/billing"
	billingPostgres "github.com/apdq/deliver-backend/internal/billing/postgres"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
)

var _ = Describe("Billing Handler Integration", func() {
	var (
		router   *chi.Mux
		verifier *stubVerifier
	)

	BeforeEach(func() {
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())

		verifier = &stubVerifier{}
		service := billing.NewService(billingPostgres.NewBillingRepository(db), verifier, &stubPortal{}, &recordingPublisher{}, "", quietLogger())
		handler := billing.NewHandler(transport.NewBaseHandler(quietLogger()), service)

		router = chi.NewRouter()
		router.Post("/webhook", handler.Webhook)
		router.With(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				caller := &account.StaffUser{UserID: 1, Name: "root", Active: true}
				next.ServeHTTP(w, r.WithContext(internal.ContextWithAccount(r.Context(), caller)))
			})
		}).Post("/billing/create-portal-session", handler.CreatePortalSession)
	})

	It("acknowledges verified events", func() {
		verifier.event = billing.Event{Type: "customer.created"}
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		req.Header.Set(billing.SignatureHeader, "t=1,v1=x")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"status":"received"}`))
	})

	It("returns 400 for a bad signature", func() {
		verifier.err = billing.ErrInvalidSignature
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`)))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("keeps the portal to garage accounts", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/billing/create-portal-session?lang=fr", nil))

		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})
})
