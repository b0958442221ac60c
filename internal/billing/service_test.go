package billing_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/apdq/deliver-backend/internal/billing"
	billingPostgres "github.com/apdq/deliver-backend/internal/billing/postgres"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/core/events"
	"github.com/apdq/deliver-backend/internal/testutil"
)

var _ = Describe("Billing Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		roles     map[string]accountDatamodel.Role
		verifier  *stubVerifier
		portal    *stubPortal
		publisher *recordingPublisher
		service   *billing.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		roles, err = testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())

		verifier = &stubVerifier{}
		portal = &stubPortal{}
		publisher = &recordingPublisher{}
		service = billing.NewService(billingPostgres.NewBillingRepository(db), verifier, portal, publisher, "https://app.example.com", quietLogger())
	})

	seed := func(name string, active bool, customerID *string) *accountDatamodel.Garage {
		g := &accountDatamodel.Garage{
			Name: name, Email: name + "@example.com", Username: name, Password: "x",
			RoleID: roles[account.RoleGarage].ID, IsActive: active, CreatedByID: 1, StripeCustomerID: customerID,
		}
		Expect(db.Create(g).Error).To(Succeed())
		return g
	}

	reload := func(id int64) accountDatamodel.Garage {
		var g accountDatamodel.Garage
		Expect(db.First(&g, id).Error).To(Succeed())
		return g
	}

	Describe("HandleWebhook", func() {
		It("activates the inactive garage paying at checkout", func() {
			// Given
			g := seed("nord", false, nil)
			verifier.event = billing.Event{Type: billing.EventCheckoutCompleted, Checkout: &billing.CheckoutSession{
				ID: "cs_1", CustomerID: "cus_1", Email: "nord@example.com",
			}}

			// When
			resp, err := service.HandleWebhook(ctx, []byte("{}"), "sig")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("success"))
			Expect(resp.GarageID).To(Equal("1"))

			stored := reload(g.ID)
			Expect(stored.IsActive).To(BeTrue())
			Expect(*stored.PaymentStatus).To(Equal("completed"))
			Expect(*stored.PaymentSessionID).To(Equal("cs_1"))
			Expect(*stored.StripeCustomerID).To(Equal("cus_1"))
			Expect(publisher.types()).To(Equal([]events.EventType{events.EventTypeGarageActivated}))
		})

		DescribeTable("reports checkout problems in the body",
			func(email, message string) {
				seed("sud", true, nil)
				verifier.event = billing.Event{Type: billing.EventCheckoutCompleted, Checkout: &billing.CheckoutSession{ID: "cs", Email: email}}

				resp, err := service.HandleWebhook(ctx, nil, "")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Status).To(Equal("error"))
				Expect(resp.Message).To(Equal(message))
			},
			Entry("missing email", "", "No customer email found"),
			Entry("garage already active", "sud@example.com", "Garage not found"),
			Entry("unknown email", "who@example.com", "Garage not found"),
		)

		It("deactivates every garage of a deleted subscription", func() {
			a := seed("a", true, strPtr("cus_9"))
			b := seed("b", true, strPtr("cus_9"))
			other := seed("c", true, strPtr("cus_1"))
			verifier.event = billing.Event{Type: billing.EventSubscriptionDeleted, Subscription: &billing.Subscription{CustomerID: "cus_9", Status: "canceled"}}

			resp, err := service.HandleWebhook(ctx, nil, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(Equal("Subscription ended"))

			Expect(reload(a.ID).IsActive).To(BeFalse())
			Expect(*reload(b.ID).PaymentStatus).To(Equal("subscription_ended"))
			Expect(reload(other.ID).IsActive).To(BeTrue())
			Expect(publisher.types()).To(HaveLen(2))
		})

		DescribeTable("mirrors subscription updates",
			func(status string, active bool) {
				g := seed("nord", !active, strPtr("cus_2"))
				verifier.event = billing.Event{Type: billing.EventSubscriptionUpdated, Subscription: &billing.Subscription{CustomerID: "cus_2", Status: status}}

				_, err := service.HandleWebhook(ctx, nil, "")
				Expect(err).NotTo(HaveOccurred())

				stored := reload(g.ID)
				Expect(stored.IsActive).To(Equal(active))
				Expect(*stored.PaymentStatus).To(Equal(status))
			},
			Entry("active", "active", true),
			Entry("trialing", "trialing", true),
			Entry("past_due", "past_due", false),
		)

		It("acknowledges other event types", func() {
			verifier.event = billing.Event{Type: "invoice.paid"}
			resp, err := service.HandleWebhook(ctx, nil, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("received"))
		})

		It("rejects unverifiable payloads with 400", func() {
			verifier.err = billing.ErrInvalidSignature
			_, err := service.HandleWebhook(ctx, []byte("{}"), "bad")
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
			Expect(err.Error()).To(Equal("Invalid signature"))
		})

		It("answers 503 when billing is not configured", func() {
			unconfigured := billing.NewService(billingPostgres.NewBillingRepository(db), nil, nil, nil, "", quietLogger())
			_, err := unconfigured.HandleWebhook(ctx, nil, "")
			Expect(statusOf(err)).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("CreatePortalSession", func() {
		caller := func(g *accountDatamodel.Garage) account.Account {
			return &account.Garage{GarageID: g.ID, Login: g.Username, Active: g.IsActive}
		}

		It("builds the return url from the origin and language", func() {
			g := seed("nord", true, strPtr("cus_7"))

			resp, err := service.CreatePortalSession(ctx, caller(g), "https://dash.example.com/", "en")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.URL).To(Equal("https://billing.example.com/session/cus_7"))
			Expect(portal.returnURL).To(Equal("https://dash.example.com/dashboard/en/settings"))
		})

		It("falls back to the configured frontend and french", func() {
			g := seed("nord", true, strPtr("cus_7"))

			_, err := service.CreatePortalSession(ctx, caller(g), "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(portal.returnURL).To(Equal("https://app.example.com/dashboard/fr/settings"))
		})

		It("needs an active garage with a customer id", func() {
			inactive := seed("off", false, strPtr("cus_1"))
			_, err := service.CreatePortalSession(ctx, caller(inactive), "", "fr")
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))

			unbilled := seed("free", true, nil)
			_, err = service.CreatePortalSession(ctx, caller(unbilled), "", "fr")
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("refuses other account kinds and bad languages", func() {
			staff := &account.StaffUser{UserID: 1, Name: "root", Active: true}
			_, err := service.CreatePortalSession(ctx, staff, "", "fr")
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			g := seed("nord", true, strPtr("cus_7"))
			_, err = service.CreatePortalSession(ctx, caller(g), "", "../admin")
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("accepts only the dashboard locales",
			func(lang string, status int) {
				g := seed("nord", true, strPtr("cus_7"))
				_, err := service.CreatePortalSession(ctx, caller(g), "", lang)
				if status == http.StatusOK {
					Expect(err).NotTo(HaveOccurred())
					return
				}
				Expect(statusOf(err)).To(Equal(status))
			},
			Entry("french", "fr", http.StatusOK),
			Entry("english", "en", http.StatusOK),
			Entry("german", "de", http.StatusBadRequest),
			Entry("regional english", "en-us", http.StatusBadRequest),
			Entry("upper case", "FR", http.StatusBadRequest),
		)

		It("maps provider failures to 400", func() {
			g := seed("nord", true, strPtr("cus_7"))
			portal.err = errors.New("stripe down")
			_, err := service.CreatePortalSession(ctx, caller(g), "", "fr")
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})
})
