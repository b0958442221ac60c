package message_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/events"
	"github.com/apdq/deliver-backend/internal/message"
	messagePostgres "github.com/apdq/deliver-backend/internal/message/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
)

var _ = Describe("Message Service", func() {
	var (
		ctx       context.Context
		service   *message.Service
		publisher *recordingPublisher
		f         fixture
		clock     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		_, err = testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())
		f = seedFixture(db)

		publisher = &recordingPublisher{}
		clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		service = message.NewService(messagePostgres.NewMessageRepository(db), publisher, quietLogger()).
			WithClock(func() time.Time {
				clock = clock.Add(time.Minute)
				return clock
			})
	})

	Describe("SendAdminMessage", func() {
		It("addresses every garage the admin created when to_all is set", func() {
			resp, err := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "Hi", Content: "All", ToAll: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.GarageIDs).To(ConsistOf(f.nord.ID(), f.sud.ID(), f.inactive.ID()))
			Expect(resp.IsRead).To(BeFalse())

			sent := publisher.last()
			Expect(sent.EventType()).To(Equal(events.EventTypeMessageSent))
			Expect(sent.Channel).To(Equal(events.ChannelAdmin))
			Expect(sent.RecipientIDs).To(HaveLen(3))
		})

		It("accepts explicit active garages created by the admin", func() {
			resp, err := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{
				Title: "Hi", Content: "Some", GarageIDs: []int64{f.sud.ID(), f.nord.ID(), f.sud.ID()},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.GarageIDs).To(ConsistOf(f.nord.ID(), f.sud.ID()))
		})

		DescribeTable("rejects garages the admin may not address",
			func(pick func(fixture) int64) {
				_, err := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{
					Title: "Hi", Content: "Some", GarageIDs: []int64{f.nord.ID(), pick(f)},
				})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidRecipient))
				Expect(appErr.Details).To(HaveKeyWithValue("invalid_ids", []int64{pick(f)}))
			},
			Entry("inactive garage", func(f fixture) int64 { return f.inactive.ID() }),
			Entry("garage of another admin", func(f fixture) int64 { return f.foreign.ID() }),
			Entry("unknown garage", func(f fixture) int64 { return 9999 }),
		)

		It("refuses garage callers and invalid payloads", func() {
			_, err := service.SendAdminMessage(ctx, f.nord, message.CreateAdminMessageDTO{Title: "x", Content: "y", ToAll: true})
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			_, err = service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "", Content: "y"})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("garage inbox", func() {
		It("lists newest first with the garage's own read flag", func() {
			first, err := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "First", Content: "1", ToAll: true})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "Second", Content: "2", GarageIDs: []int64{f.sud.ID()}})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.MarkAdminMessageRead(ctx, f.nord, first.ID)
			Expect(err).NotTo(HaveOccurred())

			nordInbox, err := service.GarageInbox(ctx, f.nord)
			Expect(err).NotTo(HaveOccurred())
			Expect(nordInbox).To(HaveLen(1))
			Expect(nordInbox[0].IsRead).To(BeTrue())

			sudInbox, err := service.GarageInbox(ctx, f.sud)
			Expect(err).NotTo(HaveOccurred())
			Expect(sudInbox).To(HaveLen(2))
			Expect(sudInbox[0].Title).To(Equal("Second"))
			Expect(sudInbox[1].IsRead).To(BeFalse())
		})

		It("marks read idempotently and 404s for non recipients", func() {
			msg, err := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "T", Content: "C", GarageIDs: []int64{f.nord.ID()}})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.MarkAdminMessageRead(ctx, f.nord, msg.ID)
			Expect(err).NotTo(HaveOccurred())
			resp, err := service.MarkAdminMessageRead(ctx, f.nord, msg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.GarageID).To(Equal(f.nord.ID()))

			_, err = service.MarkAdminMessageRead(ctx, f.sud, msg.ID)
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("garage to operator channel", func() {
		It("sends to the caller's operators and feeds their inbox", func() {
			resp, err := service.SendGarageMessage(ctx, f.nord, message.CreateGarageMessageDTO{Title: "Shift", Content: "Tonight", ToAll: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.RemorqueurIDs).To(ConsistOf(f.jean.ID(), f.paul.ID()))

			inbox, err := service.OperatorInbox(ctx, f.jean)
			Expect(err).NotTo(HaveOccurred())
			Expect(inbox).To(HaveLen(1))

			_, err = service.MarkGarageMessageRead(ctx, f.jean, resp.ID)
			Expect(err).NotTo(HaveOccurred())
			inbox, err = service.OperatorInbox(ctx, f.jean)
			Expect(err).NotTo(HaveOccurred())
			Expect(inbox[0].IsRead).To(BeTrue())

			inbox, err = service.OperatorInbox(ctx, f.luc)
			Expect(err).NotTo(HaveOccurred())
			Expect(inbox).To(BeEmpty())
		})

		It("rejects operators of another garage", func() {
			_, err := service.SendGarageMessage(ctx, f.nord, message.CreateGarageMessageDTO{Title: "x", Content: "y", RemorqueurIDs: []int64{f.jean.ID(), f.luc.ID()}})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("lists and deletes only the sender's messages", func() {
			resp, err := service.SendGarageMessage(ctx, f.nord, message.CreateGarageMessageDTO{Title: "x", Content: "y", RemorqueurIDs: []int64{f.jean.ID()}})
			Expect(err).NotTo(HaveOccurred())

			sent, err := service.ListSentGarageMessages(ctx, f.nord)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(HaveLen(1))

			_, err = service.DeleteGarageMessage(ctx, f.sud, message.DeleteMessageDTO{MessageID: resp.ID})
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			_, err = service.DeleteGarageMessage(ctx, f.nord, message.DeleteMessageDTO{MessageID: resp.ID})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.DeleteGarageMessage(ctx, f.nord, message.DeleteMessageDTO{MessageID: resp.ID})
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("admin deletes", func() {
		It("deletes one or many and 404s when nothing matched", func() {
			a, _ := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "a", Content: "a", ToAll: true})
			b, _ := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "b", Content: "b", ToAll: true})
			c, _ := service.SendAdminMessage(ctx, f.admin, message.CreateAdminMessageDTO{Title: "c", Content: "c", ToAll: true})

			resp, err := service.DeleteAdminMessage(ctx, message.DeleteMessageDTO{MessageID: a.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(ContainSubstring("deleted successfully"))

			resp, err = service.DeleteAdminMessages(ctx, message.DeleteMessagesDTO{MessageIDs: []int64{b.ID, c.ID, 9999}})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(Equal("Successfully deleted 2 messages"))

			_, err = service.DeleteAdminMessages(ctx, message.DeleteMessagesDTO{MessageIDs: []int64{a.ID}})
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))

			all, err := service.ListAdminMessages(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})
	})
})
