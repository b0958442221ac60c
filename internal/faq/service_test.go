package faq_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/faq"
	faqPostgres "github.com/apdq/deliver-backend/internal/faq/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
)

var _ = Describe("FAQ Service", func() {
	var (
		ctx     context.Context
		service *faq.Service
		editor  account.Account
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		service = faq.NewService(faqPostgres.NewFAQRepository(db), quietLogger())
		editor = &account.StaffUser{UserID: 1, Name: "root", Active: true, AssignedRole: account.Role{
			Name:        account.RoleAPDQ,
			Permissions: []account.Permission{{ID: 4, Name: account.PermManageFAQ}},
		}}
	})

	It("creates entries and filters them by language", func() {
		// Given
		_, err := service.Create(ctx, editor, faq.CreateFAQDTO{Question: "Horaires ?", Answer: "24/7", Language: "fr"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, editor, faq.CreateFAQDTO{Question: "Hours?", Answer: "24/7", Language: "en"})
		Expect(err).NotTo(HaveOccurred())

		// When
		fr, err := service.ListByLanguage(ctx, "fr")

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(fr).To(HaveLen(1))
		Expect(fr[0].Question).To(Equal("Horaires ?"))

		all, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
	})

	DescribeTable("rejects unsupported languages",
		func(language string) {
			_, err := service.ListByLanguage(ctx, language)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		},
		Entry("german", "de"),
		Entry("empty", ""),
		Entry("upper case", "FR"),
	)

	It("validates the payload", func() {
		_, err := service.Create(ctx, editor, faq.CreateFAQDTO{Question: "", Answer: "a", Language: "fr"})
		Expect(statusOf(err)).To(Equal(http.StatusBadRequest))

		_, err = service.Create(ctx, editor, faq.CreateFAQDTO{Question: "q", Answer: "a", Language: "es"})
		Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
	})

	It("requires manage_faq", func() {
		reader := &account.StaffUser{UserID: 2, Name: "viewer", Active: true, AssignedRole: account.Role{Name: account.RoleAPDQ}}
		_, err := service.Create(ctx, reader, faq.CreateFAQDTO{Question: "q", Answer: "a", Language: "fr"})
		Expect(statusOf(err)).To(Equal(http.StatusForbidden))

		garage := &account.Garage{GarageID: 1, Login: "nord", Active: true}
		_, err = service.Delete(ctx, garage, 1)
		Expect(statusOf(err)).To(Equal(http.StatusForbidden))
	})

	It("deletes an entry once", func() {
		created, err := service.Create(ctx, editor, faq.CreateFAQDTO{Question: "q", Answer: "a", Language: "en"})
		Expect(err).NotTo(HaveOccurred())

		resp, err := service.Delete(ctx, editor, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.FAQID).To(Equal(created.ID))
		Expect(resp.Message).To(ContainSubstring("successfully deleted"))

		_, err = service.Delete(ctx, editor, created.ID)
		Expect(statusOf(err)).To(Equal(http.StatusNotFound))
	})
})
