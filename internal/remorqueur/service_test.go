package remorqueur_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/remorqueur"
	remorqueurPostgres "github.com/apdq/deliver-backend/internal/remorqueur/postgres"
	"github.com/apdq/deliver-backend/internal/testutil"
)

var _ = Describe("Remorqueur Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		roles   map[string]accountDatamodel.Role
		service *remorqueur.Service
		nord    *account.Garage
		sud     *account.Garage
		dto     remorqueur.CreateRemorqueurDTO
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		roles, err = testutil.SeedRoles(db)
		Expect(err).NotTo(HaveOccurred())

		service = remorqueur.NewService(remorqueurPostgres.NewRemorqueurRepository(db), fakeHasher{}, quietLogger())
		nord = seedGarage(db, roles, "nord")
		sud = seedGarage(db, roles, "sud")
		dto = remorqueur.CreateRemorqueurDTO{
			GarageName: "nord",
			Name:       "Jean",
			Tel:        "514-555-0101",
			Username:   "jean",
			Password:   "tow-truck-1",
			RoleName:   account.RoleOperator,
		}
	})

	Describe("Create", func() {
		It("creates an active operator for the caller's garage", func() {
			resp, err := service.Create(ctx, nord, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.GarageName).To(Equal("nord"))
			Expect(resp.IsActive).To(BeTrue())
			Expect(resp.Role.Name).To(Equal(account.RoleOperator))
			Expect(resp.Role.Permissions).To(BeEmpty())
		})

		It("returns 404 for an unknown garage", func() {
			dto.GarageName = "ghost"
			_, err := service.Create(ctx, nord, dto)
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))
		})

		It("returns 403 when creating for another garage", func() {
			dto.GarageName = "sud"
			_, err := service.Create(ctx, nord, dto)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})

		It("returns 400 for a taken username", func() {
			_, err := service.Create(ctx, nord, dto)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, nord, dto)
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("rejects roles other than remorqueur with 400",
			func(roleName string) {
				dto.RoleName = roleName
				_, err := service.Create(ctx, nord, dto)
				Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
			},
			Entry("unknown role", "ghost"),
			Entry("garage role", account.RoleGarage),
			Entry("staff role", account.RoleSuperAdmin),
		)

		It("refuses staff callers", func() {
			admin := &account.StaffUser{UserID: 1, AssignedRole: account.RoleFromDataModel(roles[account.RoleSuperAdmin])}
			_, err := service.Create(ctx, admin, dto)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})

		It("refuses garages whose role lacks the permission", func() {
			nord.AssignedRole = account.Role{Name: account.RoleGarage}
			_, err := service.Create(ctx, nord, dto)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Update", func() {
		var created *remorqueur.RemorqueurResponse

		BeforeEach(func() {
			var err error
			created, err = service.Create(ctx, nord, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("applies only the provided fields", func() {
			inactive := false
			resp, err := service.Update(ctx, nord, created.ID, remorqueur.UpdateRemorqueurDTO{
				Tel:      strPtr("514-555-0199"),
				IsActive: &inactive,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Name).To(Equal("Jean"))
			Expect(resp.Tel).To(Equal("514-555-0199"))
			Expect(resp.IsActive).To(BeFalse())
		})

		It("allows keeping the same username", func() {
			_, err := service.Update(ctx, nord, created.ID, remorqueur.UpdateRemorqueurDTO{Username: strPtr("jean")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a username used by another operator", func() {
			other := dto
			other.Username = "paul"
			_, err := service.Create(ctx, nord, other)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, nord, created.ID, remorqueur.UpdateRemorqueurDTO{Username: strPtr("paul")})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))
		})

		It("trims the new username before checking and storing it", func() {
			other := dto
			other.Username = "paul"
			_, err := service.Create(ctx, nord, other)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, nord, created.ID, remorqueur.UpdateRemorqueurDTO{Username: strPtr("  paul ")})
			Expect(statusOf(err)).To(Equal(http.StatusBadRequest))

			_, err = service.Update(ctx, nord, created.ID, remorqueur.UpdateRemorqueurDTO{Username: strPtr("  luc\t")})
			Expect(err).NotTo(HaveOccurred())
			var row accountDatamodel.Remorqueur
			Expect(db.First(&row, created.ID).Error).To(Succeed())
			Expect(row.Username).To(Equal("luc"))
		})

		It("rehashes a new password", func() {
			_, err := service.Update(ctx, nord, created.ID, remorqueur.UpdateRemorqueurDTO{Password: strPtr("brand-new-pw")})
			Expect(err).NotTo(HaveOccurred())

			var row accountDatamodel.Remorqueur
			Expect(db.First(&row, created.ID).Error).To(Succeed())
			Expect(row.Password).To(Equal("hashed:brand-new-pw"))
		})

		It("returns 404 and 403 for missing or foreign operators", func() {
			_, err := service.Update(ctx, nord, 9999, remorqueur.UpdateRemorqueurDTO{})
			Expect(statusOf(err)).To(Equal(http.StatusNotFound))

			_, err = service.Update(ctx, sud, created.ID, remorqueur.UpdateRemorqueurDTO{Name: strPtr("x")})
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Delete and ListForGarage", func() {
		It("lists only the caller's operators and deletes its own", func() {
			first, err := service.Create(ctx, nord, dto)
			Expect(err).NotTo(HaveOccurred())

			other := dto
			other.GarageName = "sud"
			other.Username = "luc"
			_, err = service.Create(ctx, sud, other)
			Expect(err).NotTo(HaveOccurred())

			list, err := service.ListForGarage(ctx, nord)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].GarageName).To(Equal("nord"))

			_, err = service.Delete(ctx, sud, first.ID)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			resp, err := service.Delete(ctx, nord, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(Equal("Remorqueur successfully deleted"))
			Expect(resp.RemorqueurID).To(Equal(first.ID))

			list, err = service.ListForGarage(ctx, nord)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})
	})
})
