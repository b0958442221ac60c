package auth_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
)

var _ = Describe("AuthService", func() {
	var (
		service *auth.Service
		repo    *mockRepository
		hasher  *auth.Hasher
		issuer  *auth.TokenIssuer
		ctx     context.Context
		digest  string
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		hasher, err = auth.NewHasher("pepper")
		Expect(err).NotTo(HaveOccurred())
		issuer, err = auth.NewTokenIssuer(testSecret, testLogger())
		Expect(err).NotTo(HaveOccurred())
		digest, err = hasher.Hash("correct-pw")
		Expect(err).NotTo(HaveOccurred())

		repo = newMockRepository()
		garage := &account.Garage{GarageID: 2, Name: "Alice's Garage", Login: "alice", Hash: digest, Active: true, AssignedRole: garageRole()}
		repo.garages[2] = garage
		repo.operators[3] = &account.Operator{OperatorID: 3, Login: "bob", Hash: digest, Active: true, GarageID: 2, Garage: garage,
			AssignedRole: account.Role{ID: 4, Name: account.RoleOperator}}
		repo.staff[1] = &account.StaffUser{UserID: 1, Name: "root", Hash: digest, Active: true,
			AssignedRole: account.Role{ID: 1, Name: account.RoleSuperAdmin, Permissions: []account.Permission{{ID: 1, Name: account.PermCreateGarage}}}}

		service = auth.NewService(repo, hasher, issuer, testLogger())
		repo.lookups = nil
	})

	Describe("Login", func() {
		Context("when credentials are valid", func() {
			It("returns a token and the garage name for a garage", func() {
				// Given
				dto := auth.LoginDTO{Username: "alice", Password: "correct-pw"}

				// When
				result, err := service.Login(ctx, dto)

				// Then
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Token).NotTo(BeEmpty())
				resp := result.ToResponse()
				Expect(resp.TokenType).To(Equal("bearer"))
				Expect(resp.User.ID).To(Equal(int64(2)))
				Expect(*resp.GarageName).To(Equal("Alice's Garage"))
				Expect(*resp.User.GarageName).To(Equal("Alice's Garage"))
				Expect(resp.Role.Name).To(Equal(account.RoleGarage))
				Expect(resp.Role.Permissions).To(HaveLen(2))

				claims, err := issuer.Verify(result.Token)
				Expect(err).NotTo(HaveOccurred())
				Expect(claims.Role).To(Equal("garage"))
				Expect(repo.lookups).To(Equal([]string{"staff", "garage"}))
			})

			It("uses the owning garage name for an operator", func() {
				result, err := service.Login(ctx, auth.LoginDTO{Username: "bob", Password: "correct-pw"})
				Expect(err).NotTo(HaveOccurred())
				Expect(*result.ToResponse().GarageName).To(Equal("Alice's Garage"))
				Expect(repo.lookups).To(Equal([]string{"staff", "garage", "remorqueur"}))
			})

			It("has no garage name for staff", func() {
				result, err := service.Login(ctx, auth.LoginDTO{Username: "root", Password: "correct-pw"})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.ToResponse().GarageName).To(BeNil())
				Expect(repo.lookups).To(Equal([]string{"staff"}))
			})

			It("prefers the staff user when a username exists in two tables", func() {
				// Given
				repo.garages[9] = &account.Garage{GarageID: 9, Name: "Shadow", Login: "root", Hash: digest, AssignedRole: garageRole()}

				// When
				result, err := service.Login(ctx, auth.LoginDTO{Username: "root", Password: "correct-pw"})

				// Then
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Account.Kind()).To(Equal(account.KindStaff))
			})
		})

		Context("when credentials are invalid", func() {
			It("does not reveal whether the username exists", func() {
				_, unknownErr := service.Login(ctx, auth.LoginDTO{Username: "nobody", Password: "correct-pw"})
				_, wrongErr := service.Login(ctx, auth.LoginDTO{Username: "alice", Password: "wrong-pw"})

				Expect(unknownErr).To(Equal(internal.ErrInvalidCredentials))
				Expect(wrongErr).To(Equal(internal.ErrInvalidCredentials))
			})

			It("rejects an empty username as a validation error", func() {
				_, err := service.Login(ctx, auth.LoginDTO{Username: "", Password: "pw"})
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
			})
		})

		It("surfaces storage failures as internal errors", func() {
			repo.err = errors.New("connection refused")
			_, err := service.Login(ctx, auth.LoginDTO{Username: "alice", Password: "correct-pw"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
		})
	})

	Describe("Authenticate", func() {
		It("round trips a freshly issued token to the same account", func() {
			result, err := service.Login(ctx, auth.LoginDTO{Username: "bob", Password: "correct-pw"})
			Expect(err).NotTo(HaveOccurred())

			acc, err := service.Authenticate(ctx, result.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(acc.ID()).To(Equal(int64(3)))
			Expect(acc.RoleTag()).To(Equal("remorqueur"))
		})

		It("rejects an empty token", func() {
			_, err := service.Authenticate(ctx, "")
			Expect(err).To(Equal(internal.ErrUnauthenticated))
		})

		It("rejects a token whose account vanished", func() {
			result, err := service.Login(ctx, auth.LoginDTO{Username: "alice", Password: "correct-pw"})
			Expect(err).NotTo(HaveOccurred())
			delete(repo.garages, 2)

			_, err = service.Authenticate(ctx, result.Token)
			Expect(err).To(Equal(internal.ErrUnauthenticated))
		})
	})
})
