package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, permissions and the first superadmin",
	Long: `Idempotently seed every permission and role. When SEED_ADMIN_USERNAME and
SEED_ADMIN_PASSWORD are set, a superadmin account is created as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := setupLogger(cfg)

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		gdb, err := initGorm(cfg.Database, db, gormLogger.Warn)
		if err != nil {
			return err
		}

		hasher, err := auth.NewHasher(cfg.Security.PasswordPepper)
		if err != nil {
			return err
		}

		return newSeeder(gdb, hasher, lg).Run(context.Background(), seedOptions{
			Clear:         clearData,
			AdminUsername: os.Getenv("SEED_ADMIN_USERNAME"),
			AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		})
	},
}

// clearTables lists every seeded or account-owned table, children first.
var clearTables = []string{
	"garage_message_recipients",
	"garage_messages",
	"admin_message_recipients",
	"admin_messages",
	"remorqueurs",
	"garages",
	"users",
	"role_permission",
	"roles",
	"permissions",
}

type seedOptions struct {
	Clear         bool
	AdminUsername string
	AdminPassword string
}

type seeder struct {
	db     *gorm.DB
	hasher *auth.Hasher
	logger *slog.Logger
}

func newSeeder(db *gorm.DB, hasher *auth.Hasher, logger *slog.Logger) *seeder {
	return &seeder{db: db, hasher: hasher, logger: logger}
}

func (s *seeder) Run(ctx context.Context, opts seedOptions) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clear {
			for _, table := range clearTables {
				if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
			s.logger.Info("cleared account tables")
		}

		roles, err := s.seedRoles(tx)
		if err != nil {
			return err
		}

		if opts.AdminUsername == "" || opts.AdminPassword == "" {
			s.logger.Info("SEED_ADMIN_USERNAME or SEED_ADMIN_PASSWORD not set, skipping superadmin")
			return nil
		}
		return s.seedAdmin(tx, roles[account.RoleSuperAdmin], opts.AdminUsername, opts.AdminPassword)
	})
}

func (s *seeder) seedRoles(tx *gorm.DB) (map[string]accountDatamodel.Role, error) {
	perms := make(map[string]accountDatamodel.Permission)
	for _, name := range account.AllPermissions() {
		p := accountDatamodel.Permission{Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(&p).Error; err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", name, err)
		}
		perms[name] = p
	}

	roles := make(map[string]accountDatamodel.Role)
	for _, def := range account.DefaultRoles {
		role := accountDatamodel.Role{Name: def.Name}
		if err := tx.Where("name = ?", def.Name).FirstOrCreate(&role).Error; err != nil {
			return nil, fmt.Errorf("seed role %s: %w", def.Name, err)
		}

		granted := make([]accountDatamodel.Permission, 0, len(def.Permissions))
		for _, name := range def.Permissions {
			granted = append(granted, perms[name])
		}
		if err := tx.Model(&role).Association("Permissions").Replace(granted); err != nil {
			return nil, fmt.Errorf("grant permissions to %s: %w", def.Name, err)
		}
		role.Permissions = granted
		roles[def.Name] = role
		s.logger.Info("seeded role", "role", def.Name, "permissions", len(granted))
	}
	return roles, nil
}

func (s *seeder) seedAdmin(tx *gorm.DB, role accountDatamodel.Role, username, password string) error {
	var existing accountDatamodel.User
	err := tx.Where("username = ?", username).First(&existing).Error
	if err == nil {
		s.logger.Info("superadmin already exists", "username", username)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up superadmin: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash superadmin password: %w", err)
	}
	admin := accountDatamodel.User{
		Username: username,
		Password: digest,
		RoleID:   role.ID,
		IsActive: true,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}
	s.logger.Info("seeded superadmin", "username", username, "id", admin.ID)
	return nil
}
