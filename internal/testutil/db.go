// Package testutil opens throwaway databases for repository and handler
// tests.
package testutil

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	faqDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/faq"
	messageDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/message"
	vehicleDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/vehicle"
)

// OpenDB returns an in-memory SQLite database with every table migrated.
// The pool is pinned to one connection so all queries see the same memory
// database.
func OpenDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&accountDatamodel.Permission{},
		&accountDatamodel.Role{},
		&accountDatamodel.User{},
		&accountDatamodel.Garage{},
		&accountDatamodel.Remorqueur{},
		&messageDatamodel.AdminMessage{},
		&messageDatamodel.AdminMessageRecipient{},
		&messageDatamodel.GarageMessage{},
		&messageDatamodel.GarageMessageRecipient{},
		&faqDatamodel.FAQ{},
		&vehicleDatamodel.Vehicle{},
		&vehicleDatamodel.NeutralPDF{},
		&vehicleDatamodel.DeactivationPDF{},
		&vehicleDatamodel.VehicleImage{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SeedRoles inserts the default roles and permissions and returns the roles
// keyed by name, permissions loaded.
func SeedRoles(db *gorm.DB) (map[string]accountDatamodel.Role, error) {
	perms := make(map[string]accountDatamodel.Permission)
	for _, name := range account.AllPermissions() {
		p := accountDatamodel.Permission{Name: name}
		if err := db.Create(&p).Error; err != nil {
			return nil, err
		}
		perms[name] = p
	}

	roles := make(map[string]accountDatamodel.Role)
	for _, def := range account.DefaultRoles {
		role := accountDatamodel.Role{Name: def.Name}
		for _, name := range def.Permissions {
			role.Permissions = append(role.Permissions, perms[name])
		}
		if err := db.Create(&role).Error; err != nil {
			return nil, err
		}
		roles[def.Name] = role
	}
	return roles, nil
}
