package cmd

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	gormMySQL "gorm.io/driver/mysql"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/apdq/deliver-backend/internal"
)

// sqlDriver maps the configured engine onto the database/sql driver name.
func sqlDriver(cfg internal.DatabaseConfig) (string, error) {
	switch cfg.DriverName() {
	case internal.DriverPostgres:
		return "pgx", nil
	case internal.DriverMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// initDB opens and verifies the connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver, err := sqlDriver(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm layers gorm over the existing pool so both share connections.
func initGorm(cfg internal.DatabaseConfig, db *sqlx.DB, logLevel gormLogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DriverName() {
	case internal.DriverMySQL:
		dialector = gormMySQL.New(gormMySQL.Config{Conn: db.DB})
	default:
		dialector = gormPostgres.New(gormPostgres.Config{Conn: db.DB})
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
