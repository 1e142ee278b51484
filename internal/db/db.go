package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"darkweb/internal/config"
	"darkweb/internal/models"
	"darkweb/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database, migrates and seeds it, and stores the
// handle in DB.
func Init(cfg *config.Config) *gorm.DB {
	conn, err := Open(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	utils.Logger.Info("Database connection established", zap.String("driver", cfg.DBDriver))

	if err := Migrate(conn); err != nil {
		utils.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	utils.Logger.Info("Database migration completed")

	if err := SeedRoles(conn); err != nil {
		utils.Logger.Fatal("Failed to seed roles", zap.Error(err))
	}

	DB = conn
	return conn
}

// Open picks the gorm dialector from cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "":
		if dsn == "" {
			// Fallback for local dev if not set
			dsn = "host=localhost user=postgres password=postgres dbname=darkweb port=5432 sslmode=disable"
		}
		dialector = postgres.Open(dsn)
	case "mysql":
		if dsn == "" {
			dsn = "root:root@tcp(127.0.0.1:3306)/darkweb?charset=utf8mb4&parseTime=True&loc=Local"
		}
		dialector = mysql.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "darkweb.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gLogger})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return conn, nil
}

// OpenMemory opens a private in-memory sqlite database, migrated and seeded.
// name keeps concurrently open databases apart.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(name, "/", "_"))
	conn, err := Open(&config.Config{DBDriver: "sqlite", DatabaseURL: dsn, LogLevel: "silent"})
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	if err := SeedRoles(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Post{},
		&models.Reply{},
		&models.Comment{},
	)
}

// SeedRoles inserts missing reference roles and refreshes the permission
// bits of existing ones.
func SeedRoles(conn *gorm.DB) error {
	for _, seed := range models.DefaultRoles {
		var role models.Role
		err := conn.Where(models.Role{Name: seed.Name}).
			Attrs(models.Role{Permissions: seed.Permissions, IsDefault: seed.Default}).
			FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", seed.Name, err)
		}
		if role.Permissions != seed.Permissions || role.IsDefault != seed.Default {
			if err := conn.Model(&role).Updates(map[string]interface{}{
				"permissions": seed.Permissions,
				"is_default":  seed.Default,
			}).Error; err != nil {
				return fmt.Errorf("update role %s: %w", seed.Name, err)
			}
		}
	}
	return nil
}

// DefaultRole returns the role new users receive.
func DefaultRole(conn *gorm.DB) (*models.Role, error) {
	var role models.Role
	if err := conn.Where(&models.Role{IsDefault: true}).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
