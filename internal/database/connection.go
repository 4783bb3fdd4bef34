// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/truckzone/truckzone-backend/internal/config"
	"github.com/truckzone/truckzone-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Booking{},
		&models.Payment{},
		&models.Blog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_listing ON products(sell_status, ads_status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_seller_created ON products(seller_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings(user_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

// SeedInitialData inserts the category and brand lookups and the starter blog
// posts. It is safe to run repeatedly.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	categories := []models.Category{
		{Slug: "mini-truck", Name: "Mini Truck"},
		{Slug: "pickup", Name: "Pickup"},
		{Slug: "covered-van", Name: "Covered Van"},
		{Slug: "heavy-truck", Name: "Heavy Truck"},
		{Slug: "dump-truck", Name: "Dump Truck"},
	}
	for _, category := range categories {
		if err := db.Where(models.Category{Slug: category.Slug}).
			Attrs(models.Category{Name: category.Name}).
			FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("failed to seed category %s: %w", category.Slug, err)
		}
	}

	brands := []models.Brand{
		{Slug: "tata", Name: "Tata"},
		{Slug: "ashok-leyland", Name: "Ashok Leyland"},
		{Slug: "eicher", Name: "Eicher"},
		{Slug: "mahindra", Name: "Mahindra"},
		{Slug: "isuzu", Name: "Isuzu"},
		{Slug: "hino", Name: "Hino"},
	}
	for _, brand := range brands {
		if err := db.Where(models.Brand{Slug: brand.Slug}).
			Attrs(models.Brand{Name: brand.Name}).
			FirstOrCreate(&brand).Error; err != nil {
			return fmt.Errorf("failed to seed brand %s: %w", brand.Slug, err)
		}
	}

	blogs := []models.Blog{
		{
			Title:  "How to inspect a used truck before buying",
			Body:   "Check the chassis for cracks and rust, look for oil leaks under the engine, and ask for the service history. Always take a test drive with a loaded bed if the seller allows it.",
			Author: "TruckZone",
		},
		{
			Title:  "Pricing your truck for a quick sale",
			Body:   "Compare listings of the same brand, model year and condition. Trucks with recent tyres and complete papers sell faster, so mention them in the description.",
			Author: "TruckZone",
		},
	}
	for _, blog := range blogs {
		if err := db.Where(models.Blog{Title: blog.Title}).
			Attrs(models.Blog{Body: blog.Body, Author: blog.Author}).
			FirstOrCreate(&blog).Error; err != nil {
			return fmt.Errorf("failed to seed blog %q: %w", blog.Title, err)
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
