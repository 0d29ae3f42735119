package database

import (
	"log"

	"stylit/config"
	"stylit/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.Look{},
		&models.LookImage{},
		&models.CreditPackage{},
		&models.CreditPurchase{},
		&models.Notification{},
	)
}

// SeedPackages inserts the credit bundle catalog when empty.
func SeedPackages(db *gorm.DB) {
	var n int64
	db.Model(&models.CreditPackage{}).Count(&n)
	if n > 0 {
		return
	}
	packages := []models.CreditPackage{
		{Name: "Starter", Credits: 10, PriceCents: 10000, Currency: "KES", Active: true},
		{Name: "Regular", Credits: 30, PriceCents: 25000, Currency: "KES", Active: true},
		{Name: "Stylist", Credits: 100, PriceCents: 70000, Currency: "KES", Active: true},
	}
	if err := db.Create(&packages).Error; err != nil {
		log.Printf("[DB] seed packages: %v", err)
	}
}
