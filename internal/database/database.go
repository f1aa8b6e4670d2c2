package database

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklify/admin/internal/entities"
)

var defaultCategories = []entities.Category{
	{Name: "Văn học", Description: "Tiểu thuyết, truyện ngắn, thơ", IsActive: true},
	{Name: "Kinh tế", Description: "Kinh doanh, tài chính, quản trị", IsActive: true},
	{Name: "Khoa học", Description: "Khoa học tự nhiên và công nghệ", IsActive: true},
	{Name: "Kỹ năng sống", Description: "Phát triển bản thân", IsActive: true},
	{Name: "Thiếu nhi", Description: "Sách cho trẻ em", IsActive: true},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the sqlite database at dbPath, migrates the schema and
// seeds the default book categories.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Category{},
		&entities.Book{},
		&entities.AuditEvent{},
		&entities.Setting{},
		&entities.SubscriptionPlan{},
		&entities.UserSubscription{},
		&entities.Payment{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("Database initialized")

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the underlying connection.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		var existing entities.Category
		result := d.DB.Unscoped().Where("name = ?", category.Name).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Debug().Str("category", category.Name).Msg("Created category")
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}
