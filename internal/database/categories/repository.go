// Package categories provides database operations for book categories.
//
// # Usage
//
//	repo := categories.NewRepository(db)
//	cats, err := repo.List(true)
package categories

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/booklify/admin/internal/entities"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrNameRequired     = errors.New("category name is required")
	// ErrCategoryInUse is returned when deleting a category that still has books.
	ErrCategoryInUse = errors.New("category has books")
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a category. Names are unique case-insensitively.
func (r *Repository) Create(name, description string) (*entities.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if exists, err := r.nameTaken(name, 0); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrCategoryExists
	}

	category := &entities.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := r.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// List returns categories ordered by name.
func (r *Repository) List(activeOnly bool) ([]entities.Category, error) {
	var cats []entities.Category
	query := r.db.Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&cats).Error
	return cats, err
}

// GetByID retrieves a category by ID.
func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Update renames or toggles a category. Nil arguments are left unchanged.
func (r *Repository) Update(id uint, name, description *string, isActive *bool) (*entities.Category, error) {
	category, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, ErrNameRequired
		}
		if exists, err := r.nameTaken(n, id); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrCategoryExists
		}
		updates["name"] = n
	}
	if description != nil {
		updates["description"] = strings.TrimSpace(*description)
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := r.db.Model(category).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete soft-deletes a category that no book references.
func (r *Repository) Delete(id uint) error {
	var inUse int64
	if err := r.db.Model(&entities.Book{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	result := r.db.Delete(&entities.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) nameTaken(name string, exceptID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
