package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

// DirectoryRepository reads the identity and master-data tables owned by
// other services.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetActiveUser(ctx context.Context, id uuid.UUID, role model.UserRole) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", id, role, true).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *DirectoryRepository) ListActiveByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ClassificationExists checks that the category, the subcategory under that
// category, and the brand all exist.
func (r *DirectoryRepository) ClassificationExists(ctx context.Context, categoryID, subcategoryID, brandID int64) (bool, error) {
	type result struct {
		Categories    int64
		Subcategories int64
		Brands        int64
	}
	var res result
	if err := r.db.WithContext(ctx).
		Raw(`SELECT
			(SELECT COUNT(*) FROM complaint_categories WHERE id = ?) AS categories,
			(SELECT COUNT(*) FROM complaint_subcategories WHERE id = ? AND category_id = ?) AS subcategories,
			(SELECT COUNT(*) FROM brands WHERE id = ?) AS brands`,
			categoryID, subcategoryID, categoryID, brandID).
		Scan(&res).Error; err != nil {
		return false, err
	}
	return res.Categories > 0 && res.Subcategories > 0 && res.Brands > 0, nil
}
