package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harumcare/harumcare-backend/internal/domain/content"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type BlogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.Blog) ([]*types.Blog, error)
	GetByID(ctx context.Context, tx *gorm.DB, blogID uuid.UUID) (*types.Blog, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Blog, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Blog, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, blogID uuid.UUID, fields map[string]any) error
	IncrementViewCount(ctx context.Context, tx *gorm.DB, blogID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, blogID uuid.UUID) error
}

type blogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlogRepo(db *gorm.DB, baseLog *logger.Logger) BlogRepo {
	repoLog := baseLog.With("repo", "BlogRepo")
	return &blogRepo{db: db, log: repoLog}
}

func (br *blogRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.Blog) ([]*types.Blog, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if len(items) == 0 {
		return []*types.Blog{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (br *blogRepo) GetByID(ctx context.Context, tx *gorm.DB, blogID uuid.UUID) (*types.Blog, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var result types.Blog
	if err := transaction.WithContext(ctx).
		Where("id = ?", blogID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (br *blogRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Blog, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var result types.Blog
	if err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (br *blogRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Blog{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (br *blogRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Blog, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	query := transaction.WithContext(ctx).Model(&types.Blog{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var results []*types.Blog
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (br *blogRepo) UpdateFields(ctx context.Context, tx *gorm.DB, blogID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Blog{}).
		Where("id = ?", blogID).
		Updates(fields).Error
}

func (br *blogRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, blogID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Blog{}).
		Where("id = ?", blogID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (br *blogRepo) Delete(ctx context.Context, tx *gorm.DB, blogID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", blogID).
		Delete(&types.Blog{}).Error
}
