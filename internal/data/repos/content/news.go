package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harumcare/harumcare-backend/internal/domain/content"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type ListFilter struct {
	Status   string
	Category string
	Page     int
	Limit    int
}

type NewsRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.News) ([]*types.News, error)
	GetByID(ctx context.Context, tx *gorm.DB, newsID uuid.UUID) (*types.News, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.News, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.News, int64, error)
	ListPublishedByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, limit int) ([]*types.News, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, newsID uuid.UUID, fields map[string]any) error
	IncrementViewCount(ctx context.Context, tx *gorm.DB, newsID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, newsID uuid.UUID) error
}

type newsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNewsRepo(db *gorm.DB, baseLog *logger.Logger) NewsRepo {
	repoLog := baseLog.With("repo", "NewsRepo")
	return &newsRepo{db: db, log: repoLog}
}

func (nr *newsRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.News) ([]*types.News, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if len(items) == 0 {
		return []*types.News{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (nr *newsRepo) GetByID(ctx context.Context, tx *gorm.DB, newsID uuid.UUID) (*types.News, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var result types.News
	if err := transaction.WithContext(ctx).
		Where("id = ?", newsID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (nr *newsRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.News, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var result types.News
	if err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (nr *newsRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.News{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (nr *newsRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.News, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	query := transaction.WithContext(ctx).Model(&types.News{})
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

	var results []*types.News
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (nr *newsRepo) ListPublishedByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, limit int) ([]*types.News, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if limit < 1 {
		limit = 5
	}

	var results []*types.News
	if err := transaction.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, types.StatusPublished).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *newsRepo) UpdateFields(ctx context.Context, tx *gorm.DB, newsID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.News{}).
		Where("id = ?", newsID).
		Updates(fields).Error
}

func (nr *newsRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, newsID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.News{}).
		Where("id = ?", newsID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (nr *newsRepo) Delete(ctx context.Context, tx *gorm.DB, newsID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", newsID).
		Delete(&types.News{}).Error
}
