package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harumcare/harumcare-backend/internal/domain/campaign"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type ListFilter struct {
	Category string
	Status   string // "active", "ended" or empty
	Page     int
	Limit    int
}

// Totals is the cross-campaign rollup behind the admin stats endpoint.
type Totals struct {
	TotalCampaigns     int64 `json:"total_campaigns"`
	TotalTargetAmount  int64 `json:"total_target_amount"`
	TotalCurrentAmount int64 `json:"total_current_amount"`
	TotalDonors        int64 `json:"total_donors"`
}

type CampaignRepo interface {
	Create(ctx context.Context, tx *gorm.DB, campaigns []*types.Campaign) ([]*types.Campaign, error)
	GetByID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*types.Campaign, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter, now time.Time) ([]*types.Campaign, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, fields map[string]any) error
	UpdateAggregates(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, currentAmount int64, donorCount int) error
	Delete(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) error
	Totals(ctx context.Context, tx *gorm.DB) (*Totals, error)
	CountActive(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	repoLog := baseLog.With("repo", "CampaignRepo")
	return &campaignRepo{db: db, log: repoLog}
}

func (cr *campaignRepo) Create(ctx context.Context, tx *gorm.DB, campaigns []*types.Campaign) ([]*types.Campaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(campaigns) == 0 {
		return []*types.Campaign{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (cr *campaignRepo) GetByID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*types.Campaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Campaign
	if err := transaction.WithContext(ctx).
		Where("id = ?", campaignID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *campaignRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter, now time.Time) ([]*types.Campaign, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Campaign{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	switch filter.Status {
	case types.StatusActive:
		query = query.Where("end_date >= ?", now)
	case types.StatusEnded:
		query = query.Where("end_date < ?", now)
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
		limit = 100
	}

	var results []*types.Campaign
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (cr *campaignRepo) UpdateFields(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id = ?", campaignID).
		Updates(fields).Error
}

// UpdateAggregates overwrites both derived fields unconditionally. Callers
// must pass freshly recomputed values, never increments.
func (cr *campaignRepo) UpdateAggregates(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, currentAmount int64, donorCount int) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id = ?", campaignID).
		Updates(map[string]any{
			"current_amount": currentAmount,
			"donor_count":    donorCount,
		}).Error
}

func (cr *campaignRepo) Delete(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", campaignID).
		Delete(&types.Campaign{}).Error
}

func (cr *campaignRepo) Totals(ctx context.Context, tx *gorm.DB) (*Totals, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result Totals
	if err := transaction.WithContext(ctx).
		Model(&types.Campaign{}).
		Select(
			"COUNT(*) AS total_campaigns",
			"COALESCE(SUM(target_amount), 0) AS total_target_amount",
			"COALESCE(SUM(current_amount), 0) AS total_current_amount",
			"COALESCE(SUM(donor_count), 0) AS total_donors",
		).
		Scan(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *campaignRepo) CountActive(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Campaign{}).
		Where("end_date >= ?", now).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
