package donation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harumcare/harumcare-backend/internal/domain/donation"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type ListFilter struct {
	Status        string
	PaymentMethod string
	Page          int
	Limit         int
}

type DonationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, donations []*types.Donation) ([]*types.Donation, error)
	GetByID(ctx context.Context, tx *gorm.DB, donationID uuid.UUID) (*types.Donation, error)
	GetByTransactionID(ctx context.Context, tx *gorm.DB, transactionID string) (*types.Donation, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, donationID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, donationID uuid.UUID) error
	DeleteByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) error
	ListByCampaignAndStatus(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, status string) ([]*types.Donation, error)
	ListCompletedByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, page, limit int) ([]*types.Donation, int64, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page, limit int) ([]*types.Donation, int64, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Donation, int64, error)
}

type donationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDonationRepo(db *gorm.DB, baseLog *logger.Logger) DonationRepo {
	repoLog := baseLog.With("repo", "DonationRepo")
	return &donationRepo{db: db, log: repoLog}
}

func (dr *donationRepo) Create(ctx context.Context, tx *gorm.DB, donations []*types.Donation) ([]*types.Donation, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(donations) == 0 {
		return []*types.Donation{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (dr *donationRepo) GetByID(ctx context.Context, tx *gorm.DB, donationID uuid.UUID) (*types.Donation, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var result types.Donation
	if err := transaction.WithContext(ctx).
		Where("id = ?", donationID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *donationRepo) GetByTransactionID(ctx context.Context, tx *gorm.DB, transactionID string) (*types.Donation, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var result types.Donation
	if err := transaction.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *donationRepo) UpdateFields(ctx context.Context, tx *gorm.DB, donationID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Donation{}).
		Where("id = ?", donationID).
		Updates(fields).Error
}

func (dr *donationRepo) Delete(ctx context.Context, tx *gorm.DB, donationID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", donationID).
		Delete(&types.Donation{}).Error
}

func (dr *donationRepo) DeleteByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	return transaction.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Delete(&types.Donation{}).Error
}

// ListByCampaignAndStatus is the recalculator's read path: every donation of
// the campaign in the given status, no pagination.
func (dr *donationRepo) ListByCampaignAndStatus(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, status string) ([]*types.Donation, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.Donation
	if err := transaction.WithContext(ctx).
		Where("campaign_id = ? AND payment_status = ?", campaignID, status).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *donationRepo) ListCompletedByCampaign(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, page, limit int) ([]*types.Donation, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.Donation{}).
		Where("campaign_id = ? AND payment_status = ?", campaignID, types.StatusCompleted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var results []*types.Donation
	if err := query.
		Order("completed_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (dr *donationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page, limit int) ([]*types.Donation, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.Donation{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var results []*types.Donation
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (dr *donationRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Donation, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Donation{})
	if filter.Status != "" {
		query = query.Where("payment_status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
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

	var results []*types.Donation
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
