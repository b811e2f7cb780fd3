package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	donationtypes "github.com/harumcare/harumcare-backend/internal/domain/donation"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

// AggregateTotals is the pair of derived campaign fields.
type AggregateTotals struct {
	CurrentAmount int64 `json:"current_amount"`
	DonorCount    int   `json:"donor_count"`
}

// AggregateService recomputes a campaign's derived fields from the set of
// completed donations and overwrites them on the campaign row. It never
// increments: the full re-scan makes the operation idempotent and immune to
// drift from missed or double-applied deltas.
type AggregateService interface {
	Recalculate(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (AggregateTotals, error)
}

type aggregateService struct {
	db           *gorm.DB
	log          *logger.Logger
	donationRepo donationrepo.DonationRepo
	campaignRepo campaignrepo.CampaignRepo
	invalidate   func(ctx context.Context)
}

// invalidate is called after a successful aggregate write, for cache
// eviction; it may be nil.
func NewAggregateService(
	db *gorm.DB,
	log *logger.Logger,
	donationRepo donationrepo.DonationRepo,
	campaignRepo campaignrepo.CampaignRepo,
	invalidate func(ctx context.Context),
) AggregateService {
	serviceLog := log.With("service", "AggregateService")
	return &aggregateService{
		db:           db,
		log:          serviceLog,
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		invalidate:   invalidate,
	}
}

func (as *aggregateService) Recalculate(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (AggregateTotals, error) {
	completed, err := as.donationRepo.ListByCampaignAndStatus(ctx, tx, campaignID, donationtypes.StatusCompleted)
	if err != nil {
		return AggregateTotals{}, fmt.Errorf("list completed donations: %w", err)
	}

	var totals AggregateTotals
	for _, d := range completed {
		totals.CurrentAmount += d.Amount
	}
	totals.DonorCount = len(completed)

	if err := as.campaignRepo.UpdateAggregates(ctx, tx, campaignID, totals.CurrentAmount, totals.DonorCount); err != nil {
		return AggregateTotals{}, fmt.Errorf("write campaign aggregates: %w", err)
	}

	as.log.Debug("Campaign aggregates recalculated",
		"campaign_id", campaignID.String(),
		"current_amount", totals.CurrentAmount,
		"donor_count", totals.DonorCount,
	)

	if as.invalidate != nil {
		as.invalidate(ctx)
	}
	return totals, nil
}
