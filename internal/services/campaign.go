package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	contentrepo "github.com/harumcare/harumcare-backend/internal/data/repos/content"
	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	campaigntypes "github.com/harumcare/harumcare-backend/internal/domain/campaign"
	contenttypes "github.com/harumcare/harumcare-backend/internal/domain/content"
	"github.com/harumcare/harumcare-backend/internal/platform/apierr"
	"github.com/harumcare/harumcare-backend/internal/platform/gcp"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
	"github.com/harumcare/harumcare-backend/internal/platform/rediscache"
)

const (
	statsCacheKey = "campaign:stats"
	statsCacheTTL = 5 * time.Minute
)

type CreateCampaignInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ImageURL         string     `json:"image_url"`
	TargetAmount     int64      `json:"target_amount"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	OrganizationName string     `json:"organization_name"`
	OrganizationLogo string     `json:"organization_logo"`
	Category         string     `json:"category"`
}

type UpdateCampaignInput struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	ImageURL         *string    `json:"image_url"`
	TargetAmount     *int64     `json:"target_amount"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	OrganizationName *string    `json:"organization_name"`
	OrganizationLogo *string    `json:"organization_logo"`
	Category         *string    `json:"category"`
}

// CampaignDetail augments the row with fields derived at read time plus
// related published news.
type CampaignDetail struct {
	*campaigntypes.Campaign
	Status      string               `json:"status"`
	Progress    float64              `json:"progress"`
	RelatedNews []*contenttypes.News `json:"related_news"`
}

type CampaignStats struct {
	campaignrepo.Totals
	ActiveCampaigns int64 `json:"active_campaigns"`
}

type CampaignService interface {
	Create(ctx context.Context, input CreateCampaignInput) (*campaigntypes.Campaign, error)
	GetDetail(ctx context.Context, campaignID uuid.UUID) (*CampaignDetail, error)
	List(ctx context.Context, filter campaignrepo.ListFilter) ([]*campaigntypes.Campaign, int64, error)
	Update(ctx context.Context, campaignID uuid.UUID, input UpdateCampaignInput) (*campaigntypes.Campaign, error)
	Delete(ctx context.Context, campaignID uuid.UUID) error
	Stats(ctx context.Context) (*CampaignStats, error)
	InvalidateStats(ctx context.Context)
}

type campaignService struct {
	db           *gorm.DB
	log          *logger.Logger
	campaignRepo campaignrepo.CampaignRepo
	donationRepo donationrepo.DonationRepo
	newsRepo     contentrepo.NewsRepo
	bucket       gcp.BucketService
	cache        rediscache.Cache
	now          func() time.Time
}

func NewCampaignService(
	db *gorm.DB,
	log *logger.Logger,
	campaignRepo campaignrepo.CampaignRepo,
	donationRepo donationrepo.DonationRepo,
	newsRepo contentrepo.NewsRepo,
	bucket gcp.BucketService,
	cache rediscache.Cache,
) CampaignService {
	serviceLog := log.With("service", "CampaignService")
	return &campaignService{
		db:           db,
		log:          serviceLog,
		campaignRepo: campaignRepo,
		donationRepo: donationRepo,
		newsRepo:     newsRepo,
		bucket:       bucket,
		cache:        cache,
		now:          time.Now,
	}
}

func (cs *campaignService) Create(ctx context.Context, input CreateCampaignInput) (*campaigntypes.Campaign, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apierr.Validation("title wajib diisi")
	}
	if input.TargetAmount <= 0 {
		return nil, apierr.Validation("target amount harus lebih dari 0")
	}
	if input.EndDate.IsZero() {
		return nil, apierr.Validation("end date wajib diisi")
	}
	if !input.EndDate.After(cs.now()) {
		return nil, apierr.Validation("end date harus di masa depan")
	}

	startDate := cs.now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	c := &campaigntypes.Campaign{
		ID:               uuid.New(),
		Title:            input.Title,
		Description:      input.Description,
		ImageURL:         input.ImageURL,
		TargetAmount:     input.TargetAmount,
		StartDate:        startDate,
		EndDate:          input.EndDate,
		OrganizationName: input.OrganizationName,
		OrganizationLogo: input.OrganizationLogo,
		Category:         input.Category,
	}
	if _, err := cs.campaignRepo.Create(ctx, nil, []*campaigntypes.Campaign{c}); err != nil {
		return nil, err
	}

	cs.InvalidateStats(ctx)
	cs.log.Info("Campaign created", "campaign_id", c.ID.String(), "title", c.Title)
	return c, nil
}

func (cs *campaignService) GetDetail(ctx context.Context, campaignID uuid.UUID) (*CampaignDetail, error) {
	c, err := cs.campaignRepo.GetByID(ctx, nil, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("campaign tidak ditemukan")
		}
		return nil, err
	}

	relatedNews, err := cs.newsRepo.ListPublishedByCampaign(ctx, nil, c.ID, 5)
	if err != nil {
		return nil, err
	}

	return &CampaignDetail{
		Campaign:    c,
		Status:      c.Status(cs.now()),
		Progress:    c.Progress(),
		RelatedNews: relatedNews,
	}, nil
}

func (cs *campaignService) List(ctx context.Context, filter campaignrepo.ListFilter) ([]*campaigntypes.Campaign, int64, error) {
	return cs.campaignRepo.List(ctx, nil, filter, cs.now())
}

func (cs *campaignService) Update(ctx context.Context, campaignID uuid.UUID, input UpdateCampaignInput) (*campaigntypes.Campaign, error) {
	if _, err := cs.campaignRepo.GetByID(ctx, nil, campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("campaign tidak ditemukan")
		}
		return nil, err
	}

	// Derived fields (current_amount, donor_count) are never updatable here;
	// only the recalculator writes them.
	fields := map[string]any{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
	}
	if input.TargetAmount != nil {
		if *input.TargetAmount <= 0 {
			return nil, apierr.Validation("target amount harus lebih dari 0")
		}
		fields["target_amount"] = *input.TargetAmount
	}
	if input.StartDate != nil {
		fields["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		if !input.EndDate.After(cs.now()) {
			return nil, apierr.Validation("end date harus di masa depan")
		}
		fields["end_date"] = *input.EndDate
	}
	if input.OrganizationName != nil {
		fields["organization_name"] = *input.OrganizationName
	}
	if input.OrganizationLogo != nil {
		fields["organization_logo"] = *input.OrganizationLogo
	}
	if input.Category != nil {
		fields["category"] = *input.Category
	}

	if len(fields) > 0 {
		if err := cs.campaignRepo.UpdateFields(ctx, nil, campaignID, fields); err != nil {
			return nil, err
		}
	}

	cs.InvalidateStats(ctx)
	return cs.campaignRepo.GetByID(ctx, nil, campaignID)
}

// Delete removes the campaign and cascades donation deletion first; the
// store does not enforce the cascade itself.
func (cs *campaignService) Delete(ctx context.Context, campaignID uuid.UUID) error {
	c, err := cs.campaignRepo.GetByID(ctx, nil, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("campaign tidak ditemukan")
		}
		return err
	}

	if c.CurrentAmount > 0 {
		cs.log.Warn("Deleting campaign with recorded donations",
			"campaign_id", c.ID.String(),
			"current_amount", c.CurrentAmount,
			"donor_count", c.DonorCount,
		)
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cs.donationRepo.DeleteByCampaign(ctx, tx, c.ID); err != nil {
			return err
		}
		return cs.campaignRepo.Delete(ctx, tx, c.ID)
	})
	if err != nil {
		return err
	}

	if c.ImageURL != "" && cs.bucket != nil {
		if key := cs.bucket.KeyFromPublicURL(gcp.BucketCategoryCampaign, c.ImageURL); key != "" {
			if err := cs.bucket.DeleteFile(ctx, gcp.BucketCategoryCampaign, key); err != nil {
				cs.log.Warn("Failed to delete campaign image (ignored)", "key", key, "error", err)
			}
		}
	}

	cs.InvalidateStats(ctx)
	return nil
}

func (cs *campaignService) Stats(ctx context.Context) (*CampaignStats, error) {
	var cached CampaignStats
	if err := cs.cache.Get(ctx, statsCacheKey, &cached); err == nil {
		return &cached, nil
	}

	var stats CampaignStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := cs.campaignRepo.Totals(gctx, nil)
		if err != nil {
			return err
		}
		stats.Totals = *totals
		return nil
	})
	g.Go(func() error {
		active, err := cs.campaignRepo.CountActive(gctx, nil, cs.now())
		if err != nil {
			return err
		}
		stats.ActiveCampaigns = active
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := cs.cache.Set(ctx, statsCacheKey, &stats, statsCacheTTL); err != nil {
		cs.log.Warn("Failed to cache campaign stats (ignored)", "error", err)
	}
	return &stats, nil
}

func (cs *campaignService) InvalidateStats(ctx context.Context) {
	if err := cs.cache.Delete(ctx, statsCacheKey); err != nil {
		cs.log.Warn("Failed to invalidate stats cache (ignored)", "error", err)
	}
}
