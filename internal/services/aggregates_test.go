package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	"github.com/harumcare/harumcare-backend/internal/data/repos/testutil"
	campaigntypes "github.com/harumcare/harumcare-backend/internal/domain/campaign"
	donationtypes "github.com/harumcare/harumcare-backend/internal/domain/donation"
)

type aggregatesEnv struct {
	db           *gorm.DB
	campaignRepo campaignrepo.CampaignRepo
	donationRepo donationrepo.DonationRepo
	svc          AggregateService
	invalidated  *int
}

func newAggregatesEnv(t *testing.T) *aggregatesEnv {
	t.Helper()
	log := testutil.Logger(t)
	gdb := testutil.DB(t)

	cr := campaignrepo.NewCampaignRepo(gdb, log)
	dr := donationrepo.NewDonationRepo(gdb, log)

	invalidated := 0
	svc := NewAggregateService(gdb, log, dr, cr, func(ctx context.Context) {
		invalidated++
	})
	return &aggregatesEnv{
		db:           gdb,
		campaignRepo: cr,
		donationRepo: dr,
		svc:          svc,
		invalidated:  &invalidated,
	}
}

func (e *aggregatesEnv) campaignRow(t *testing.T, ctx context.Context, c *campaigntypes.Campaign) *campaigntypes.Campaign {
	t.Helper()
	row, err := e.campaignRepo.GetByID(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("reload campaign: %v", err)
	}
	return row
}

func TestRecalculateSumsOnlyCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newAggregatesEnv(t)

	user := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 5000, donationtypes.StatusCompleted)
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 3000, donationtypes.StatusCompleted)
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 9000, donationtypes.StatusPending)
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 7000, donationtypes.StatusFailed)

	totals, err := env.svc.Recalculate(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if totals.CurrentAmount != 8000 || totals.DonorCount != 2 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	row := env.campaignRow(t, ctx, c)
	if row.CurrentAmount != 8000 || row.DonorCount != 2 {
		t.Fatalf("campaign row not updated: amount=%d donors=%d", row.CurrentAmount, row.DonorCount)
	}
}

func TestRecalculateOverwritesDrift(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newAggregatesEnv(t)

	user := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 5000, donationtypes.StatusCompleted)

	// Simulate drift from a buggy incremental writer.
	if err := env.db.Model(&campaigntypes.Campaign{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{"current_amount": 999999, "donor_count": 42}).Error; err != nil {
		t.Fatalf("inject drift: %v", err)
	}

	totals, err := env.svc.Recalculate(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if totals.CurrentAmount != 5000 || totals.DonorCount != 1 {
		t.Fatalf("drift not corrected: %+v", totals)
	}

	row := env.campaignRow(t, ctx, c)
	if row.CurrentAmount != 5000 || row.DonorCount != 1 {
		t.Fatalf("campaign row still drifted: amount=%d donors=%d", row.CurrentAmount, row.DonorCount)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newAggregatesEnv(t)

	user := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 5000, donationtypes.StatusCompleted)
	testutil.SeedDonation(t, ctx, env.db, c.ID, user.ID, 2000, donationtypes.StatusCompleted)

	first, err := env.svc.Recalculate(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("first recalculate: %v", err)
	}
	second, err := env.svc.Recalculate(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	if first != second {
		t.Fatalf("recalculation not idempotent: first=%+v second=%+v", first, second)
	}
	if second.CurrentAmount != 7000 || second.DonorCount != 2 {
		t.Fatalf("unexpected totals: %+v", second)
	}
}

func TestRecalculateEmptyCampaignZeroes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newAggregatesEnv(t)

	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	if err := env.db.Model(&campaigntypes.Campaign{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{"current_amount": 5000, "donor_count": 3}).Error; err != nil {
		t.Fatalf("inject stale aggregates: %v", err)
	}

	totals, err := env.svc.Recalculate(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if totals.CurrentAmount != 0 || totals.DonorCount != 0 {
		t.Fatalf("expected zeroed totals, got %+v", totals)
	}
}

func TestRecalculateFiresInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newAggregatesEnv(t)

	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	if _, err := env.svc.Recalculate(ctx, nil, c.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if *env.invalidated != 1 {
		t.Fatalf("expected one cache invalidation, got %d", *env.invalidated)
	}
}
