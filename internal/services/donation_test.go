package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	"github.com/harumcare/harumcare-backend/internal/data/repos/testutil"
	userrepo "github.com/harumcare/harumcare-backend/internal/data/repos/user"
	campaigntypes "github.com/harumcare/harumcare-backend/internal/domain/campaign"
	donationtypes "github.com/harumcare/harumcare-backend/internal/domain/donation"
	usertypes "github.com/harumcare/harumcare-backend/internal/domain/user"
	"github.com/harumcare/harumcare-backend/internal/platform/apierr"
	"github.com/harumcare/harumcare-backend/internal/platform/ctxutil"
)

type donationEnv struct {
	db           *gorm.DB
	userRepo     userrepo.UserRepo
	campaignRepo campaignrepo.CampaignRepo
	donationRepo donationrepo.DonationRepo
	svc          DonationService
}

func newDonationEnv(t *testing.T) *donationEnv {
	t.Helper()
	log := testutil.Logger(t)
	gdb := testutil.DB(t)

	ur := userrepo.NewUserRepo(gdb, log)
	cr := campaignrepo.NewCampaignRepo(gdb, log)
	dr := donationrepo.NewDonationRepo(gdb, log)
	aggregates := NewAggregateService(gdb, log, dr, cr, nil)

	return &donationEnv{
		db:           gdb,
		userRepo:     ur,
		campaignRepo: cr,
		donationRepo: dr,
		svc:          NewDonationService(gdb, log, dr, cr, ur, aggregates),
	}
}

func identityCtx(u *usertypes.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
	})
}

func (e *donationEnv) campaignRow(t *testing.T, id uuid.UUID) *campaigntypes.Campaign {
	t.Helper()
	row, err := e.campaignRepo.GetByID(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("reload campaign: %v", err)
	}
	return row
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apierr, got %T: %v", err, err)
	}
	return ae.Status
}

// A new donation starts pending and never touches campaign aggregates;
// completing it makes the recalculator pick it up.
func TestDonationLifecyclePendingThenCompleted(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))

	summary, err := env.svc.Create(identityCtx(donor), CreateDonationInput{
		CampaignID:    c.ID,
		Amount:        5000,
		PaymentMethod: donationtypes.MethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}
	if summary.PaymentStatus != donationtypes.StatusPending {
		t.Fatalf("new donation must be pending, got %s", summary.PaymentStatus)
	}
	if summary.TransactionID == "" {
		t.Fatal("missing transaction ID")
	}

	row := env.campaignRow(t, c.ID)
	if row.CurrentAmount != 0 || row.DonorCount != 0 {
		t.Fatalf("pending donation must not touch aggregates: amount=%d donors=%d", row.CurrentAmount, row.DonorCount)
	}

	result, err := env.svc.UpdateStatus(ctx, summary.ID, donationtypes.StatusCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.UpdatedCampaign == nil {
		t.Fatal("completion must recompute aggregates")
	}
	if result.UpdatedCampaign.CurrentAmount != 5000 || result.UpdatedCampaign.DonorCount != 1 {
		t.Fatalf("unexpected aggregates: %+v", result.UpdatedCampaign)
	}
	if result.Donation.CompletedAt == nil {
		t.Fatal("completed donation must carry a completion timestamp")
	}

	row = env.campaignRow(t, c.ID)
	if row.CurrentAmount != 5000 || row.DonorCount != 1 {
		t.Fatalf("campaign row mismatch: amount=%d donors=%d", row.CurrentAmount, row.DonorCount)
	}
}

// Repeating a transition that does not cross the completed boundary must not
// trigger a recalculation.
func TestDonationStatusUpdateNoBoundaryNoRecalc(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 5000, donationtypes.StatusCompleted)

	result, err := env.svc.UpdateStatus(ctx, d.ID, donationtypes.StatusCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.UpdatedCampaign != nil {
		t.Fatal("completed->completed must not recompute aggregates")
	}

	// pending->failed also stays on the same side of the boundary
	p := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 3000, donationtypes.StatusPending)
	result, err = env.svc.UpdateStatus(ctx, p.ID, donationtypes.StatusFailed)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.UpdatedCampaign != nil {
		t.Fatal("pending->failed must not recompute aggregates")
	}
}

// Correcting a completed donation to failed removes it from the aggregate
// set and clears its completion timestamp.
func TestDonationCompletedToFailedRecomputes(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d1 := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 3000, donationtypes.StatusCompleted)
	testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 7000, donationtypes.StatusCompleted)

	result, err := env.svc.UpdateStatus(ctx, d1.ID, donationtypes.StatusFailed)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.UpdatedCampaign == nil {
		t.Fatal("completed->failed crosses the boundary")
	}
	if result.UpdatedCampaign.CurrentAmount != 7000 || result.UpdatedCampaign.DonorCount != 1 {
		t.Fatalf("unexpected aggregates: %+v", result.UpdatedCampaign)
	}

	reloaded, err := env.donationRepo.GetByID(ctx, nil, d1.ID)
	if err != nil {
		t.Fatalf("reload donation: %v", err)
	}
	if reloaded.CompletedAt != nil {
		t.Fatal("failed donation must not carry a completion timestamp")
	}
}

func TestDonationDeleteCompletedRecalculates(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d1 := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 3000, donationtypes.StatusCompleted)
	testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 7000, donationtypes.StatusCompleted)

	result, err := env.svc.Delete(ctx, d1.ID)
	if err != nil {
		t.Fatalf("delete donation: %v", err)
	}
	if result.UpdatedCampaign == nil {
		t.Fatal("deleting a completed donation must recompute aggregates")
	}
	if result.UpdatedCampaign.CurrentAmount != 7000 || result.UpdatedCampaign.DonorCount != 1 {
		t.Fatalf("unexpected aggregates: %+v", result.UpdatedCampaign)
	}

	row := env.campaignRow(t, c.ID)
	if row.CurrentAmount != 7000 || row.DonorCount != 1 {
		t.Fatalf("campaign row mismatch: amount=%d donors=%d", row.CurrentAmount, row.DonorCount)
	}
}

func TestDonationDeletePendingNoRecalc(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 3000, donationtypes.StatusPending)

	result, err := env.svc.Delete(ctx, d.ID)
	if err != nil {
		t.Fatalf("delete donation: %v", err)
	}
	if result.UpdatedCampaign != nil {
		t.Fatal("deleting a pending donation must not recompute aggregates")
	}
}

func TestDonationCreateRejectsEndedCampaign(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(-time.Hour))

	_, err := env.svc.Create(identityCtx(donor), CreateDonationInput{
		CampaignID:    c.ID,
		Amount:        5000,
		PaymentMethod: donationtypes.MethodBankTransfer,
	})
	if err == nil {
		t.Fatal("expected rejection for ended campaign")
	}
	if apiStatus(t, err) != 400 {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDonationCreateRejectsBelowMinimum(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))

	_, err := env.svc.Create(identityCtx(donor), CreateDonationInput{
		CampaignID:    c.ID,
		Amount:        500,
		PaymentMethod: donationtypes.MethodBankTransfer,
	})
	if err == nil {
		t.Fatal("expected rejection below minimum amount")
	}
	if apiStatus(t, err) != 400 {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Nothing may be stored on a rejected create.
	var count int64
	if err := env.db.Model(&donationtypes.Donation{}).Count(&count).Error; err != nil {
		t.Fatalf("count donations: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected donation was stored, count=%d", count)
	}
}

func TestDonationCreateUnknownCampaign(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")

	_, err := env.svc.Create(identityCtx(donor), CreateDonationInput{
		CampaignID:    uuid.New(),
		Amount:        5000,
		PaymentMethod: donationtypes.MethodBankTransfer,
	})
	if err == nil {
		t.Fatal("expected not found")
	}
	if apiStatus(t, err) != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestDonationCreateAnonymousPlaceholder(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))

	summary, err := env.svc.Create(identityCtx(donor), CreateDonationInput{
		CampaignID:    c.ID,
		Amount:        5000,
		PaymentMethod: donationtypes.MethodEWallet,
		IsAnonymous:   true,
	})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}
	if summary.DonorName != donationtypes.AnonymousDonorName {
		t.Fatalf("anonymous donor name not masked: %q", summary.DonorName)
	}
}

func TestDonationWebhookByTransactionID(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 5000, donationtypes.StatusPending)

	payload := []byte(`{"transaction_id":"` + d.TransactionID + `","payment_status":"completed","gateway":"midtrans"}`)
	result, err := env.svc.WebhookStatusUpdate(ctx, d.TransactionID, donationtypes.StatusCompleted, payload)
	if err != nil {
		t.Fatalf("webhook update: %v", err)
	}
	if result.UpdatedCampaign == nil || result.UpdatedCampaign.CurrentAmount != 5000 {
		t.Fatalf("unexpected aggregates: %+v", result.UpdatedCampaign)
	}

	reloaded, err := env.donationRepo.GetByID(ctx, nil, d.ID)
	if err != nil {
		t.Fatalf("reload donation: %v", err)
	}
	if reloaded.PaymentStatus != donationtypes.StatusCompleted {
		t.Fatalf("status not persisted: %s", reloaded.PaymentStatus)
	}
	var meta map[string]any
	if err := json.Unmarshal(reloaded.GatewayMetadata, &meta); err != nil {
		t.Fatalf("gateway metadata not stored: %v", err)
	}
	if meta["gateway"] != "midtrans" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
}

func TestDonationWebhookUnknownTransaction(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)

	_, err := env.svc.WebhookStatusUpdate(context.Background(), "TRX-missing", donationtypes.StatusCompleted, nil)
	if err == nil {
		t.Fatal("expected not found")
	}
	if apiStatus(t, err) != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestDonationUpdateStatusInvalid(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 5000, donationtypes.StatusPending)

	if _, err := env.svc.UpdateStatus(ctx, d.ID, "refunded"); err == nil {
		t.Fatal("expected rejection of unknown status")
	}
}

func TestAdminCreateCompletedRecalculates(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, ctx, env.db, "admin1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))

	summary, err := env.svc.CreateByAdmin(identityCtx(admin), AdminCreateDonationInput{
		CreateDonationInput: CreateDonationInput{
			CampaignID:    c.ID,
			Amount:        10000,
			PaymentMethod: donationtypes.MethodBankTransfer,
		},
		DonorName:     "Donatur Offline",
		PaymentStatus: donationtypes.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if summary.PaymentStatus != donationtypes.StatusCompleted {
		t.Fatalf("unexpected status: %s", summary.PaymentStatus)
	}

	row := env.campaignRow(t, c.ID)
	if row.CurrentAmount != 10000 || row.DonorCount != 1 {
		t.Fatalf("aggregates not recomputed: amount=%d donors=%d", row.CurrentAmount, row.DonorCount)
	}
}

func TestAdminCreateRequiresAdminRole(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))

	_, err := env.svc.CreateByAdmin(identityCtx(donor), AdminCreateDonationInput{
		CreateDonationInput: CreateDonationInput{
			CampaignID:    c.ID,
			Amount:        10000,
			PaymentMethod: donationtypes.MethodBankTransfer,
		},
		DonorName: "Donatur Offline",
	})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if apiStatus(t, err) != 403 {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestAttachProofOwnerOnly(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	other := testutil.SeedUser(t, ctx, env.db, "donor2")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	d := testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 5000, donationtypes.StatusPending)

	if _, err := env.svc.AttachProof(identityCtx(other), d.ID, "https://cdn.example.com/proof/x.png"); err == nil {
		t.Fatal("expected forbidden for non-owner")
	}

	updated, err := env.svc.AttachProof(identityCtx(donor), d.ID, "https://cdn.example.com/proof/x.png")
	if err != nil {
		t.Fatalf("attach proof: %v", err)
	}
	if updated.ProofOfTransfer == "" {
		t.Fatal("proof not stored")
	}
}

func TestListByCampaignHidesDonorIdentity(t *testing.T) {
	t.Parallel()
	env := newDonationEnv(t)
	ctx := context.Background()

	donor := testutil.SeedUser(t, ctx, env.db, "donor1")
	c := testutil.SeedCampaign(t, ctx, env.db, 100000, time.Now().Add(24*time.Hour))
	testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 5000, donationtypes.StatusCompleted)
	testutil.SeedDonation(t, ctx, env.db, c.ID, donor.ID, 3000, donationtypes.StatusPending)

	donations, total, err := env.svc.ListByCampaign(ctx, c.ID, 1, 10)
	if err != nil {
		t.Fatalf("list by campaign: %v", err)
	}
	if total != 1 || len(donations) != 1 {
		t.Fatalf("only completed donations belong in the public feed, got total=%d len=%d", total, len(donations))
	}
	if donations[0].Amount != 5000 {
		t.Fatalf("unexpected donation: %+v", donations[0])
	}
}
