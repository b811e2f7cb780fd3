package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	userrepo "github.com/harumcare/harumcare-backend/internal/data/repos/user"
	donationtypes "github.com/harumcare/harumcare-backend/internal/domain/donation"
	"github.com/harumcare/harumcare-backend/internal/platform/apierr"
	"github.com/harumcare/harumcare-backend/internal/platform/ctxutil"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type CreateDonationInput struct {
	CampaignID    uuid.UUID `json:"campaign_id"`
	Amount        int64     `json:"amount"`
	Message       string    `json:"message"`
	PaymentMethod string    `json:"payment_method"`
	IsAnonymous   bool      `json:"is_anonymous"`
}

type AdminCreateDonationInput struct {
	CreateDonationInput
	DonorName     string `json:"donor_name"`
	PaymentStatus string `json:"payment_status"`
}

// DonationSummary is the response shape for creation; it deliberately
// exposes a subset of the row so the storage schema can evolve without
// changing the API contract.
type DonationSummary struct {
	ID            uuid.UUID `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method"`
	DonorName     string    `json:"donor_name"`
	IsAnonymous   bool      `json:"is_anonymous"`
}

// StatusUpdateResult reports the persisted donation and, when the transition
// crossed the completed boundary, the freshly recomputed campaign aggregates.
type StatusUpdateResult struct {
	Donation        *donationtypes.Donation `json:"donation"`
	UpdatedCampaign *AggregateTotals        `json:"updated_campaign,omitempty"`
}

type DeleteDonationResult struct {
	UpdatedCampaign *AggregateTotals `json:"updated_campaign,omitempty"`
}

// PublicDonation hides donor identity beyond the display name; this is what
// the campaign donation feed serves.
type PublicDonation struct {
	ID          uuid.UUID  `json:"id"`
	Amount      int64      `json:"amount"`
	Message     string     `json:"message,omitempty"`
	DonorName   string     `json:"donor_name"`
	IsAnonymous bool       `json:"is_anonymous"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DonationService orchestrates the donation lifecycle. Status transitions
// that cross the completed boundary trigger an aggregate recalculation; the
// status write and the recomputation share one transaction so the
// recalculator always reads the post-transition row.
type DonationService interface {
	Create(ctx context.Context, input CreateDonationInput) (*DonationSummary, error)
	CreateByAdmin(ctx context.Context, input AdminCreateDonationInput) (*DonationSummary, error)
	UpdateStatus(ctx context.Context, donationID uuid.UUID, newStatus string) (*StatusUpdateResult, error)
	Delete(ctx context.Context, donationID uuid.UUID) (*DeleteDonationResult, error)
	AttachProof(ctx context.Context, donationID uuid.UUID, proofOfTransfer string) (*donationtypes.Donation, error)
	WebhookStatusUpdate(ctx context.Context, transactionID, newStatus string, rawPayload []byte) (*StatusUpdateResult, error)

	ListByCampaign(ctx context.Context, campaignID uuid.UUID, page, limit int) ([]*PublicDonation, int64, error)
	ListMine(ctx context.Context, page, limit int) ([]*donationtypes.Donation, int64, error)
	List(ctx context.Context, filter donationrepo.ListFilter) ([]*donationtypes.Donation, int64, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*donationtypes.Donation, error)
}

type donationService struct {
	db           *gorm.DB
	log          *logger.Logger
	donationRepo donationrepo.DonationRepo
	campaignRepo campaignrepo.CampaignRepo
	userRepo     userrepo.UserRepo
	aggregates   AggregateService
	now          func() time.Time
}

func NewDonationService(
	db *gorm.DB,
	log *logger.Logger,
	donationRepo donationrepo.DonationRepo,
	campaignRepo campaignrepo.CampaignRepo,
	userRepo userrepo.UserRepo,
	aggregates AggregateService,
) DonationService {
	serviceLog := log.With("service", "DonationService")
	return &donationService{
		db:           db,
		log:          serviceLog,
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		aggregates:   aggregates,
		now:          time.Now,
	}
}

func (ds *donationService) Create(ctx context.Context, input CreateDonationInput) (*DonationSummary, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}

	if err := ds.validateCreate(ctx, input); err != nil {
		return nil, err
	}

	donor, err := ds.userRepo.GetByID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("user tidak ditemukan")
		}
		return nil, err
	}

	donorName := donor.Name
	if input.IsAnonymous {
		donorName = donationtypes.AnonymousDonorName
	}

	d := &donationtypes.Donation{
		ID:            uuid.New(),
		CampaignID:    input.CampaignID,
		UserID:        donor.ID,
		Amount:        input.Amount,
		Message:       input.Message,
		PaymentStatus: donationtypes.StatusPending,
		PaymentMethod: input.PaymentMethod,
		TransactionID: donationtypes.NewTransactionID(),
		DonorName:     donorName,
		IsAnonymous:   input.IsAnonymous,
	}

	// A pending donation never touches campaign aggregates.
	if _, err := ds.donationRepo.Create(ctx, nil, []*donationtypes.Donation{d}); err != nil {
		return nil, err
	}

	ds.log.Info("Donation created",
		"donation_id", d.ID.String(),
		"campaign_id", d.CampaignID.String(),
		"amount", d.Amount,
	)
	return summarize(d), nil
}

func (ds *donationService) CreateByAdmin(ctx context.Context, input AdminCreateDonationInput) (*DonationSummary, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}
	if !rd.IsAdmin() {
		return nil, apierr.Forbidden("admin only")
	}

	if strings.TrimSpace(input.DonorName) == "" {
		return nil, apierr.Validation("nama donatur wajib diisi")
	}
	status := input.PaymentStatus
	if status == "" {
		status = donationtypes.StatusPending
	}
	if !donationtypes.ValidStatus(status) {
		return nil, apierr.Validation("invalid payment status %q", status)
	}
	if err := ds.validateCreate(ctx, input.CreateDonationInput); err != nil {
		return nil, err
	}

	donorName := input.DonorName
	if input.IsAnonymous {
		donorName = donationtypes.AnonymousDonorName
	}

	d := &donationtypes.Donation{
		ID:            uuid.New(),
		CampaignID:    input.CampaignID,
		UserID:        rd.UserID,
		Amount:        input.Amount,
		Message:       input.Message,
		PaymentStatus: status,
		PaymentMethod: input.PaymentMethod,
		TransactionID: donationtypes.NewTransactionID(),
		DonorName:     donorName,
		IsAnonymous:   input.IsAnonymous,
	}
	if status == donationtypes.StatusCompleted {
		now := ds.now()
		d.CompletedAt = &now
	}

	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ds.donationRepo.Create(ctx, tx, []*donationtypes.Donation{d}); err != nil {
			return err
		}
		// An admin may insert a donation that is already completed, which
		// changes the aggregate set immediately.
		if d.PaymentStatus == donationtypes.StatusCompleted {
			if _, err := ds.aggregates.Recalculate(ctx, tx, d.CampaignID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summarize(d), nil
}

func (ds *donationService) validateCreate(ctx context.Context, input CreateDonationInput) error {
	if input.CampaignID == uuid.Nil {
		return apierr.Validation("campaign ID wajib diisi")
	}
	if input.Amount == 0 {
		return apierr.Validation("jumlah donasi wajib diisi")
	}
	if input.PaymentMethod == "" {
		return apierr.Validation("metode pembayaran wajib diisi")
	}
	if !donationtypes.ValidMethod(input.PaymentMethod) {
		return apierr.Validation("metode pembayaran %q tidak dikenal", input.PaymentMethod)
	}
	if input.Amount < donationtypes.MinAmount {
		return apierr.Validation("minimal donasi Rp 1.000")
	}

	campaign, err := ds.campaignRepo.GetByID(ctx, nil, input.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("campaign tidak ditemukan")
		}
		return err
	}
	if campaign.Ended(ds.now()) {
		return apierr.Validation("campaign sudah berakhir")
	}
	return nil
}

func (ds *donationService) UpdateStatus(ctx context.Context, donationID uuid.UUID, newStatus string) (*StatusUpdateResult, error) {
	if !donationtypes.ValidStatus(newStatus) {
		return nil, apierr.Validation("invalid payment status %q", newStatus)
	}

	d, err := ds.donationRepo.GetByID(ctx, nil, donationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("donasi tidak ditemukan")
		}
		return nil, err
	}

	return ds.applyStatusChange(ctx, d, newStatus, nil)
}

func (ds *donationService) WebhookStatusUpdate(ctx context.Context, transactionID, newStatus string, rawPayload []byte) (*StatusUpdateResult, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, apierr.Validation("transaction ID wajib diisi")
	}
	if !donationtypes.ValidStatus(newStatus) {
		return nil, apierr.Validation("invalid payment status %q", newStatus)
	}

	d, err := ds.donationRepo.GetByTransactionID(ctx, nil, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("donasi tidak ditemukan")
		}
		return nil, err
	}

	return ds.applyStatusChange(ctx, d, newStatus, rawPayload)
}

// applyStatusChange persists the transition and, iff exactly one of
// old/new status is completed, recomputes the campaign aggregates inside
// the same transaction.
func (ds *donationService) applyStatusChange(ctx context.Context, d *donationtypes.Donation, newStatus string, rawPayload []byte) (*StatusUpdateResult, error) {
	oldStatus := d.PaymentStatus

	fields := map[string]any{"payment_status": newStatus}
	switch {
	case newStatus == donationtypes.StatusCompleted && oldStatus != donationtypes.StatusCompleted:
		now := ds.now()
		fields["completed_at"] = &now
		d.CompletedAt = &now
	case newStatus != donationtypes.StatusCompleted && oldStatus == donationtypes.StatusCompleted:
		// Correction path: the timestamp is cleared so only rows that are
		// currently completed carry one.
		fields["completed_at"] = nil
		d.CompletedAt = nil
	}
	if len(rawPayload) > 0 {
		fields["gateway_metadata"] = datatypes.JSON(rawPayload)
		d.GatewayMetadata = datatypes.JSON(rawPayload)
	}

	result := &StatusUpdateResult{Donation: d}
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ds.donationRepo.UpdateFields(ctx, tx, d.ID, fields); err != nil {
			return err
		}
		if donationtypes.BoundaryCrossed(oldStatus, newStatus) {
			totals, err := ds.aggregates.Recalculate(ctx, tx, d.CampaignID)
			if err != nil {
				return err
			}
			result.UpdatedCampaign = &totals
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.PaymentStatus = newStatus
	ds.log.Info("Donation status updated",
		"donation_id", d.ID.String(),
		"old_status", oldStatus,
		"new_status", newStatus,
		"recalculated", result.UpdatedCampaign != nil,
	)
	return result, nil
}

func (ds *donationService) Delete(ctx context.Context, donationID uuid.UUID) (*DeleteDonationResult, error) {
	d, err := ds.donationRepo.GetByID(ctx, nil, donationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("donasi tidak ditemukan")
		}
		return nil, err
	}

	result := &DeleteDonationResult{}
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ds.donationRepo.Delete(ctx, tx, d.ID); err != nil {
			return err
		}
		if d.PaymentStatus == donationtypes.StatusCompleted {
			totals, err := ds.aggregates.Recalculate(ctx, tx, d.CampaignID)
			if err != nil {
				return err
			}
			result.UpdatedCampaign = &totals
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ds.log.Info("Donation deleted",
		"donation_id", d.ID.String(),
		"was_completed", d.PaymentStatus == donationtypes.StatusCompleted,
	)
	return result, nil
}

func (ds *donationService) AttachProof(ctx context.Context, donationID uuid.UUID, proofOfTransfer string) (*donationtypes.Donation, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}
	if strings.TrimSpace(proofOfTransfer) == "" {
		return nil, apierr.Validation("bukti transfer wajib diisi")
	}

	d, err := ds.donationRepo.GetByID(ctx, nil, donationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("donasi tidak ditemukan")
		}
		return nil, err
	}
	if d.UserID != rd.UserID {
		return nil, apierr.Forbidden("akses ditolak")
	}

	if err := ds.donationRepo.UpdateFields(ctx, nil, d.ID, map[string]any{
		"proof_of_transfer": proofOfTransfer,
	}); err != nil {
		return nil, err
	}
	d.ProofOfTransfer = proofOfTransfer
	return d, nil
}

func (ds *donationService) ListByCampaign(ctx context.Context, campaignID uuid.UUID, page, limit int) ([]*PublicDonation, int64, error) {
	donations, total, err := ds.donationRepo.ListCompletedByCampaign(ctx, nil, campaignID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*PublicDonation, 0, len(donations))
	for _, d := range donations {
		out = append(out, &PublicDonation{
			ID:          d.ID,
			Amount:      d.Amount,
			Message:     d.Message,
			DonorName:   d.DonorName,
			IsAnonymous: d.IsAnonymous,
			CompletedAt: d.CompletedAt,
		})
	}
	return out, total, nil
}

func (ds *donationService) ListMine(ctx context.Context, page, limit int) ([]*donationtypes.Donation, int64, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, 0, apierr.Unauthorized("missing identity")
	}
	return ds.donationRepo.ListByUser(ctx, nil, rd.UserID, page, limit)
}

func (ds *donationService) List(ctx context.Context, filter donationrepo.ListFilter) ([]*donationtypes.Donation, int64, error) {
	return ds.donationRepo.List(ctx, nil, filter)
}

func (ds *donationService) GetByTransactionID(ctx context.Context, transactionID string) (*donationtypes.Donation, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}

	d, err := ds.donationRepo.GetByTransactionID(ctx, nil, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("donasi tidak ditemukan")
		}
		return nil, err
	}
	if d.UserID != rd.UserID && !rd.IsAdmin() {
		return nil, apierr.Forbidden("akses ditolak")
	}
	return d, nil
}

func summarize(d *donationtypes.Donation) *DonationSummary {
	return &DonationSummary{
		ID:            d.ID,
		TransactionID: d.TransactionID,
		Amount:        d.Amount,
		PaymentStatus: d.PaymentStatus,
		PaymentMethod: d.PaymentMethod,
		DonorName:     d.DonorName,
		IsAnonymous:   d.IsAnonymous,
	}
}
