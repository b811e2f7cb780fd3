package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	campaigntypes "github.com/harumcare/harumcare-backend/internal/domain/campaign"
	donationtypes "github.com/harumcare/harumcare-backend/internal/domain/donation"
	usertypes "github.com/harumcare/harumcare-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *usertypes.User {
	tb.Helper()
	u := &usertypes.User{
		ID:       uuid.New(),
		Name:     "Budi Santoso",
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
		Phone:    "081234567890",
		Role:     usertypes.RoleUser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *usertypes.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, username)
	u.Role = usertypes.RoleAdmin
	if err := tx.WithContext(ctx).Model(u).Update("role", usertypes.RoleAdmin).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	return u
}

func SeedCampaign(tb testing.TB, ctx context.Context, tx *gorm.DB, targetAmount int64, endDate time.Time) *campaigntypes.Campaign {
	tb.Helper()
	c := &campaigntypes.Campaign{
		ID:           uuid.New(),
		Title:        "Bantu Pembangunan Masjid",
		TargetAmount: targetAmount,
		StartDate:    time.Now().Add(-24 * time.Hour),
		EndDate:      endDate,
		Category:     "pembangunan",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed campaign: %v", err)
	}
	return c
}

func SeedDonation(tb testing.TB, ctx context.Context, tx *gorm.DB, campaignID, userID uuid.UUID, amount int64, status string) *donationtypes.Donation {
	tb.Helper()
	d := &donationtypes.Donation{
		ID:            uuid.New(),
		CampaignID:    campaignID,
		UserID:        userID,
		Amount:        amount,
		PaymentStatus: status,
		PaymentMethod: donationtypes.MethodBankTransfer,
		TransactionID: donationtypes.NewTransactionID(),
		DonorName:     "Budi Santoso",
	}
	if status == donationtypes.StatusCompleted {
		now := time.Now()
		d.CompletedAt = &now
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed donation: %v", err)
	}
	return d
}
