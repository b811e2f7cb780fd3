package donation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	MethodBankTransfer = "bank_transfer"
	MethodEWallet      = "e_wallet"
	MethodCreditCard   = "credit_card"
)

// MinAmount is the smallest accepted donation in currency minor units (Rp 1.000).
const MinAmount int64 = 1000

// AnonymousDonorName replaces the donor's display name when IsAnonymous is set.
const AnonymousDonorName = "Hamba Allah"

type Donation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID    uuid.UUID `gorm:"type:uuid;not null;index;column:campaign_id" json:"campaign_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Amount        int64     `gorm:"not null;column:amount" json:"amount"`
	Message       string    `gorm:"type:text;column:message" json:"message,omitempty"`
	PaymentStatus string    `gorm:"not null;default:pending;column:payment_status" json:"payment_status"`
	PaymentMethod string    `gorm:"not null;column:payment_method" json:"payment_method"`
	TransactionID string    `gorm:"uniqueIndex;not null;column:transaction_id" json:"transaction_id"`
	DonorName     string    `gorm:"not null;column:donor_name" json:"donor_name"`
	IsAnonymous   bool      `gorm:"not null;default:false;column:is_anonymous" json:"is_anonymous"`

	ProofOfTransfer string         `gorm:"column:proof_of_transfer" json:"proof_of_transfer,omitempty"`
	GatewayMetadata datatypes.JSON `gorm:"column:gateway_metadata" json:"-"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Donation) TableName() string { return "donation" }

// ValidStatus reports whether s is one of the three payment states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

func ValidMethod(m string) bool {
	switch m {
	case MethodBankTransfer, MethodEWallet, MethodCreditCard:
		return true
	default:
		return false
	}
}

// BoundaryCrossed reports whether a transition between two statuses changes
// the donation's contribution to campaign aggregates: exactly one of the two
// statuses is completed.
func BoundaryCrossed(oldStatus, newStatus string) bool {
	return (oldStatus == StatusCompleted) != (newStatus == StatusCompleted)
}

// NewTransactionID mints the externally visible payment reference.
func NewTransactionID() string {
	return "TRX-" + uuid.New().String()
}
