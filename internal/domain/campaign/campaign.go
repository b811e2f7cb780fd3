package campaign

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Campaign aggregates (CurrentAmount, DonorCount) are derived from the set of
// completed donations. They are written only by the aggregate recalculator,
// never by donation-creation code.
type Campaign struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null;column:title" json:"title"`
	Description      string    `gorm:"type:text;column:description" json:"description,omitempty"`
	ImageURL         string    `gorm:"column:image_url" json:"image_url,omitempty"`
	TargetAmount     int64     `gorm:"not null;column:target_amount" json:"target_amount"`
	CurrentAmount    int64     `gorm:"not null;default:0;column:current_amount" json:"current_amount"`
	DonorCount       int       `gorm:"not null;default:0;column:donor_count" json:"donor_count"`
	StartDate        time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate          time.Time `gorm:"not null;column:end_date" json:"end_date"`
	OrganizationName string    `gorm:"column:organization_name" json:"organization_name,omitempty"`
	OrganizationLogo string    `gorm:"column:organization_logo" json:"organization_logo,omitempty"`
	Category         string    `gorm:"column:category" json:"category,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Campaign) TableName() string { return "campaign" }

// Ended reports whether the campaign no longer accepts donations.
func (c *Campaign) Ended(now time.Time) bool {
	return now.After(c.EndDate)
}

func (c *Campaign) Status(now time.Time) string {
	if c.Ended(now) {
		return StatusEnded
	}
	return StatusActive
}

// Progress is the funding ratio in percent, 0 when the target is unset.
func (c *Campaign) Progress() float64 {
	if c.TargetAmount <= 0 {
		return 0
	}
	return float64(c.CurrentAmount) / float64(c.TargetAmount) * 100
}
