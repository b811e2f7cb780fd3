package content

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

const DefaultCategory = "umum"

// News and Blog are structurally identical publishing records; they stay
// separate tables because the original product exposes them as separate
// resources with independent slugs.

type News struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string     `gorm:"not null;column:title" json:"title"`
	Slug       string     `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Content    string     `gorm:"type:text;not null;column:content" json:"content"`
	Image      string     `gorm:"column:image" json:"image,omitempty"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null;column:author_id" json:"author_id"`
	Category   string     `gorm:"not null;default:umum;column:category" json:"category"`
	CampaignID *uuid.UUID `gorm:"type:uuid;index;column:campaign_id" json:"campaign_id,omitempty"`
	Status     string     `gorm:"not null;default:draft;column:status" json:"status"`
	ViewCount  int        `gorm:"not null;default:0;column:view_count" json:"view_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (News) TableName() string { return "news" }

type Blog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string     `gorm:"not null;column:title" json:"title"`
	Slug       string     `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Content    string     `gorm:"type:text;not null;column:content" json:"content"`
	Image      string     `gorm:"column:image" json:"image,omitempty"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null;column:author_id" json:"author_id"`
	Category   string     `gorm:"not null;default:umum;column:category" json:"category"`
	CampaignID *uuid.UUID `gorm:"type:uuid;index;column:campaign_id" json:"campaign_id,omitempty"`
	Status     string     `gorm:"not null;default:draft;column:status" json:"status"`
	ViewCount  int        `gorm:"not null;default:0;column:view_count" json:"view_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Blog) TableName() string { return "blog" }
