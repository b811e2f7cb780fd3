package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	contentrepo "github.com/harumcare/harumcare-backend/internal/data/repos/content"
	types "github.com/harumcare/harumcare-backend/internal/domain/content"
	"github.com/harumcare/harumcare-backend/internal/platform/apierr"
	"github.com/harumcare/harumcare-backend/internal/platform/ctxutil"
	"github.com/harumcare/harumcare-backend/internal/platform/gcp"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

type ContentInput struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Image      string     `json:"image"`
	Category   string     `json:"category"`
	CampaignID *uuid.UUID `json:"campaign_id"`
	Status     string     `json:"status"`
}

type ContentUpdateInput struct {
	Title      *string    `json:"title"`
	Content    *string    `json:"content"`
	Image      *string    `json:"image"`
	Category   *string    `json:"category"`
	CampaignID *uuid.UUID `json:"campaign_id"`
	Status     *string    `json:"status"`
}

type ContentList[T any] struct {
	Items []*T  `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type ContentService interface {
	CreateNews(ctx context.Context, input ContentInput) (*types.News, error)
	GetNewsBySlug(ctx context.Context, slug string) (*types.News, error)
	ListNews(ctx context.Context, filter contentrepo.ListFilter) (*ContentList[types.News], error)
	UpdateNews(ctx context.Context, newsID uuid.UUID, input ContentUpdateInput) (*types.News, error)
	DeleteNews(ctx context.Context, newsID uuid.UUID) error

	CreateBlog(ctx context.Context, input ContentInput) (*types.Blog, error)
	GetBlogBySlug(ctx context.Context, slug string) (*types.Blog, error)
	ListBlogs(ctx context.Context, filter contentrepo.ListFilter) (*ContentList[types.Blog], error)
	UpdateBlog(ctx context.Context, blogID uuid.UUID, input ContentUpdateInput) (*types.Blog, error)
	DeleteBlog(ctx context.Context, blogID uuid.UUID) error
}

type contentService struct {
	db            *gorm.DB
	log           *logger.Logger
	newsRepo      contentrepo.NewsRepo
	blogRepo      contentrepo.BlogRepo
	campaignRepo  campaignrepo.CampaignRepo
	bucketService gcp.BucketService
}

func NewContentService(
	db *gorm.DB,
	log *logger.Logger,
	newsRepo contentrepo.NewsRepo,
	blogRepo contentrepo.BlogRepo,
	campaignRepo campaignrepo.CampaignRepo,
	bucketService gcp.BucketService,
) ContentService {
	serviceLog := log.With("service", "ContentService")
	return &contentService{
		db:            db,
		log:           serviceLog,
		newsRepo:      newsRepo,
		blogRepo:      blogRepo,
		campaignRepo:  campaignRepo,
		bucketService: bucketService,
	}
}

// Slugify lowers, strips non-alphanumerics and collapses separators, so
// "Banjir di Demak!" becomes "banjir-di-demak".
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

func (cs *contentService) validateInput(ctx context.Context, input *ContentInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || strings.TrimSpace(input.Content) == "" {
		return apierr.Validation("judul dan konten wajib diisi")
	}
	if input.Category == "" {
		input.Category = types.DefaultCategory
	}
	if input.Status == "" {
		input.Status = types.StatusDraft
	}
	if input.Status != types.StatusDraft && input.Status != types.StatusPublished {
		return apierr.Validation("status harus draft atau published")
	}
	if input.CampaignID != nil {
		if _, err := cs.campaignRepo.GetByID(ctx, nil, *input.CampaignID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.Validation("campaign tidak ditemukan")
			}
			return err
		}
	}
	return nil
}

// uniqueSlug appends a numeric suffix until the slug is free.
func uniqueSlug(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	if base == "" {
		base = uuid.New().String()[:8]
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func requireAdmin(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}
	if !rd.IsAdmin() {
		return nil, apierr.Forbidden("akses ditolak")
	}
	return rd, nil
}

// ---------------- News ----------------

func (cs *contentService) CreateNews(ctx context.Context, input ContentInput) (*types.News, error) {
	rd, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := cs.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	slug, err := uniqueSlug(ctx, Slugify(input.Title), func(ctx context.Context, s string) (bool, error) {
		return cs.newsRepo.SlugExists(ctx, nil, s)
	})
	if err != nil {
		return nil, err
	}

	n := &types.News{
		ID:         uuid.New(),
		Title:      input.Title,
		Slug:       slug,
		Content:    input.Content,
		Image:      input.Image,
		AuthorID:   rd.UserID,
		Category:   input.Category,
		CampaignID: input.CampaignID,
		Status:     input.Status,
	}
	if _, err := cs.newsRepo.Create(ctx, nil, []*types.News{n}); err != nil {
		return nil, err
	}
	cs.log.Info("News created", "news_id", n.ID.String(), "slug", n.Slug)
	return n, nil
}

func (cs *contentService) GetNewsBySlug(ctx context.Context, slug string) (*types.News, error) {
	n, err := cs.newsRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("berita tidak ditemukan")
		}
		return nil, err
	}

	rd := ctxutil.GetRequestData(ctx)
	if n.Status != types.StatusPublished && !rd.IsAdmin() {
		return nil, apierr.NotFound("berita tidak ditemukan")
	}

	if err := cs.newsRepo.IncrementViewCount(ctx, nil, n.ID); err != nil {
		cs.log.Warn("Failed to bump view count (ignored)", "news_id", n.ID.String(), "error", err)
	} else {
		n.ViewCount++
	}
	return n, nil
}

func (cs *contentService) ListNews(ctx context.Context, filter contentrepo.ListFilter) (*ContentList[types.News], error) {
	// Non-admins only ever see published items.
	if !ctxutil.GetRequestData(ctx).IsAdmin() {
		filter.Status = types.StatusPublished
	}
	items, total, err := cs.newsRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, err
	}
	return &ContentList[types.News]{Items: items, Total: total, Page: max(filter.Page, 1), Limit: filter.Limit}, nil
}

func (cs *contentService) UpdateNews(ctx context.Context, newsID uuid.UUID, input ContentUpdateInput) (*types.News, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	existing, err := cs.newsRepo.GetByID(ctx, nil, newsID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("berita tidak ditemukan")
		}
		return nil, err
	}

	fields, oldImage, err := cs.contentUpdateFields(ctx, input, existing.Image, func(ctx context.Context, s string) (bool, error) {
		return cs.newsRepo.SlugExists(ctx, nil, s)
	})
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := cs.newsRepo.UpdateFields(ctx, nil, newsID, fields); err != nil {
			return nil, err
		}
	}
	cs.deleteImageObject(ctx, oldImage)
	return cs.newsRepo.GetByID(ctx, nil, newsID)
}

func (cs *contentService) DeleteNews(ctx context.Context, newsID uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	existing, err := cs.newsRepo.GetByID(ctx, nil, newsID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("berita tidak ditemukan")
		}
		return err
	}
	if err := cs.newsRepo.Delete(ctx, nil, newsID); err != nil {
		return err
	}
	cs.deleteImageObject(ctx, existing.Image)
	cs.log.Info("News deleted", "news_id", newsID.String())
	return nil
}

// ---------------- Blog ----------------

func (cs *contentService) CreateBlog(ctx context.Context, input ContentInput) (*types.Blog, error) {
	rd, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := cs.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	slug, err := uniqueSlug(ctx, Slugify(input.Title), func(ctx context.Context, s string) (bool, error) {
		return cs.blogRepo.SlugExists(ctx, nil, s)
	})
	if err != nil {
		return nil, err
	}

	b := &types.Blog{
		ID:         uuid.New(),
		Title:      input.Title,
		Slug:       slug,
		Content:    input.Content,
		Image:      input.Image,
		AuthorID:   rd.UserID,
		Category:   input.Category,
		CampaignID: input.CampaignID,
		Status:     input.Status,
	}
	if _, err := cs.blogRepo.Create(ctx, nil, []*types.Blog{b}); err != nil {
		return nil, err
	}
	cs.log.Info("Blog created", "blog_id", b.ID.String(), "slug", b.Slug)
	return b, nil
}

func (cs *contentService) GetBlogBySlug(ctx context.Context, slug string) (*types.Blog, error) {
	b, err := cs.blogRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("blog tidak ditemukan")
		}
		return nil, err
	}

	rd := ctxutil.GetRequestData(ctx)
	if b.Status != types.StatusPublished && !rd.IsAdmin() {
		return nil, apierr.NotFound("blog tidak ditemukan")
	}

	if err := cs.blogRepo.IncrementViewCount(ctx, nil, b.ID); err != nil {
		cs.log.Warn("Failed to bump view count (ignored)", "blog_id", b.ID.String(), "error", err)
	} else {
		b.ViewCount++
	}
	return b, nil
}

func (cs *contentService) ListBlogs(ctx context.Context, filter contentrepo.ListFilter) (*ContentList[types.Blog], error) {
	if !ctxutil.GetRequestData(ctx).IsAdmin() {
		filter.Status = types.StatusPublished
	}
	items, total, err := cs.blogRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, err
	}
	return &ContentList[types.Blog]{Items: items, Total: total, Page: max(filter.Page, 1), Limit: filter.Limit}, nil
}

func (cs *contentService) UpdateBlog(ctx context.Context, blogID uuid.UUID, input ContentUpdateInput) (*types.Blog, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	existing, err := cs.blogRepo.GetByID(ctx, nil, blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("blog tidak ditemukan")
		}
		return nil, err
	}

	fields, oldImage, err := cs.contentUpdateFields(ctx, input, existing.Image, func(ctx context.Context, s string) (bool, error) {
		return cs.blogRepo.SlugExists(ctx, nil, s)
	})
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := cs.blogRepo.UpdateFields(ctx, nil, blogID, fields); err != nil {
			return nil, err
		}
	}
	cs.deleteImageObject(ctx, oldImage)
	return cs.blogRepo.GetByID(ctx, nil, blogID)
}

func (cs *contentService) DeleteBlog(ctx context.Context, blogID uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	existing, err := cs.blogRepo.GetByID(ctx, nil, blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("blog tidak ditemukan")
		}
		return err
	}
	if err := cs.blogRepo.Delete(ctx, nil, blogID); err != nil {
		return err
	}
	cs.deleteImageObject(ctx, existing.Image)
	cs.log.Info("Blog deleted", "blog_id", blogID.String())
	return nil
}

// ---------------- Shared helpers ----------------

// contentUpdateFields builds the column map for an update. It returns the
// previous image URL when the image is being replaced so the caller can
// clean up the old object after the row is saved.
func (cs *contentService) contentUpdateFields(
	ctx context.Context,
	input ContentUpdateInput,
	currentImage string,
	slugExists func(context.Context, string) (bool, error),
) (map[string]any, string, error) {
	fields := map[string]any{}
	oldImage := ""

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		title := strings.TrimSpace(*input.Title)
		slug, err := uniqueSlug(ctx, Slugify(title), slugExists)
		if err != nil {
			return nil, "", err
		}
		fields["title"] = title
		fields["slug"] = slug
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, "", apierr.Validation("konten tidak boleh kosong")
		}
		fields["content"] = *input.Content
	}
	if input.Image != nil && *input.Image != currentImage {
		fields["image"] = *input.Image
		oldImage = currentImage
	}
	if input.Category != nil && *input.Category != "" {
		fields["category"] = *input.Category
	}
	if input.CampaignID != nil {
		if _, err := cs.campaignRepo.GetByID(ctx, nil, *input.CampaignID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", apierr.Validation("campaign tidak ditemukan")
			}
			return nil, "", err
		}
		fields["campaign_id"] = *input.CampaignID
	}
	if input.Status != nil {
		if *input.Status != types.StatusDraft && *input.Status != types.StatusPublished {
			return nil, "", apierr.Validation("status harus draft atau published")
		}
		fields["status"] = *input.Status
	}
	return fields, oldImage, nil
}

// deleteImageObject best-effort removes a replaced or orphaned content image.
func (cs *contentService) deleteImageObject(ctx context.Context, imageURL string) {
	if imageURL == "" || cs.bucketService == nil {
		return
	}
	key := cs.bucketService.KeyFromPublicURL(gcp.BucketCategoryContent, imageURL)
	if key == "" {
		return
	}
	if err := cs.bucketService.DeleteFile(ctx, gcp.BucketCategoryContent, key); err != nil {
		cs.log.Warn("Failed to delete content image (ignored)", "key", key, "error", err)
	}
}
