package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harumcare/harumcare-backend/internal/data/repos/testutil"
	types "github.com/harumcare/harumcare-backend/internal/domain/content"
)

func seedNews(t *testing.T, ctx context.Context, repo NewsRepo, title, slug string, campaignID *uuid.UUID, status string) *types.News {
	t.Helper()
	n := &types.News{
		ID:         uuid.New(),
		Title:      title,
		Slug:       slug,
		Content:    "isi berita",
		AuthorID:   uuid.New(),
		Category:   types.DefaultCategory,
		CampaignID: campaignID,
		Status:     status,
	}
	if _, err := repo.Create(ctx, nil, []*types.News{n}); err != nil {
		t.Fatalf("seed news: %v", err)
	}
	return n
}

func TestSlugExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewNewsRepo(gdb, testutil.Logger(t))

	seedNews(t, ctx, repo, "Berita", "berita", nil, types.StatusPublished)

	if taken, err := repo.SlugExists(ctx, nil, "berita"); err != nil || !taken {
		t.Fatalf("slug should exist: taken=%v err=%v", taken, err)
	}
	if taken, err := repo.SlugExists(ctx, nil, "berita-lain"); err != nil || taken {
		t.Fatalf("slug should be free: taken=%v err=%v", taken, err)
	}
}

func TestIncrementViewCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewNewsRepo(gdb, testutil.Logger(t))

	n := seedNews(t, ctx, repo, "Berita", "berita", nil, types.StatusPublished)

	for i := 0; i < 3; i++ {
		if err := repo.IncrementViewCount(ctx, nil, n.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, nil, n.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ViewCount != 3 {
		t.Fatalf("unexpected view count: %d", got.ViewCount)
	}
}

func TestListPublishedByCampaign(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewNewsRepo(gdb, testutil.Logger(t))

	c := testutil.SeedCampaign(t, ctx, gdb, 100000, time.Now().Add(24*time.Hour))

	seedNews(t, ctx, repo, "Publik 1", "publik-1", &c.ID, types.StatusPublished)
	seedNews(t, ctx, repo, "Publik 2", "publik-2", &c.ID, types.StatusPublished)
	seedNews(t, ctx, repo, "Draft", "draft-1", &c.ID, types.StatusDraft)
	seedNews(t, ctx, repo, "Lepas", "lepas-1", nil, types.StatusPublished)

	got, err := repo.ListPublishedByCampaign(ctx, nil, c.ID, 5)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 published campaign news, got %d", len(got))
	}
	for _, n := range got {
		if n.Status != types.StatusPublished {
			t.Fatalf("draft leaked: %s", n.Slug)
		}
	}
}

func TestBlogListFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	gdb := testutil.DB(t)
	repo := NewBlogRepo(gdb, testutil.Logger(t))

	for i, status := range []string{types.StatusPublished, types.StatusPublished, types.StatusDraft} {
		b := &types.Blog{
			ID:       uuid.New(),
			Title:    "Blog",
			Slug:     "blog-" + string(rune('a'+i)),
			Content:  "isi",
			AuthorID: uuid.New(),
			Category: types.DefaultCategory,
			Status:   status,
		}
		if _, err := repo.Create(ctx, nil, []*types.Blog{b}); err != nil {
			t.Fatalf("seed blog: %v", err)
		}
	}

	_, total, err := repo.List(ctx, nil, ListFilter{Status: types.StatusPublished})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("unexpected published total: %d", total)
	}
}
