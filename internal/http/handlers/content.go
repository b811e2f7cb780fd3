package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	contentrepo "github.com/harumcare/harumcare-backend/internal/data/repos/content"
	"github.com/harumcare/harumcare-backend/internal/http/response"
	"github.com/harumcare/harumcare-backend/internal/services"
)

type ContentHandler struct {
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

func contentFilter(c *gin.Context) contentrepo.ListFilter {
	page, limit := pagination(c)
	return contentrepo.ListFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Page:     page,
		Limit:    limit,
	}
}

// ---------------- News ----------------

// GET /api/news
func (ch *ContentHandler) ListNews(c *gin.Context) {
	list, err := ch.contentService.ListNews(c.Request.Context(), contentFilter(c))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"news": list.Items, "total": list.Total, "page": list.Page, "limit": list.Limit})
}

// GET /api/news/:slug
func (ch *ContentHandler) GetNews(c *gin.Context) {
	n, err := ch.contentService.GetNewsBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"news": n})
}

// POST /api/news (admin)
func (ch *ContentHandler) CreateNews(c *gin.Context) {
	var req services.ContentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := ch.contentService.CreateNews(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"news": n})
}

// PUT /api/news/:id (admin)
func (ch *ContentHandler) UpdateNews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ContentUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := ch.contentService.UpdateNews(c.Request.Context(), id, req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"news": n})
}

// DELETE /api/news/:id (admin)
func (ch *ContentHandler) DeleteNews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ch.contentService.DeleteNews(c.Request.Context(), id); err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ---------------- Blog ----------------

// GET /api/blogs
func (ch *ContentHandler) ListBlogs(c *gin.Context) {
	list, err := ch.contentService.ListBlogs(c.Request.Context(), contentFilter(c))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"blogs": list.Items, "total": list.Total, "page": list.Page, "limit": list.Limit})
}

// GET /api/blogs/:slug
func (ch *ContentHandler) GetBlog(c *gin.Context) {
	b, err := ch.contentService.GetBlogBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"blog": b})
}

// POST /api/blogs (admin)
func (ch *ContentHandler) CreateBlog(c *gin.Context) {
	var req services.ContentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	b, err := ch.contentService.CreateBlog(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"blog": b})
}

// PUT /api/blogs/:id (admin)
func (ch *ContentHandler) UpdateBlog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ContentUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	b, err := ch.contentService.UpdateBlog(c.Request.Context(), id, req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"blog": b})
}

// DELETE /api/blogs/:id (admin)
func (ch *ContentHandler) DeleteBlog(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ch.contentService.DeleteBlog(c.Request.Context(), id); err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
