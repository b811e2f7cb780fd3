package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harumcare/harumcare-backend/internal/http/response"
	"github.com/harumcare/harumcare-backend/internal/platform/gcp"
)

// UploadHandler serves admin image uploads for campaigns and content; the
// returned URL is pasted into the corresponding create/update payload.
type UploadHandler struct {
	bucket gcp.BucketService
}

func NewUploadHandler(bucket gcp.BucketService) *UploadHandler {
	return &UploadHandler{bucket: bucket}
}

var uploadCategories = map[string]gcp.BucketCategory{
	"campaign": gcp.BucketCategoryCampaign,
	"content":  gcp.BucketCategoryContent,
}

// POST /api/uploads/:category (admin, multipart/form-data, field "file")
func (uh *UploadHandler) Upload(c *gin.Context) {
	if uh.bucket == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "storage_disabled", errStorageDisabled)
		return
	}
	category, ok := uploadCategories[c.Param("category")]
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_category", fmt.Errorf("unknown upload category %q", c.Param("category")))
		return
	}

	const maxBytes = 10 << 20
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fh.Size > maxBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", errFileTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
		return
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("%s/%d%s", uuid.New().String(), time.Now().UnixNano(), ext)

	if err := uh.bucket.UploadFile(c.Request.Context(), category, key, f); err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"url": uh.bucket.GetPublicURL(category, key)})
}
