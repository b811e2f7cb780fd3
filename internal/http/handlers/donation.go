package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	"github.com/harumcare/harumcare-backend/internal/http/response"
	"github.com/harumcare/harumcare-backend/internal/platform/gcp"
	"github.com/harumcare/harumcare-backend/internal/services"
)

type DonationHandler struct {
	donationService services.DonationService
	bucket          gcp.BucketService
}

func NewDonationHandler(donationService services.DonationService, bucket gcp.BucketService) *DonationHandler {
	return &DonationHandler{
		donationService: donationService,
		bucket:          bucket,
	}
}

// POST /api/donations
func (dh *DonationHandler) Create(c *gin.Context) {
	var req services.CreateDonationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	summary, err := dh.donationService.Create(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"donation": summary})
}

// POST /api/donations/admin (admin)
func (dh *DonationHandler) CreateByAdmin(c *gin.Context) {
	var req services.AdminCreateDonationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	summary, err := dh.donationService.CreateByAdmin(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"donation": summary})
}

// GET /api/donations (admin)
func (dh *DonationHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	filter := donationrepo.ListFilter{
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		Page:          page,
		Limit:         limit,
	}
	donations, total, err := dh.donationService.List(c.Request.Context(), filter)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"donations": donations,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GET /api/donations/me
func (dh *DonationHandler) ListMine(c *gin.Context) {
	page, limit := pagination(c)
	donations, total, err := dh.donationService.ListMine(c.Request.Context(), page, limit)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"donations": donations,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GET /api/donations/transaction/:trx_id
func (dh *DonationHandler) GetByTransactionID(c *gin.Context) {
	d, err := dh.donationService.GetByTransactionID(c.Request.Context(), c.Param("trx_id"))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"donation": d})
}

// PUT /api/donations/:id/status (admin)
func (dh *DonationHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := dh.donationService.UpdateStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, result)
}

// DELETE /api/donations/:id (admin)
func (dh *DonationHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := dh.donationService.Delete(c.Request.Context(), id)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /api/donations/:id/proof (multipart/form-data, field "file")
func (dh *DonationHandler) UploadProof(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if dh.bucket == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "storage_disabled", errStorageDisabled)
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

	raw, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("%s/%d%s", id.String(), time.Now().UnixNano(), ext)
	if err := dh.bucket.UploadFile(c.Request.Context(), gcp.BucketCategoryProof, key, bytes.NewReader(raw)); err != nil {
		response.Err(c, err)
		return
	}
	proofURL := dh.bucket.GetPublicURL(gcp.BucketCategoryProof, key)

	d, err := dh.donationService.AttachProof(c.Request.Context(), id, proofURL)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"donation": d})
}

// POST /api/donations/webhook
//
// Payment gateway callback; identified by transaction ID, not by caller.
func (dh *DonationHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_body_failed", err)
		return
	}

	var payload struct {
		TransactionID string `json:"transaction_id"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := dh.donationService.WebhookStatusUpdate(c.Request.Context(), payload.TransactionID, payload.PaymentStatus, raw)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, result)
}
