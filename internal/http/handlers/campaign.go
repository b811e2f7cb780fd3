package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	"github.com/harumcare/harumcare-backend/internal/http/response"
	"github.com/harumcare/harumcare-backend/internal/services"
)

type CampaignHandler struct {
	campaignService services.CampaignService
	donationService services.DonationService
}

func NewCampaignHandler(campaignService services.CampaignService, donationService services.DonationService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		donationService: donationService,
	}
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/campaigns
func (ch *CampaignHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	filter := campaignrepo.ListFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Page:     page,
		Limit:    limit,
	}
	campaigns, total, err := ch.campaignService.List(c.Request.Context(), filter)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"campaigns": campaigns,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GET /api/campaigns/:id
func (ch *CampaignHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := ch.campaignService.GetDetail(c.Request.Context(), id)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign": detail})
}

// GET /api/campaigns/:id/donations
func (ch *CampaignHandler) ListDonations(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, limit := pagination(c)
	donations, total, err := ch.donationService.ListByCampaign(c.Request.Context(), id, page, limit)
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

// GET /api/campaigns/stats
func (ch *CampaignHandler) Stats(c *gin.Context) {
	stats, err := ch.campaignService.Stats(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}

// POST /api/campaigns (admin)
func (ch *CampaignHandler) Create(c *gin.Context) {
	var req services.CreateCampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	campaign, err := ch.campaignService.Create(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"campaign": campaign})
}

// PUT /api/campaigns/:id (admin)
func (ch *CampaignHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	campaign, err := ch.campaignService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign": campaign})
}

// DELETE /api/campaigns/:id (admin)
func (ch *CampaignHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ch.campaignService.Delete(c.Request.Context(), id); err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
