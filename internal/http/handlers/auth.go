package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harumcare/harumcare-backend/internal/domain/user"
	"github.com/harumcare/harumcare-backend/internal/http/response"
	"github.com/harumcare/harumcare-backend/internal/services"
)

var (
	errAvatarDisabled  = errors.New("avatar service is not configured")
	errStorageDisabled = errors.New("object storage is not configured")
	errFileTooLarge    = errors.New("file exceeds the upload limit")
)

type AuthHandler struct {
	authService   services.AuthService
	avatarService services.AvatarService
}

func NewAuthHandler(authService services.AuthService, avatarService services.AvatarService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		avatarService: avatarService,
	}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	// Role is never taken from the public registration body.
	req.Role = user.RoleUser

	u, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// POST /api/auth/register-admin (admin only)
func (ah *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.Role = user.RoleAdmin

	u, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Login    string `json:"login"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}

	result, err := ah.authService.Login(c.Request.Context(), login, req.Password)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, result)
}

// GET /api/auth/profile
func (ah *AuthHandler) GetProfile(c *gin.Context) {
	u, err := ah.authService.GetProfile(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PUT /api/auth/profile
func (ah *AuthHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := ah.authService.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/auth/avatar (multipart/form-data, field "file")
func (ah *AuthHandler) UploadAvatar(c *gin.Context) {
	if ah.avatarService == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "avatar_disabled", errAvatarDisabled)
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

	u, err := ah.authService.GetProfile(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	if err := ah.avatarService.CreateAndUploadUserAvatarFromImage(c.Request.Context(), nil, u, raw); err != nil {
		response.Err(c, err)
		return
	}
	response.RespondOK(c, gin.H{"avatar_url": u.AvatarURL})
}
