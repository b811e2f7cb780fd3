package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	userrepo "github.com/harumcare/harumcare-backend/internal/data/repos/user"
	usertypes "github.com/harumcare/harumcare-backend/internal/domain/user"
	"github.com/harumcare/harumcare-backend/internal/platform/apierr"
	"github.com/harumcare/harumcare-backend/internal/platform/ctxutil"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

type UpdateProfileInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type LoginResult struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Name   string    `json:"name"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*usertypes.User, error)
	Login(ctx context.Context, login, password string) (*LoginResult, error)
	GetProfile(ctx context.Context) (*usertypes.User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*usertypes.User, error)
	// SetContextFromToken validates a bearer token and attaches the caller's
	// identity to the context for downstream services.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     userrepo.UserRepo
	avatars      AvatarService
	jwtSecretKey string
	tokenTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo userrepo.UserRepo,
	avatars AvatarService,
	jwtSecretKey string,
	tokenTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		avatars:      avatars,
		jwtSecretKey: jwtSecretKey,
		tokenTTL:     tokenTTL,
	}
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*usertypes.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(strings.ToLower(input.Username))
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if input.Name == "" || input.Username == "" || input.Email == "" || input.Password == "" || input.Phone == "" {
		return nil, apierr.Validation("nama, username, email, password, dan nomor HP wajib diisi")
	}
	if !emailRe.MatchString(input.Email) {
		return nil, apierr.Validation("format email tidak valid")
	}

	if taken, err := as.userRepo.UsernameExists(ctx, nil, input.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, apierr.Validation("username sudah digunakan")
	}
	if taken, err := as.userRepo.EmailExists(ctx, nil, input.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apierr.Validation("email sudah digunakan")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := input.Role
	if role != usertypes.RoleAdmin {
		role = usertypes.RoleUser
	}

	u := &usertypes.User{
		ID:       uuid.New(),
		Name:     input.Name,
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
		Phone:    input.Phone,
		Address:  input.Address,
		Role:     role,
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if as.avatars != nil {
			if err := as.avatars.CreateAndUploadUserAvatar(ctx, u); err != nil {
				// Avatar generation is cosmetic; registration proceeds without it.
				as.log.Warn("Failed to create user avatar (ignored)", "error", err)
			}
		}
		_, err := as.userRepo.Create(ctx, tx, []*usertypes.User{u})
		return err
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("User registered", "user_id", u.ID.String(), "role", u.Role)
	return u, nil
}

func (as *authService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.TrimSpace(strings.ToLower(login))
	if login == "" || password == "" {
		return nil, apierr.Validation("username dan password wajib diisi")
	}

	u, err := as.userRepo.GetByUsernameOrEmail(ctx, nil, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Unauthorized("username/email atau password salah")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, apierr.Unauthorized("username/email atau password salah")
	}

	token, err := as.generateToken(u)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:  token,
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
	}, nil
}

func (as *authService) generateToken(u *usertypes.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": u.ID.String(),
		"role":    u.Role,
		"name":    u.Name,
		"iat":     now.Unix(),
		"exp":     now.Add(as.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, apierr.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, apierr.Unauthorized("invalid token claims")
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid token subject")
	}
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID: userID,
		Role:   role,
		Name:   name,
	}), nil
}

func (as *authService) GetProfile(ctx context.Context) (*usertypes.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}
	u, err := as.userRepo.GetByID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("user tidak ditemukan")
		}
		return nil, err
	}
	return u, nil
}

func (as *authService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*usertypes.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing identity")
	}

	fields := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if !emailRe.MatchString(email) {
			return nil, apierr.Validation("format email tidak valid")
		}
		fields["email"] = email
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}

	if len(fields) > 0 {
		if err := as.userRepo.UpdateProfile(ctx, nil, rd.UserID, fields); err != nil {
			return nil, err
		}
	}
	return as.GetProfile(ctx)
}
