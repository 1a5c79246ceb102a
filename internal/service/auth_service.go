package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/safe-eats/api/internal/apperr"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/repository"
	"github.com/safe-eats/api/pkg/auth"
)

// AuthService handles account creation and identity-token issuance
type AuthService struct {
	userRepo       *repository.UserRepository
	jwtManager     *auth.JWTManager
	rdb            *redis.Client
	googleClientID string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	jwtManager *auth.JWTManager,
	rdb *redis.Client,
	googleClientID string,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		jwtManager:     jwtManager,
		rdb:            rdb,
		googleClientID: googleClientID,
	}
}

// SignUp creates a password-backed account and issues a token immediately
func (s *AuthService) SignUp(req model.SignUpRequest) (*model.AuthResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperr.Validation("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.External(err, "failed to look up email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.External(err, "failed to hash password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashedPassword),
		AuthProvider: model.AuthProviderEmail,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.External(err, "failed to create user")
	}

	return s.issueToken(user)
}

// Login validates email/password credentials
func (s *AuthService) Login(req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, apperr.External(err, "failed to look up user")
	}
	if user.AuthProvider != model.AuthProviderEmail || user.Password == "" {
		return nil, apperr.Unauthorized("account uses Google sign-in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return s.issueToken(user)
}

// GoogleAuth verifies a Google ID token and gets or creates the account
func (s *AuthService) GoogleAuth(ctx context.Context, rawIDToken string) (*model.AuthResponse, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, s.googleClientID)
	if err != nil {
		return nil, apperr.Unauthorized("invalid Google token")
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		return nil, apperr.Unauthorized("Google token missing email")
	}

	user, err := s.userRepo.GetOrCreateGoogleUser(payload.Subject, email, name)
	if err != nil {
		return nil, apperr.External(err, "failed to get or create user")
	}
	return s.issueToken(user)
}

// SetPushToken registers the caller's push-notification destination
func (s *AuthService) SetPushToken(userID uuid.UUID, token string) (*model.User, error) {
	if err := s.userRepo.SetPushToken(userID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.External(err, "failed to set push token")
	}
	return s.userRepo.FindByID(userID)
}

// UpdateProfile edits the caller's account. A new password is only accepted
// for password-backed accounts.
func (s *AuthService) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) (*model.User, error) {
	updates := map[string]interface{}{"name": req.Name}
	if req.Password != "" {
		user, err := s.userRepo.FindByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("user %s not found", userID)
			}
			return nil, apperr.External(err, "failed to load user")
		}
		if user.AuthProvider != model.AuthProviderEmail {
			return nil, apperr.Validation("account uses Google sign-in")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.External(err, "failed to hash password")
		}
		updates["password"] = string(hashedPassword)
	}

	if err := s.userRepo.Update(userID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.External(err, "failed to update user")
	}
	return s.Profile(userID)
}

// DeleteAccount removes the caller's account. Appliance and recipe
// associations cascade away; the appliances and recipes themselves survive.
func (s *AuthService) DeleteAccount(userID uuid.UUID) error {
	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user %s not found", userID)
		}
		return apperr.External(err, "failed to delete user")
	}
	return nil
}

// Profile returns the authenticated user
func (s *AuthService) Profile(userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.External(err, "failed to load user")
	}
	return user, nil
}

// Logout blacklists the presented token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return apperr.Unauthorized("invalid token")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, "blacklist:"+tokenString, "1", ttl).Err(); err != nil {
		return apperr.External(err, "failed to revoke token")
	}
	return nil
}

func (s *AuthService) issueToken(user *model.User) (*model.AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, apperr.External(err, "failed to sign token")
	}
	return &model.AuthResponse{Token: token, User: user.ToResponse()}, nil
}
