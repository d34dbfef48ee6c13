package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"spotmap/config"
	"spotmap/models"
)

// GoogleProfile is the identity established by a verified Google sign-in.
type GoogleProfile struct {
	Email   string
	Name    string
	Picture *string
}

// GoogleVerifier exchanges an authorization code for a verified profile.
// The production implementation talks to Google; tests substitute a fake.
type GoogleVerifier interface {
	Exchange(ctx context.Context, code string) (*GoogleProfile, error)
}

// AuthService signs users in via Google, issues access tokens and manages
// the refresh token persisted on the user row.
type AuthService struct {
	db     *gorm.DB
	google GoogleVerifier
	cfg    config.AuthConfig
	log    zerolog.Logger
}

func NewAuthService(db *gorm.DB, google GoogleVerifier, cfg config.AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		db:     db,
		google: google,
		cfg:    cfg,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// LoginWithGoogle exchanges the authorization code, upserts the user by
// email and returns a fresh token pair.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*models.AuthResponse, error) {
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}

	var user models.User
	err = s.db.Where("email = ?", profile.Email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			ID:      uuid.NewString(),
			Email:   profile.Email,
			Name:    profile.Name,
			Picture: profile.Picture,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	case err != nil:
		return nil, err
	default:
		user.Name = profile.Name
		user.Picture = profile.Picture
		if err := s.db.Save(&user).Error; err != nil {
			return nil, err
		}
	}

	return s.issueTokens(&user)
}

// Refresh validates the presented pair and rotates the refresh token. The
// access token may be expired; only its signature and subject matter here.
func (s *AuthService) Refresh(accessToken, refreshToken string) (*models.AuthResponse, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrForbidden
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ErrForbidden
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrForbidden
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		s.log.Warn().Str("user_id", userID).Msg("refresh token mismatch")
		return nil, ErrForbidden
	}
	if user.RefreshTokenExpiry == nil || user.RefreshTokenExpiry.Before(time.Now()) {
		s.log.Warn().Str("user_id", userID).Msg("refresh token expired")
		return nil, ErrForbidden
	}

	return s.issueTokens(&user)
}

// Logout clears the stored refresh token when it matches the presented one.
func (s *AuthService) Logout(userID, refreshToken string) (bool, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return false, nil
	}

	err := s.db.Model(&user).Updates(map[string]any{
		"refresh_token":        nil,
		"refresh_token_expiry": nil,
	}).Error
	if err != nil {
		return false, err
	}
	s.log.Info().Str("user_id", userID).Msg("user logged out")
	return true, nil
}

// Profile returns the authenticated user's own profile.
func (s *AuthService) Profile(userID string) (*models.UserProfile, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &models.UserProfile{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
	}, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.AuthResponse, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"iss":   s.cfg.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.AccessTokenExpiry).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := randomToken(64)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	expiry := now.Add(s.cfg.RefreshTokenExpiry)
	err = s.db.Model(user).Updates(map[string]any{
		"refresh_token":        refreshToken,
		"refresh_token_expiry": expiry,
	}).Error
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.AccessTokenExpiry.Seconds()),
		User: models.UserProfile{
			ID:      user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Picture: user.Picture,
		},
	}, nil
}

func randomToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
