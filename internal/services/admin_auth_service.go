package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/pkg/jwt"
)

// AdminAuthService handles admin authentication business logic
type AdminAuthService struct {
	adminRepo           *database.AdminRepository
	jwtService          *jwt.Service
	accessTokenDuration time.Duration
	bcryptCost          int
	logger              *logrus.Logger
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(
	adminRepo *database.AdminRepository,
	jwtService *jwt.Service,
	accessTokenDuration time.Duration,
	bcryptCost int,
	logger *logrus.Logger,
) *AdminAuthService {
	return &AdminAuthService{
		adminRepo:           adminRepo,
		jwtService:          jwtService,
		accessTokenDuration: accessTokenDuration,
		bcryptCost:          bcryptCost,
		logger:              logger,
	}
}

// Login authenticates an admin user and returns a token pair
func (s *AdminAuthService) Login(username, password string) (*models.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		// Same error for unknown user and bad password
		return nil, NewUnauthorizedError("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid username or password")
	}

	pair, err := s.issueTokenPair(admin)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("username", admin.Username).Info("Admin logged in")
	return pair, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *AdminAuthService) RefreshToken(refreshToken string) (*models.AdminLoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, NewUnauthorizedError("invalid refresh token")
	}

	// Re-check the account still exists
	admin, err := s.adminRepo.GetByUsername(claims.Username)
	if err != nil {
		return nil, NewUnauthorizedError("admin user not found")
	}

	return s.issueTokenPair(admin)
}

// SeedAdmin creates the configured admin account if it is missing
func (s *AdminAuthService) SeedAdmin(username, password string) error {
	if username == "" || password == "" {
		s.logger.Warn("Admin credentials not configured; skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}

	return s.adminRepo.Ensure(username, string(hash))
}

func (s *AdminAuthService) issueTokenPair(admin *models.AdminUser) (*models.AdminLoginResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Username)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Username)
	if err != nil {
		return nil, err
	}

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.accessTokenDuration),
	}, nil
}
