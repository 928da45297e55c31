package services

import (
	"context"
	"time"

	"medbook_backend/internal/auth"
	"medbook_backend/internal/config"
	"medbook_backend/internal/email"
	"medbook_backend/internal/logger"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	referrerRepo     repositories.ReferrerRepository
	examineeRepo     repositories.ExamineeRepository
	organizationRepo repositories.OrganizationRepository
	emailProvider    email.Provider
}

func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	referrerRepo repositories.ReferrerRepository,
	examineeRepo repositories.ExamineeRepository,
	organizationRepo repositories.OrganizationRepository,
	emailProvider email.Provider,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		referrerRepo:     referrerRepo,
		examineeRepo:     examineeRepo,
		organizationRepo: organizationRepo,
		emailProvider:    emailProvider,
	}
}

// RegisterReferrer creates a portal account for a person at a referring
// organization.
func (s *AuthService) RegisterReferrer(ctx context.Context, req *dto.RegisterReferrerRequest) (*dto.AuthResponse, error) {
	taken, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	if _, err := s.organizationRepo.FindByID(ctx, req.OrganizationID); err != nil {
		return nil, err
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             req.Email,
		PasswordHash:      hash,
		Name:              req.Name,
		Role:              models.UserRoleReferrer,
		Status:            models.UserStatusActive,
		VerificationToken: uuid.NewString(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	referrer := &models.Referrer{
		UserID:         user.ID,
		OrganizationID: req.OrganizationID,
		Phone:          req.Phone,
		Position:       req.Position,
	}
	if err := s.referrerRepo.Create(ctx, referrer); err != nil {
		return nil, err
	}

	s.sendVerificationEmail(user)

	return s.issueTokens(ctx, user)
}

// RegisterExaminee links a portal account to an existing examinee record.
// The examinee id is handed out by the referrer together with the
// registration invitation.
func (s *AuthService) RegisterExaminee(ctx context.Context, req *dto.RegisterExamineeRequest) (*dto.AuthResponse, error) {
	taken, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	examinee, err := s.examineeRepo.FindByID(ctx, req.ExamineeID)
	if err != nil {
		return nil, err
	}
	if examinee.UserID != nil {
		return nil, apperrors.New(apperrors.CodeAlreadyExists, "examinee", "Examinee already has an account", 409)
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             req.Email,
		PasswordHash:      hash,
		Name:              req.Name,
		Role:              models.UserRoleExaminee,
		Status:            models.UserStatusActive,
		VerificationToken: uuid.NewString(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	examinee.UserID = &user.ID
	if err := s.examineeRepo.Update(ctx, examinee); err != nil {
		return nil, err
	}

	s.sendVerificationEmail(user)

	return s.issueTokens(ctx, user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.NewForbiddenError("Account is suspended")
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	stored, err := s.refreshTokenRepo.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}

	if stored.ExpiresAt.Before(time.Now()) {
		_ = s.refreshTokenRepo.DeleteByToken(ctx, stored.Token)
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.DeleteByToken(ctx, stored.Token); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.DeleteByToken(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	cfg := config.GetConfig()

	accessToken, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Duration(cfg.JWT.RefreshTTL) * time.Hour),
	}
	if err := s.refreshTokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresAt:    time.Now().Add(time.Duration(cfg.JWT.TTL) * time.Minute),
		UserID:       user.ID,
		Role:         user.Role,
	}, nil
}

func (s *AuthService) sendVerificationEmail(user *models.User) {
	if s.emailProvider == nil {
		return
	}

	go func() {
		err := s.emailProvider.SendTemplate(
			[]string{user.Email},
			"Please verify your email",
			"verification",
			email.TemplateData{
				"Name": user.Name,
				"Link": "/verify?token=" + user.VerificationToken,
			},
		)
		if err != nil {
			logger.WithError(err).Warn("failed to send verification email", "email", user.Email)
		}
	}()
}
