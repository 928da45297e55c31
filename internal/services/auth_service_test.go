package services

import (
	"context"
	"testing"
	"time"

	"medbook_backend/internal/auth"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	service      *AuthService
	userRepo     *fakeUserRepo
	tokenRepo    *fakeRefreshTokenRepo
	referrerRepo *fakeReferrerRepo
	examineeRepo *fakeExamineeRepo
}

func newAuthFixture(users ...*models.User) *authFixture {
	userRepo := newFakeUserRepo(users...)
	tokenRepo := newFakeRefreshTokenRepo()
	referrerRepo := newFakeReferrerRepo()
	examineeRepo := newFakeExamineeRepo(&models.Examinee{
		BaseModelWithDeleted: models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "ex-1"}},
		FirstName:            "Jordan",
		LastName:             "Hale",
	})
	orgRepo := newFakeOrganizationRepo(&models.Organization{
		BaseModelWithDeleted: models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "org-1"}},
		Name:                 "Harbour Legal",
	})

	service := NewAuthService(userRepo, tokenRepo, referrerRepo, examineeRepo, orgRepo, nil)
	return &authFixture{
		service:      service,
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		referrerRepo: referrerRepo,
		examineeRepo: examineeRepo,
	}
}

func activeUser(id, emailAddr, password string) *models.User {
	hash, _ := auth.HashPassword(password)
	return &models.User{
		BaseModel:    models.BaseModel{ID: id},
		Email:        emailAddr,
		PasswordHash: hash,
		Name:         "Casey Morgan",
		Role:         models.UserRoleReferrer,
		Status:       models.UserStatusActive,
	}
}

func TestRegisterReferrer(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newAuthFixture()
	req := &dto.RegisterReferrerRequest{
		Email:          "casey@harbourlegal.example",
		Password:       "sufficiently-long",
		Name:           "Casey Morgan",
		OrganizationID: "org-1",
		Position:       "Paralegal",
	}

	// Act
	resp, err := fx.service.RegisterReferrer(context.Background(), req)

	// Assert: account, referrer profile and token pair all exist
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.UserRoleReferrer, resp.Role)

	user, err := fx.userRepo.FindByEmail(context.Background(), req.Email)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.NotEqual(t, "sufficiently-long", user.PasswordHash)

	referrer, err := fx.referrerRepo.FindByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "org-1", referrer.OrganizationID)
}

func TestRegisterReferrer_EmailTaken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2"))

	_, err := fx.service.RegisterReferrer(context.Background(), &dto.RegisterReferrerRequest{
		Email:          "casey@harbourlegal.example",
		Password:       "sufficiently-long",
		Name:           "Casey Morgan",
		OrganizationID: "org-1",
	})

	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestRegisterReferrer_UnknownOrganization(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture()

	_, err := fx.service.RegisterReferrer(context.Background(), &dto.RegisterReferrerRequest{
		Email:          "casey@harbourlegal.example",
		Password:       "sufficiently-long",
		Name:           "Casey Morgan",
		OrganizationID: "org-missing",
	})

	assert.ErrorIs(t, err, apperrors.ErrOrganizationNotFound)
}

func TestRegisterReferrer_WeakPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture()

	_, err := fx.service.RegisterReferrer(context.Background(), &dto.RegisterReferrerRequest{
		Email:          "casey@harbourlegal.example",
		Password:       "short",
		Name:           "Casey Morgan",
		OrganizationID: "org-1",
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestRegisterExaminee_LinksExistingRecord(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newAuthFixture()

	// Act
	resp, err := fx.service.RegisterExaminee(context.Background(), &dto.RegisterExamineeRequest{
		Email:      "jordan.hale@example.com",
		Password:   "sufficiently-long",
		Name:       "Jordan Hale",
		ExamineeID: "ex-1",
	})

	// Assert: the examinee record now points at the new account
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleExaminee, resp.Role)
	examinee, err := fx.examineeRepo.FindByID(context.Background(), "ex-1")
	require.NoError(t, err)
	require.NotNil(t, examinee.UserID)
	assert.Equal(t, resp.UserID, *examinee.UserID)
}

func TestRegisterExaminee_AlreadyLinked(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newAuthFixture()
	linked := "user-existing"
	examinee, _ := fx.examineeRepo.FindByID(context.Background(), "ex-1")
	examinee.UserID = &linked

	// Act
	_, err := fx.service.RegisterExaminee(context.Background(), &dto.RegisterExamineeRequest{
		Email:      "jordan.hale@example.com",
		Password:   "sufficiently-long",
		Name:       "Jordan Hale",
		ExamineeID: "ex-1",
	})

	// Assert
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.HTTPCode)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2"))

	resp, err := fx.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "casey@harbourlegal.example",
		Password: "hunter2hunter2",
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2"))

	_, err := fx.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "casey@harbourlegal.example",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_UnknownEmailLooksLikeBadCredentials(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture()

	_, err := fx.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	// Must not leak whether the account exists
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_SuspendedAccount(t *testing.T) {
	t.Parallel()

	user := activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2")
	user.Status = models.UserStatusSuspended
	fx := newAuthFixture(user)

	_, err := fx.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "casey@harbourlegal.example",
		Password: "hunter2hunter2",
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.HTTPCode)
}

func TestRefresh_RotatesToken(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newAuthFixture(activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2"))
	login, err := fx.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "casey@harbourlegal.example",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	// Act
	refreshed, err := fx.service.Refresh(context.Background(), &dto.RefreshRequest{
		RefreshToken: login.RefreshToken,
	})

	// Assert: new token issued, old one gone
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	_, err = fx.tokenRepo.FindByToken(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	t.Parallel()

	// Arrange
	fx := newAuthFixture(activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2"))
	expired := &models.RefreshToken{
		UserID:    "u1",
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, fx.tokenRepo.Create(context.Background(), expired))

	// Act
	_, err := fx.service.Refresh(context.Background(), &dto.RefreshRequest{RefreshToken: "stale-token"})

	// Assert: rejected and purged
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	_, err = fx.tokenRepo.FindByToken(context.Background(), "stale-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(activeUser("u1", "casey@harbourlegal.example", "hunter2hunter2"))
	login, err := fx.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "casey@harbourlegal.example",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(context.Background(), login.RefreshToken))

	_, err = fx.tokenRepo.FindByToken(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
