// internal/core/services/auth_service_test.go
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/services"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

const testJWTSecret = "test-secret-test-secret-test-secret"

func newAuthService(t *testing.T, ctrl *gomock.Controller) (*services.AuthService, *mocks.MockUserRepository) {
	t.Helper()

	repo := mocks.NewMockUserRepository(ctrl)
	svc := services.NewAuthService(repo, testJWTSecret, time.Hour, helpers.TestLogger())
	return svc, repo
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newAuthService(t, ctrl)

	var saved *domain.User
	repo.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			saved = u
			return nil
		})

	user, token, err := svc.Register(context.Background(), "Ada Operator", "ada@example.com", "s3cret-pass", domain.RoleManager)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)

	require.NotNil(t, saved)
	assert.NotEqual(t, "s3cret-pass", saved.PasswordHash, "password must be stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("s3cret-pass")))

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "Ada Operator", claims.Name)
	assert.Equal(t, domain.RoleManager, claims.Role)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newAuthService(t, ctrl)

	_, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "short", domain.RoleViewer)
	require.Error(t, err)

	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	knownUser := helpers.CreateTestUser(func(u *domain.User) {
		u.PasswordHash = string(hash)
	})

	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful_login",
			email:    knownUser.Email,
			password: "correct-horse",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().FindByEmail(gomock.Any(), knownUser.Email).Return(knownUser, nil)
				m.EXPECT().UpdateLastLogin(gomock.Any(), knownUser.ID).Return(nil)
			},
		},
		{
			name:     "wrong_password",
			email:    knownUser.Email,
			password: "wrong",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().FindByEmail(gomock.Any(), knownUser.Email).Return(knownUser, nil)
			},
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown_email",
			email:    "nobody@example.com",
			password: "correct-horse",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().
					FindByEmail(gomock.Any(), "nobody@example.com").
					Return(nil, domain.NewNotFoundError("user", "nobody@example.com"))
			},
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:     "deactivated_user",
			email:    knownUser.Email,
			password: "correct-horse",
			setupMocks: func(m *mocks.MockUserRepository) {
				inactive := *knownUser
				inactive.Active = false
				m.EXPECT().FindByEmail(gomock.Any(), knownUser.Email).Return(&inactive, nil)
			},
			expectedError: domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, repo := newAuthService(t, ctrl)
			tt.setupMocks(repo)

			user, token, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, knownUser.ID, user.ID)
		})
	}
}

func TestAuthService_Login_LastLoginFailureIsNotFatal(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := helpers.CreateTestUser(func(u *domain.User) {
		u.PasswordHash = string(hash)
	})

	ctrl := gomock.NewController(t)
	svc, repo := newAuthService(t, ctrl)

	repo.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
	repo.EXPECT().
		UpdateLastLogin(gomock.Any(), user.ID).
		Return(assert.AnError)

	_, token, err := svc.Login(context.Background(), user.Email, "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthService_VerifyToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newAuthService(t, ctrl)

	t.Run("garbage_token", func(t *testing.T) {
		_, err := svc.VerifyToken("not.a.token")
		require.Error(t, err)
	})

	t.Run("token_signed_with_other_secret", func(t *testing.T) {
		otherCtrl := gomock.NewController(t)
		otherRepo := mocks.NewMockUserRepository(otherCtrl)
		otherRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		other := services.NewAuthService(otherRepo, "a-completely-different-secret-value", time.Hour, helpers.TestLogger())
		_, token, err := other.Register(context.Background(), "Eve", "eve@example.com", "password1", domain.RoleViewer)
		require.NoError(t, err)

		_, err = svc.VerifyToken(token)
		require.Error(t, err)
	})

	t.Run("expired_token", func(t *testing.T) {
		// Signed by hand with a past expiry; the service constructor
		// normalizes a non-positive TTL to a day.
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"name": "Old",
			"role": string(domain.RoleViewer),
			"sub":  uuid.NewString(),
			"iat":  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			"exp":  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})
		token, err := expired.SignedString([]byte(testJWTSecret))
		require.NoError(t, err)

		_, err = svc.VerifyToken(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
}

func TestAuthService_UpdatePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := helpers.CreateTestUser(func(u *domain.User) {
		u.PasswordHash = string(hash)
	})

	t.Run("rotates_hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, repo := newAuthService(t, ctrl)

		repo.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)

		var updated *domain.User
		repo.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *domain.User) error {
				updated = u
				return nil
			})

		err := svc.UpdatePassword(context.Background(), user.ID, "old-password", "new-password")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-password")))
	})

	t.Run("wrong_current_password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, repo := newAuthService(t, ctrl)

		repo.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)

		err := svc.UpdatePassword(context.Background(), user.ID, "not-the-password", "new-password")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}
