package service

import (
	"testing"
	"time"

	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthServiceTest(t *testing.T) AuthService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	return NewAuthService(
		userRepo,
		"test-jwt-secret",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func TestAuthService_Register(t *testing.T) {
	authService := setupAuthServiceTest(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "Valid registration",
			username: "amina",
			email:    "amina@example.com",
			password: "password123",
			wantErr:  nil,
		},
		{
			name:     "Duplicate email",
			username: "amina2",
			email:    "amina@example.com",
			password: "password456",
			wantErr:  ErrEmailAlreadyExists,
		},
		{
			name:     "Duplicate username",
			username: "amina",
			email:    "amina.other@example.com",
			password: "password456",
			wantErr:  ErrUsernameAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := authService.Register(
				tt.username,
				tt.email,
				tt.password,
				"Amina Bello",
				"+237670000001",
			)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				require.NotNil(t, tokens)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.username, user.Username)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEmpty(t, tokens.AccessToken)
				assert.NotEmpty(t, tokens.RefreshToken)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Register("amina", "amina@example.com", "password123", "Amina Bello", "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{"By email", "amina@example.com", "password123", nil},
		{"By username", "amina", "password123", nil},
		{"Wrong password", "amina@example.com", "nope", ErrInvalidCredentials},
		{"Unknown identifier", "ghost@example.com", "password123", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := authService.Login(tt.identifier, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, "amina@example.com", user.Email)
				assert.NotEmpty(t, tokens.AccessToken)
			}
		})
	}
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, _, err := authService.Register("amina", "amina@example.com", "password123", "Amina Bello", "")
	require.NoError(t, err)

	found, err := authService.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = authService.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, _, err := authService.Register("amina", "amina@example.com", "password123", "Amina Bello", "")
	require.NoError(t, err)

	updated, err := authService.UpdateProfile(user.ID, "Amina B.", "+237670000002", "Douala", "")
	require.NoError(t, err)
	assert.Equal(t, "Amina B.", updated.FullName)
	assert.Equal(t, "+237670000002", updated.Phone)
	assert.Equal(t, "Douala", updated.City)

	// untouched fields keep their values
	assert.Equal(t, "amina@example.com", updated.Email)
}
