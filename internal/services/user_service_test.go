package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 5*time.Hour)
	svc := NewUserService(database.NewUserRepository(db), database.NewRefreshTokenRepository(db),
		jwtService, bcrypt.MinCost, quietLogger())
	return svc, mock
}

func userRows(id uuid.UUID, hash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(id.String(), "Nok", "nok@example.com", "0812345678", hash, models.RoleCustomer, fixedNow, fixedNow)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Register(context.Background(), &models.RegisterInput{
		Name:     ptr("N"),
		Email:    ptr("not-an-email"),
		Phone:    ptr("12ab"),
		Password: ptr("123"),
		Role:     ptr("owner"),
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"name must be at least 2 characters",
		"email is invalid",
		"phone number is invalid",
		"password must be at least 6 characters",
		"role must be customer, admin, or staff",
	}, ve.Problems)
}

func TestUserService_RegisterDefaultsRole(t *testing.T) {
	svc, mock := newUserService(t)
	id := uuid.New()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Nok", "nok@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), models.RoleCustomer, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	u, err := svc.Register(context.Background(), &models.RegisterInput{
		Name:     ptr("Nok"),
		Email:    ptr("Nok@Example.com"),
		Phone:    ptr("081-234-5678"),
		Password: ptr("secret1"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "0812345678", u.Phone.String)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	session := models.SessionInfo{IP: "203.0.113.7", DeviceType: "desktop", Platform: "windows"}

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := newUserService(t)
		mock.ExpectQuery("FROM users WHERE email = \\$1").WithArgs("nok@example.com").
			WillReturnRows(userRows(uuid.New(), string(hash)))

		_, err := svc.Login(ctx, &models.LoginInput{Email: "nok@example.com", Password: "nope"}, session)
		var ae *AuthError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "Invalid email or password", ae.Message)
	})

	t.Run("issues tokens and stores the session", func(t *testing.T) {
		svc, mock := newUserService(t)
		id := uuid.New()
		mock.ExpectQuery("FROM users WHERE email = \\$1").WithArgs("nok@example.com").
			WillReturnRows(userRows(id, string(hash)))
		mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(0, 1))

		result, err := svc.Login(ctx, &models.LoginInput{Email: "NOK@example.com", Password: "secret1"}, session)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, id, result.User.ID)
	})
}

func TestUserService_RefreshRejectsUnknownSession(t *testing.T) {
	svc, mock := newUserService(t)
	token, err := svc.jwtService.GenerateRefreshToken(uuid.New(), "nok@example.com", models.RoleCustomer)
	require.NoError(t, err)

	mock.ExpectQuery("FROM refresh_tokens").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = svc.Refresh(context.Background(), token, models.SessionInfo{})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)

	_, err = svc.Refresh(context.Background(), "garbage", models.SessionInfo{})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid or expired refresh token", ae.Message)
}

func TestUserService_UpdateProfileNoChange(t *testing.T) {
	svc, mock := newUserService(t)
	id := uuid.New()
	mock.ExpectQuery("FROM users WHERE id = \\$1").WithArgs(id).WillReturnRows(userRows(id, "x"))

	_, err := svc.UpdateProfile(context.Background(), id, &models.ProfileInput{
		Name:  ptr("Nok"),
		Email: ptr("nok@example.com"),
		Phone: ptr("081 234 5678"),
	})
	assert.ErrorIs(t, err, ErrNoChange)
}
