package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/jwt"
	"github.com/travelbooking/catalog-api/pkg/patch"
	"github.com/travelbooking/catalog-api/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

// Roles a user may register with
var userRoles = []string{models.RoleCustomer, models.RoleAdmin, models.RoleStaff}

// revokedSessionRetention is how long revoked refresh sessions are kept for auditing
const revokedSessionRetention = 24 * time.Hour

// UserService handles registration, authentication and user profiles
type UserService struct {
	users      *database.UserRepository
	sessions   *database.RefreshTokenRepository
	jwtService *jwt.Service
	phones     *validator.PhoneValidator
	bcryptCost int
	logger     *logrus.Logger
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	users *database.UserRepository,
	sessions *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	bcryptCost int,
	logger *logrus.Logger,
) *UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:      users,
		sessions:   sessions,
		jwtService: jwtService,
		phones:     validator.NewPhoneValidator(),
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// checkProfile validates name, email and phone, returning the normalized email and phone
func (s *UserService) checkProfile(v *ValidationError, name, email, phone *string, create bool) (string, string) {
	if name == nil {
		if create {
			v.Add("name is required")
		}
	} else if strings.TrimSpace(*name) == "" {
		v.Add("name cannot be empty")
	} else if utf8.RuneCountInString(strings.TrimSpace(*name)) < 2 {
		v.Add("name must be at least 2 characters")
	}

	var normEmail, normPhone string
	if email == nil {
		if create {
			v.Add("email is required")
		}
	} else if e, err := validator.NormalizeEmail(*email); err != nil {
		v.Add("email is invalid")
	} else {
		normEmail = e
	}

	if phone != nil {
		if p, err := s.phones.Validate(*phone); err != nil {
			v.Add("phone number is invalid")
		} else {
			normPhone = p
		}
	}
	return normEmail, normPhone
}

// ============================================================================
// REGISTRATION / AUTHENTICATION
// ============================================================================

// Register validates and stores a new user with a bcrypt password hash
func (s *UserService) Register(ctx context.Context, in *models.RegisterInput) (*models.User, error) {
	v := validationFor(in)
	email, phone := s.checkProfile(v, in.Name, in.Email, in.Phone, true)
	if in.Password == nil || *in.Password == "" {
		v.Add("password is required")
	} else if len(*in.Password) < 6 {
		v.Add("password must be at least 6 characters")
	}
	role := models.RoleCustomer
	if in.Role != nil {
		role = strings.TrimSpace(*in.Role)
		if !lo.Contains(userRoles, role) {
			v.Add("role must be customer, admin, or staff")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
	if err != nil {
		return nil, internal("hash password", err)
	}

	now := s.now()
	u := &models.User{
		Name:         strings.TrimSpace(*in.Name),
		Email:        email,
		Phone:        models.NewNullString(phone),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, internal("create user", uniqueViolation(err, "User", "email"))
	}
	if u.ID == uuid.Nil {
		return nil, &InsertError{Entity: "user"}
	}

	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("User registered")
	return u, nil
}

// Login checks credentials and issues an access token and a refresh session
func (s *UserService) Login(ctx context.Context, in *models.LoginInput, session models.SessionInfo) (*models.AuthResult, error) {
	v := validationFor(in)
	email, err := validator.NormalizeEmail(in.Email)
	if err != nil {
		if errors.Is(err, validator.ErrEmptyEmail) {
			v.Add("email is required")
		} else {
			v.Add("email is invalid")
		}
	}
	if in.Password == "" {
		v.Add("password is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, internal("get user by email", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		s.logger.WithFields(logrus.Fields{"email": email, "ip": session.IP}).Warn("Login failed")
		return nil, &AuthError{Message: "Invalid email or password"}
	}

	result, err := s.issueTokens(ctx, u, session)
	if err != nil {
		return nil, err
	}
	result.User = u

	s.logger.WithFields(logrus.Fields{
		"user_id":     u.ID,
		"ip":          session.IP,
		"device_type": session.DeviceType,
	}).Info("User logged in")
	return result, nil
}

// Refresh rotates a refresh token: the new session is stored before the old one is revoked
func (s *UserService) Refresh(ctx context.Context, token string, session models.SessionInfo) (*models.AuthResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewValidationError("refreshToken is required")
	}

	claims, err := s.jwtService.ValidateRefreshToken(token)
	if err != nil {
		return nil, &AuthError{Message: "Invalid or expired refresh token"}
	}
	stored, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, internal("get refresh session", err)
	}
	if stored == nil || stored.Revoked || !stored.ExpiresAt.After(s.now()) {
		return nil, &AuthError{Message: "Refresh token has been revoked"}
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, internal("get user", err)
	}
	if u == nil {
		return nil, &AuthError{Message: "User no longer exists"}
	}

	result, err := s.issueTokens(ctx, u, session)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Revoke(ctx, token, s.now()); err != nil {
		s.logger.WithField("user_id", u.ID).WithError(err).Warn("Old refresh token not revoked")
	}

	s.logger.WithField("user_id", u.ID).Info("Refresh token rotated")
	return result, nil
}

// Logout revokes one refresh session, or every session of the user when all is set
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID, token string, all bool) error {
	now := s.now()
	if all {
		if err := s.sessions.RevokeAllForUser(ctx, userID, now); err != nil {
			return internal("revoke sessions", err)
		}
	} else if token != "" {
		if _, err := s.sessions.Revoke(ctx, token, now); err != nil {
			return internal("revoke session", err)
		}
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "all": all}).Info("User logged out")
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *UserService) issueTokens(ctx context.Context, u *models.User, session models.SessionInfo) (*models.AuthResult, error) {
	access, err := s.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, internal("generate access token", err)
	}
	refresh, err := s.jwtService.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, internal("generate refresh token", err)
	}
	expiresAt := s.now().Add(s.jwtService.RefreshTokenExpiry())
	if err := s.sessions.Store(ctx, u.ID, refresh, session, expiresAt); err != nil {
		return nil, internal("store refresh token", err)
	}
	return &models.AuthResult{Token: access, RefreshToken: refresh}, nil
}

// CleanupSessions deletes expired sessions and revoked sessions past retention
func (s *UserService) CleanupSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now(), revokedSessionRetention)
	if err != nil {
		return 0, internal("cleanup refresh sessions", err)
	}
	return n, nil
}

// ============================================================================
// PROFILES
// ============================================================================

// List returns every user
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	if len(users) == 0 {
		return nil, &NotFoundError{Entity: "users"}
	}
	return users, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, internal("get user", err)
	}
	if u == nil {
		return nil, &NotFoundError{Entity: "user", Key: id.String()}
	}
	return u, nil
}

// UpdateProfile applies changed name, email and phone values
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in *models.ProfileInput) (*models.User, error) {
	v := validationFor(in)
	email, phone := s.checkProfile(v, in.Name, in.Email, in.Phone, false)
	if err := v.Err(); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var name *string
	if in.Name != nil {
		name = lo.ToPtr(strings.TrimSpace(*in.Name))
	}
	set, err := patch.Diff(
		patch.Field{Column: "name", Kind: patch.String, Next: name, Current: current.Name},
		patch.Field{Column: "email", Kind: patch.String, Next: optional(email), Current: current.Email},
		patch.Field{Column: "phone", Kind: patch.String, Next: optional(phone), Current: current.Phone.String},
	)
	if err != nil {
		return nil, internal("diff user", err)
	}
	err = finishUpdate("user", set, s.now(), func(set *patch.Set) (int64, error) {
		rows, err := s.users.Update(ctx, id, set)
		return rows, uniqueViolation(err, "User", "email")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id, "columns": set.Columns()}).Info("User profile updated")
	return s.Get(ctx, id)
}

// Delete removes a user and revokes their sessions
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllForUser(ctx, id, s.now()); err != nil {
		return internal("revoke sessions", err)
	}
	if _, err := s.users.Delete(ctx, id); err != nil {
		return internal("delete user", err)
	}
	s.logger.WithField("user_id", id).Info("User deleted")
	return nil
}
