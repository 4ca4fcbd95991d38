package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Leganyst/ordering-platform/internal/config"
	"github.com/Leganyst/ordering-platform/internal/logging"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/ordering"
	"github.com/Leganyst/ordering-platform/internal/page"
	"github.com/Leganyst/ordering-platform/internal/repository"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	adminUsername       = "admin"
	seedPasswordLength  = 8
	seedPasswordSymbols = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var errBadCredentials = ordering.Errorf(ordering.KindUnauthorized, "invalid username or password")

// Claims of both access and refresh tokens.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}

// IdentityService: вход, выпуск токенов и управление пользователями.
type IdentityService struct {
	users repository.UserRepository
	auth  config.AuthConfig
	now   func() time.Time
}

func NewIdentityService(users repository.UserRepository, auth config.AuthConfig) *IdentityService {
	return &IdentityService{users: users, auth: auth, now: time.Now}
}

func (s *IdentityService) issue(u *model.User, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: u.Username,
		Role:     u.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.auth.JWTSecret))
}

// ParseToken проверяет подпись, срок и тип токена.
func (s *IdentityService) ParseToken(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.auth.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ordering.Errorf(ordering.KindUnauthorized, "invalid token")
	}
	if claims.Type != wantType {
		return nil, ordering.Errorf(ordering.KindUnauthorized, "expected %s token", wantType)
	}
	return claims, nil
}

// Identity достаёт (username, role) из access-токена.
func (s *IdentityService) Identity(raw string) (ordering.Identity, error) {
	claims, err := s.ParseToken(raw, TokenTypeAccess)
	if err != nil {
		return ordering.Identity{}, err
	}
	return ordering.Identity{Username: claims.Username, Role: claims.Role}, nil
}

func (s *IdentityService) checkPassword(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return u, nil
}

// Login выдаёт пару access/refresh.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	u, err := s.checkPassword(ctx, username, password)
	if err != nil {
		return nil, err
	}

	access, err := s.issue(u, TokenTypeAccess, s.auth.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.issue(u, TokenTypeRefresh, s.auth.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	logging.Ctx(ctx).Info().Str("user", u.Username).Msg("user logged in")
	return &TokenPair{Token: access, RefreshToken: refresh}, nil
}

// Refresh выдаёт новый access-токен по refresh-токену и повторной проверке пароля.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken, password string) (string, error) {
	claims, err := s.ParseToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	u, err := s.checkPassword(ctx, claims.Username, password)
	if err != nil {
		return "", err
	}
	access, err := s.issue(u, TokenTypeAccess, s.auth.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

// Register создаёт пользователя с одной из настроенных ролей.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := ordering.CheckStruct(&in); err != nil {
		return nil, err
	}
	if !s.auth.IsRole(in.Role) {
		return nil, ordering.Errorf(ordering.KindMalformedRequest, "role %q does not exist", in.Role)
	}
	return s.createUser(ctx, in.Username, in.Password, in.Role)
}

func (s *IdentityService) createUser(ctx context.Context, username, password, role string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: username, Password: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflictOr(err, fmt.Sprintf("user %q already exists", username))
	}
	logging.Ctx(ctx).Info().Str("user", username).Str("role", role).Msg("user created")
	return u, nil
}

// ChangePassword меняет пароль вызывающего.
func (s *IdentityService) ChangePassword(ctx context.Context, id ordering.Identity, password string) error {
	if len(password) < 8 || len(password) > 72 {
		return ordering.Errorf(ordering.KindMalformedRequest, "password must be 8 to 72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id.Username, string(hash)); err != nil {
		if isNotFound(err) {
			return ordering.Errorf(ordering.KindNotFound, "user %q not found", id.Username)
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ListUsers returns every user except the caller.
func (s *IdentityService) ListUsers(ctx context.Context, id ordering.Identity, pageNum, size int) (page.Page[model.User], error) {
	pageNum, size = page.Normalize(pageNum, size)
	users, total, err := s.users.List(ctx, id.Username, size, page.Offset(pageNum, size))
	if err != nil {
		return page.Page[model.User]{}, fmt.Errorf("list users: %w", err)
	}
	return page.FromWindow(users, pageNum, size, int(total)), nil
}

// GetUser доступен самому пользователю и admin.
func (s *IdentityService) GetUser(ctx context.Context, id ordering.Identity, username string) (*model.User, error) {
	if !id.IsAdmin() && id.Username != username {
		return nil, ordering.Errorf(ordering.KindForbidden, "cannot read another user")
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, ordering.Errorf(ordering.KindNotFound, "user %q not found", username)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя; admin удалить нельзя.
func (s *IdentityService) DeleteUser(ctx context.Context, username string) error {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return ordering.Errorf(ordering.KindNotFound, "user %q not found", username)
		}
		return fmt.Errorf("find user: %w", err)
	}
	if u.Role == config.AdminRole {
		return ordering.Errorf(ordering.KindForbidden, "admin users cannot be deleted")
	}
	if _, err := s.users.Delete(ctx, username); err != nil {
		return conflictOr(err, fmt.Sprintf("user %q has placed orders", username))
	}
	logging.Ctx(ctx).Info().Str("user", username).Msg("user deleted")
	return nil
}

// SeedAdmin создаёт пользователя admin со случайным паролем, если admin ещё нет.
// Пароль возвращается один раз; created=false, если admin уже был.
func (s *IdentityService) SeedAdmin(ctx context.Context) (password string, created bool, err error) {
	exists, err := s.users.ExistsWithRole(ctx, config.AdminRole)
	if err != nil {
		return "", false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return "", false, nil
	}

	password, err = randomPassword(seedPasswordLength)
	if err != nil {
		return "", false, err
	}
	if _, err := s.createUser(ctx, adminUsername, password, config.AdminRole); err != nil {
		if ordering.IsKind(err, ordering.KindConflict) {
			return "", false, errors.New("user \"admin\" exists without admin role")
		}
		return "", false, err
	}
	return password, true, nil
}

func randomPassword(n int) (string, error) {
	limit := big.NewInt(int64(len(seedPasswordSymbols)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = seedPasswordSymbols[idx.Int64()]
	}
	return string(out), nil
}
