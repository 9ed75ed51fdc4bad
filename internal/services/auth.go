package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/db"
	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

const TokenTypeBearer = "bearer"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthConfig struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	AccessTTL    time.Duration `yaml:"access_ttl"`
	RememberTTL  time.Duration `yaml:"remember_me_ttl"`
	RefreshTTL   time.Duration `yaml:"refresh_ttl"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, usernameOrEmail, password string, rememberMe bool) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	cfg           AuthConfig
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	cfg AuthConfig,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		cfg:           cfg,
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateRegistration(in); err != nil {
		return nil, apierr.BadRequest("invalid_request", err)
	}

	dbc := dbctx.With(ctx)
	if exists, err := as.userRepo.EmailExists(dbc, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if exists {
		return nil, apierr.BadRequest("email_exists", fmt.Errorf("%w: email is already registered", errs.ErrConflict))
	}
	if exists, err := as.userRepo.UsernameExists(dbc, in.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if exists {
		return nil, apierr.BadRequest("username_exists", fmt.Errorf("%w: username is already taken", errs.ErrConflict))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &types.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		IsActive: true,
	}
	if _, err := as.userRepo.Create(dbc, []*types.User{u}); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.BadRequest("user_exists", fmt.Errorf("%w: username or email", errs.ErrConflict))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("User registered", "user_id", u.ID)
	return u, nil
}

func validateRegistration(in RegisterInput) error {
	if n := len(in.Username); n < 4 || n > 20 || !usernamePattern.MatchString(in.Username) {
		return fmt.Errorf("%w: username must be 4-20 letters, digits or underscores", errs.ErrInvalidArgument)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: invalid email address", errs.ErrInvalidArgument)
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirm {
		return fmt.Errorf("%w: passwords do not match", errs.ErrInvalidArgument)
	}
	return nil
}

func validatePassword(pw string) error {
	if n := len(pw); n < 8 || n > 20 {
		return fmt.Errorf("%w: password must be 8-20 characters", errs.ErrInvalidArgument)
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("%w: password needs upper and lower case letters, a digit and a symbol", errs.ErrInvalidArgument)
	}
	return nil
}

func invalidCredentials() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("incorrect username/email or password"))
}

func (as *authService) Login(ctx context.Context, usernameOrEmail, password string, rememberMe bool) (*TokenPair, error) {
	ident := strings.TrimSpace(usernameOrEmail)
	if ident == "" || password == "" {
		return nil, invalidCredentials()
	}
	dbc := dbctx.With(ctx)

	users, err := as.userRepo.GetByUsernames(dbc, []string{ident})
	if err != nil {
		return nil, fmt.Errorf("lookup by username: %w", err)
	}
	if len(users) == 0 {
		users, err = as.userRepo.GetByEmails(dbc, []string{strings.ToLower(ident)})
		if err != nil {
			return nil, fmt.Errorf("lookup by email: %w", err)
		}
	}
	if len(users) == 0 {
		return nil, invalidCredentials()
	}
	u := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	if !u.IsActive {
		return nil, apierr.New(http.StatusUnauthorized, "inactive_user", errors.New("user is inactive"))
	}

	ttl := as.cfg.AccessTTL
	if rememberMe {
		ttl = as.cfg.RememberTTL
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if n, err := as.userTokenRepo.FullDeleteExpiredByUserIDs(txc, []uuid.UUID{u.ID}, time.Now()); err != nil {
			return fmt.Errorf("prune expired tokens: %w", err)
		} else if n > 0 {
			as.log.Debug("Pruned expired tokens", "user_id", u.ID, "count", n)
		}
		p, err := as.issueTokens(txc, u, ttl)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User logged in", "user_id", u.ID, "remember_me", rememberMe)
	return pair, nil
}

func (as *authService) issueTokens(dbc dbctx.Context, u *types.User, ttl time.Duration) (*TokenPair, error) {
	access, err := as.generateAccessToken(u, ttl)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshTTL := as.cfg.RefreshTTL
	if ttl > refreshTTL {
		refreshTTL = ttl
	}
	row := &types.UserToken{
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(ttl.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(u *types.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecretKey))
}

// Refresh rotates the token pair. An empty refreshToken falls back to the one
// bound to the caller's access token.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			refreshToken = rd.RefreshToken
		}
	}
	if refreshToken == "" {
		return nil, apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("no refresh token"))
	}

	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(txc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("lookup refresh token: %w", err)
		}
		if len(found) == 0 {
			return apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("unknown refresh token"))
		}
		existing := found[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.FullDeleteByTokens(txc, []*types.UserToken{existing}); err != nil {
				return fmt.Errorf("delete expired token: %w", err)
			}
			return apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("refresh token expired"))
		}
		users, err := as.userRepo.GetByIDs(txc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 || !users[0].IsActive {
			return apierr.New(http.StatusUnauthorized, "refresh_failed", errors.New("user not found or inactive"))
		}
		p, err := as.issueTokens(txc, users[0], as.cfg.AccessTTL)
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.FullDeleteByTokens(txc, []*types.UserToken{existing}); err != nil {
			return fmt.Errorf("delete rotated token: %w", err)
		}
		pair = p
		return nil
	})
	if err != nil {
		as.log.Warn("Refresh failed", "error", err)
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.New(http.StatusUnauthorized, "unauthorized", errs.ErrUnauthorized)
	}
	dbc := dbctx.With(ctx)
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("lookup access token: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	if err := as.userTokenRepo.FullDeleteByTokens(dbc, found); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	as.log.Info("User logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	users, err := as.userRepo.GetByIDs(dbctx.With(ctx), []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errs.ErrUnauthorized)
	}
	return users[0], nil
}

// SetContextFromToken verifies the JWT and that its token row still exists,
// then attaches the caller's RequestData.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.With(ctx), []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("lookup access token: %w", err)
	}
	if len(found) == 0 {
		return ctx, fmt.Errorf("token has been revoked")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: found[0].RefreshToken,
		UserID:       userID,
	}), nil
}

// requireUser returns the authenticated caller or a 401.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", errs.ErrUnauthorized)
	}
	return userID, nil
}
