package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/config"
	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
	repo "github.com/oksasatya/bmi-tracker/internal/domain/repository"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/mailer"
	mailtpl "github.com/oksasatya/bmi-tracker/pkg/mailer/templates"
)

// EmailPublisher queues an email job for the worker.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserService handles accounts and sessions. Redis and Emails are optional:
// without Redis every signed token is accepted until it expires, without
// Emails no notifications are queued.
type UserService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	Emails EmailPublisher
	Config *config.Config
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ClientMeta describes the request a login came from; used in notifications.
type ClientMeta struct {
	IP        string
	UserAgent string
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, cfg *config.Config) *UserService {
	return &UserService{Repo: r, JWT: jwt, Redis: rdb, Logger: logger, Config: cfg}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *UserService) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*entity.User, TokenPair, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Email:    helpers.NormalizeEmail(in.Email),
		Name:     in.Name,
		Password: hash,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.queueEmail(ctx, u, mailtpl.Welcome, meta)
	return u, pair, nil
}

// Authenticate checks credentials without issuing tokens. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, helpers.NormalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string, meta ClientMeta) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.queueEmail(ctx, u, mailtpl.LoginNotification, meta)
	return u, pair, nil
}

// IssueTokens starts a new session, replacing any previous one, and returns
// a token pair bound to it.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		helpers.LogError(s.Logger, "generate tokens failed", err, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.TxPipeline()
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return TokenPair{}, fmt.Errorf("store session: %w", err)
		}
	}
	return pair, nil
}

// Refresh rotates the session of a valid refresh token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	if s.Redis == nil {
		return s.signPair(u.ID, uuid.NewString())
	}

	key := helpers.SessionKey(u.ID)
	current, err := s.Redis.HGet(ctx, key, "sid").Result()
	if errors.Is(err, redis.Nil) || (err == nil && current != claims.SessionID) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("read session: %w", err)
	}

	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	pipe := s.Redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{"sid": sid, "updated_at": nowRFC3339()})
	pipe.Expire(ctx, key, s.JWT.RefreshTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return TokenPair{}, fmt.Errorf("rotate session: %w", err)
	}
	return pair, nil
}

// Logout ends the user's session so outstanding tokens stop working.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserService) signPair(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// queueEmail never fails the calling operation.
func (s *UserService) queueEmail(ctx context.Context, u *entity.User, template string, meta ClientMeta) {
	if s.Emails == nil || s.Config == nil {
		return
	}
	var data map[string]any
	switch template {
	case mailtpl.Welcome:
		data = mailtpl.NewWelcomeData(s.Config, u.Name, u.Email)
	case mailtpl.LoginNotification:
		data = mailtpl.NewLoginNotificationData(s.Config, u.Name, u.Email,
			mailtpl.WithIP(meta.IP),
			mailtpl.WithUserAgent(meta.UserAgent),
			mailtpl.WithTime(time.Now()),
		)
	default:
		return
	}
	job := mailer.EmailJob{To: u.Email, Template: template, Data: data}
	c, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Emails.PublishJSON(c, job); err != nil {
		helpers.LogWarn(s.Logger, "queue email failed", err, logrus.Fields{"user_id": u.ID, "template": template})
	}
}
