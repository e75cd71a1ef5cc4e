package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/server/auth"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/config"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
)

// RegisterInput is a self-registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	ChurchID string
	Church   string
	Region   string
	State    string
}

// Session is a signed token together with the profile it was issued for.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserService handles registration and login.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	clock                       clock.Clock
	audit                       *AuditService
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	allowMasterSignup           bool
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock, audit *AuditService, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		clock:                       c,
		audit:                       audit,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		allowMasterSignup:           cfg.AllowMasterSignup,
	}
}

// DeriveScope maps a role and jurisdiction attributes to a visibility scope.
func DeriveScope(role, region, state string) string {
	switch {
	case role == models.RoleMaster:
		return models.ScopeGlobal
	case state != "":
		return models.ScopeState
	case region != "":
		return models.ScopeRegion
	default:
		return models.ScopeChurch
	}
}

func callerOf(u *models.User) models.Caller {
	return models.Caller{
		UserID:   u.UserID,
		Name:     u.Name,
		Role:     u.Role,
		Scope:    u.Scope,
		ChurchID: u.ChurchID,
		Church:   u.Church,
		Region:   u.Region,
		State:    u.State,
	}
}

// Register creates an active user. The role defaults to pastor and the
// church id defaults to the church name. The master role is refused unless
// master signup is enabled in the configuration.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrValidation)
	}
	if in.Role == "" {
		in.Role = models.RolePastor
	}
	switch in.Role {
	case models.RoleMaster, models.RolePastor, models.RoleLeader:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, in.Role)
	}
	if in.Role == models.RoleMaster && !s.allowMasterSignup {
		return nil, common.ErrForbidden
	}
	if in.ChurchID == "" {
		in.ChurchID = in.Church
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		UserID:       uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Scope:        DeriveScope(in.Role, in.Region, in.State),
		ChurchID:     in.ChurchID,
		Church:       in.Church,
		Region:       in.Region,
		State:        in.State,
		Permissions: models.Permissions{
			CanView: true,
			CanEdit: in.Role == models.RoleMaster,
		},
		Active:    true,
		CreatedAt: s.clock.Now(),
	}

	if _, err := s.repomanager.Users(s.db).Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.audit.Log(ctx, callerOf(user), models.ActionRegister, map[string]any{"email": user.Email, "role": user.Role})

	return s.session(user)
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !user.Active {
		return nil, common.ErrInactiveUser
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	s.audit.Log(ctx, callerOf(user), models.ActionLogin, map[string]any{"email": user.Email})

	return s.session(user)
}

func (s *UserService) session(u *models.User) (*Session, error) {
	token, err := auth.GenerateToken(callerOf(u), s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{Token: token, User: u}, nil
}
