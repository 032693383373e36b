package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/auth"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/metrics"
	"malkhana-backend/internal/models"
)

const (
	minPasswordLength = 6

	SeedAdminBadge = "ADMIN001"
)

// TokenRevoker remembers logged-out tokens until they expire.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, until time.Time)
}

type StaffService struct {
	Repo       StaffStore
	JWTManager *auth.JWTManager
	revoker    TokenRevoker
	log        *logger.Logger
}

func NewStaffService(repo StaffStore, jwtManager *auth.JWTManager, log *logger.Logger) *StaffService {
	return &StaffService{Repo: repo, JWTManager: jwtManager, log: log}
}

// SetTokenRevoker enables logout revocation.
func (s *StaffService) SetTokenRevoker(r TokenRevoker) {
	s.revoker = r
}

// NormalizeBadge trims and uppercases a badge number; badges compare case-insensitively.
func NormalizeBadge(badge string) string {
	return strings.ToUpper(strings.TrimSpace(badge))
}

// Register creates a staff account. An existing badge, in any letter case, is a Conflict.
func (s *StaffService) Register(ctx context.Context, req *models.RegisterStaffRequest) (*models.StaffMember, error) {
	fullName, err := required("fullName", req.FullName)
	if err != nil {
		return nil, err
	}
	badge := NormalizeBadge(req.BadgeNumber)
	if badge == "" {
		return nil, apperr.BadRequest("badgeNumber is required")
	}
	station, err := required("stationAssignment", req.StationAssignment)
	if err != nil {
		return nil, err
	}
	if err := withinLimits(
		fieldLimit{"fullName", fullName, maxNameLength},
		fieldLimit{"badgeNumber", badge, maxBadgeLength},
		fieldLimit{"stationAssignment", station, maxLocationLength},
	); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.BadRequest("password must be at least %d characters", minPasswordLength)
	}

	designation := models.DesignationOfficer
	if req.Designation != "" {
		designation = models.Designation(strings.ToUpper(strings.TrimSpace(req.Designation)))
		if !designation.Valid() {
			return nil, apperr.BadRequest("%s is not a valid designation", req.Designation)
		}
	}

	if _, err := s.Repo.GetByBadge(ctx, badge); err == nil {
		return nil, apperr.Conflict("A staff member with this badge number already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	staff := &models.StaffMember{
		ID:                uuid.New(),
		FullName:          fullName,
		BadgeNumber:       badge,
		Designation:       designation,
		StationAssignment: station,
		PasswordHash:      hash,
	}
	if err := s.Repo.Create(ctx, staff); err != nil {
		return nil, err
	}
	s.log.Info("staff registered", "badge", staff.BadgeNumber, "designation", staff.Designation)
	return staff, nil
}

// Login checks credentials and issues a token. Unknown badge and wrong password look the same.
func (s *StaffService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	badge := NormalizeBadge(req.BadgeNumber)
	if badge == "" || req.Password == "" {
		return nil, apperr.BadRequest("badgeNumber and password are required")
	}

	staff, err := s.Repo.GetByBadge(ctx, badge)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return nil, apperr.Unauthorized("Invalid credentials provided")
		}
		return nil, err
	}
	if !auth.VerifyPassword(staff.PasswordHash, req.Password) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, apperr.Unauthorized("Invalid credentials provided")
	}

	token, expiresAt, err := s.JWTManager.GenerateToken(staff)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, Staff: staff}, nil
}

// Logout revokes the token id so it stops authenticating before its expiry.
func (s *StaffService) Logout(ctx context.Context, jti string, expiresAt time.Time) {
	if s.revoker != nil {
		s.revoker.RevokeToken(ctx, jti, expiresAt)
	}
}

func (s *StaffService) Profile(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	return s.Repo.GetByID(ctx, id)
}

// SeedAdmin creates the bootstrap administrator when no ADMIN exists yet.
// It reports whether an account was created.
func (s *StaffService) SeedAdmin(ctx context.Context, password string) (bool, error) {
	n, err := s.Repo.CountByDesignation(ctx, models.DesignationAdmin)
	if err != nil {
		return false, apperr.Internal(err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.Register(ctx, &models.RegisterStaffRequest{
		FullName:          "System Administrator",
		BadgeNumber:       SeedAdminBadge,
		Password:          password,
		Designation:       string(models.DesignationAdmin),
		StationAssignment: "Headquarters",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
