package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pass-eligibility-api/internal/auth"
	"pass-eligibility-api/internal/cache"
	"pass-eligibility-api/internal/database"
	"pass-eligibility-api/internal/events"
	"pass-eligibility-api/internal/features"
	"pass-eligibility-api/internal/metrics"
	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/rules"
	"pass-eligibility-api/internal/tracing"
	"pass-eligibility-api/internal/validation"
	"pass-eligibility-api/pkg/logger"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown employee
	// number or a wrong password.
	ErrInvalidCredentials = errors.New("invalid employee number or password")
	// ErrNotFound is returned when a profile or beneficiary does not exist or
	// is not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict wraps requests that are well formed but break a policy rule.
	ErrConflict = errors.New("conflict")
)

// Service provides business logic for the pass eligibility API.
type Service struct {
	db         *database.DB
	issuer     *auth.Issuer
	cache      cache.Cache
	cacheTTL   time.Duration
	features   *features.Manager
	events     *events.Manager
	metrics    *metrics.Metrics
	bcryptCost int
	now        func() time.Time
}

// Options holds the optional collaborators of a Service.
type Options struct {
	Issuer     *auth.Issuer
	Cache      cache.Cache
	CacheTTL   time.Duration
	Features   *features.Manager
	Events     *events.Manager
	Metrics    *metrics.Metrics
	BCryptCost int
	Clock      func() time.Time
}

// NewService creates a new service instance with default options.
func NewService(db *database.DB) *Service {
	return NewServiceWithOptions(db, Options{})
}

// NewServiceWithOptions creates a new service instance. Zero-valued options
// fall back to an in-memory cache, disabled flags and events, no metrics and
// the wall clock.
func NewServiceWithOptions(db *database.DB, opts Options) *Service {
	s := &Service{
		db:         db,
		issuer:     opts.Issuer,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		features:   opts.Features,
		events:     opts.Events,
		metrics:    opts.Metrics,
		bcryptCost: opts.BCryptCost,
		now:        opts.Clock,
	}
	if s.cache == nil {
		s.cache = cache.NewInMemoryCache()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 5 * time.Minute
	}
	if s.features == nil {
		s.features = features.NewManager()
	}
	if s.events == nil {
		s.events = events.NewManager(false)
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// engine returns a rules engine reading the service clock.
func (s *Service) engine() *rules.Engine {
	return s.engineWith(s.now)
}

// engineWith builds an engine on clock, with the Holy Week blackout when its
// flag is on.
func (s *Service) engineWith(clock func() time.Time) *rules.Engine {
	opts := []rules.Option{rules.WithClock(clock)}
	if s.features.IsEnabled(features.FeatureHolyWeekBlackout) {
		opts = append(opts, rules.WithHolyWeek())
	}
	return rules.NewEngine(opts...)
}

// RegisterProfile creates a titular profile with login credentials.
func (s *Service) RegisterProfile(ctx context.Context, req models.RegisterRequest) (models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "service.RegisterProfile")
	defer span.End()

	now := s.now().UTC()
	reg, err := validation.ValidateRegister(req, now)
	if err != nil {
		return models.Profile{}, err
	}

	hash, err := auth.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return models.Profile{}, err
	}

	profile := models.Profile{
		ID:             uuid.New().String(),
		EmployeeNumber: reg.EmployeeNumber,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	reg.Profile.Apply(&profile)

	if err := s.db.InsertProfile(ctx, profile, hash); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.Profile{}, fmt.Errorf("%w: employee number %s is already registered", ErrConflict, reg.EmployeeNumber)
		}
		return models.Profile{}, fmt.Errorf("failed to register profile: %w", err)
	}

	logger.From(ctx).Info("profile registered", "profile_id", profile.ID)
	return profile, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Login")
	defer span.End()

	if s.issuer == nil {
		return models.LoginResponse{}, errors.New("login is not configured")
	}

	employeeNumber := validation.SanitizeString(req.EmployeeNumber)
	if employeeNumber == "" || req.Password == "" {
		return models.LoginResponse{}, ErrInvalidCredentials
	}

	profile, hash, err := s.db.GetProfileByEmployeeNumber(ctx, employeeNumber)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.LoginResponse{}, ErrInvalidCredentials
		}
		return models.LoginResponse{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := auth.CheckPassword(hash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return models.LoginResponse{}, ErrInvalidCredentials
		}
		return models.LoginResponse{}, err
	}

	token, err := s.issuer.Issue(profile.ID, profile.EmployeeNumber)
	if err != nil {
		return models.LoginResponse{}, err
	}

	return models.LoginResponse{Token: token, Profile: profile}, nil
}

// GetProfile returns a profile, through the cache when caching is enabled.
func (s *Service) GetProfile(ctx context.Context, profileID string) (models.Profile, error) {
	if !s.features.IsEnabled(features.FeatureCacheEnabled) {
		return s.loadProfile(ctx, profileID)
	}

	key := cache.ProfileKey(profileID)
	var profile models.Profile
	err := cache.GetJSON(ctx, s.cache, key, &profile)
	switch {
	case err == nil:
		s.metrics.IncrementCacheLookup("hit")
		return profile, nil
	case errors.Is(err, cache.ErrNotFound):
		s.metrics.IncrementCacheLookup("miss")
	default:
		s.metrics.IncrementCacheLookup("error")
		logger.From(ctx).Warn("profile cache read failed", "error", err)
	}

	profile, err = s.loadProfile(ctx, profileID)
	if err != nil {
		return models.Profile{}, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, profile, s.cacheTTL); err != nil {
		logger.From(ctx).Warn("profile cache write failed", "error", err)
	}
	return profile, nil
}

func (s *Service) loadProfile(ctx context.Context, profileID string) (models.Profile, error) {
	profile, err := s.db.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Profile{}, fmt.Errorf("profile %w", ErrNotFound)
		}
		return models.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *Service) invalidateProfile(ctx context.Context, profileID string) {
	if err := s.cache.Delete(ctx, cache.ProfileKey(profileID), cache.BeneficiariesKey(profileID)); err != nil {
		logger.From(ctx).Warn("profile cache invalidation failed", "error", err)
	}
}

func (s *Service) invalidateBeneficiaries(ctx context.Context, profileID string) {
	if err := s.cache.Delete(ctx, cache.BeneficiariesKey(profileID)); err != nil {
		logger.From(ctx).Warn("beneficiary cache invalidation failed", "error", err)
	}
}

// activeBeneficiaries returns the profile's active beneficiaries as stored,
// through the cache when caching is enabled.
func (s *Service) activeBeneficiaries(ctx context.Context, profileID string) ([]models.Beneficiary, error) {
	if !s.features.IsEnabled(features.FeatureCacheEnabled) {
		return s.db.ListActiveBeneficiaries(ctx, profileID)
	}

	key := cache.BeneficiariesKey(profileID)
	var beneficiaries []models.Beneficiary
	err := cache.GetJSON(ctx, s.cache, key, &beneficiaries)
	switch {
	case err == nil:
		s.metrics.IncrementCacheLookup("hit")
		return beneficiaries, nil
	case errors.Is(err, cache.ErrNotFound):
		s.metrics.IncrementCacheLookup("miss")
	default:
		s.metrics.IncrementCacheLookup("error")
		logger.From(ctx).Warn("beneficiary cache read failed", "error", err)
	}

	beneficiaries, err = s.db.ListActiveBeneficiaries(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, beneficiaries, s.cacheTTL); err != nil {
		logger.From(ctx).Warn("beneficiary cache write failed", "error", err)
	}
	return beneficiaries, nil
}

// UpdateProfile replaces the employment attributes of a profile and
// recomputes the family group of every active beneficiary.
func (s *Service) UpdateProfile(ctx context.Context, profileID string, req models.ProfileUpdateRequest) (models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "service.UpdateProfile")
	defer span.End()

	now := s.now().UTC()
	attrs, err := validation.ValidateProfileUpdate(req, now)
	if err != nil {
		return models.Profile{}, err
	}

	profile, err := s.loadProfile(ctx, profileID)
	if err != nil {
		return models.Profile{}, err
	}
	attrs.Apply(&profile)
	profile.UpdatedAt = now

	beneficiaries, err := s.db.ListActiveBeneficiaries(ctx, profileID)
	if err != nil {
		return models.Profile{}, err
	}

	engine := s.engine()
	var regrouped []models.Beneficiary
	for _, b := range beneficiaries {
		group := engine.FamilyGroup(b, profile.MaritalStatus)
		if group != b.FamilyGroup {
			b.FamilyGroup = group
			b.UpdatedAt = now
			regrouped = append(regrouped, b)
		}
	}

	if err := s.db.UpdateProfile(ctx, profile, regrouped); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Profile{}, fmt.Errorf("profile %w", ErrNotFound)
		}
		return models.Profile{}, err
	}
	s.invalidateProfile(ctx, profileID)

	if len(regrouped) > 0 {
		logger.From(ctx).Info("family groups recomputed", "profile_id", profileID, "count", len(regrouped))
	}
	s.events.PublishProfileUpdated(ctx, profile, regrouped)

	return profile, nil
}

// BlackoutStatus reports the blackout period on date, or today when date is
// empty.
func (s *Service) BlackoutStatus(date string) (models.BlackoutStatus, error) {
	engine := s.engine()
	if strings.TrimSpace(date) == "" {
		return engine.Blackout(), nil
	}

	d, err := validation.ValidateDate(date, "date")
	if err != nil {
		return models.BlackoutStatus{}, err
	}
	return engine.BlackoutAt(d.Time), nil
}

// Health reports whether the database is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.db.Ping(ctx)
}
