package spaces

import (
	"context"
	"errors"
	"time"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// RecentReviewCount is how many reviews a space detail embeds.
	RecentReviewCount = 10
	// DefaultReviewLimit applies when a listing does not ask for a limit.
	DefaultReviewLimit = 50
	// MaxReviewLimit caps a single review listing.
	MaxReviewLimit = 500
)

const (
	opServiceNew   = "spaces.service.new"
	opList         = "spaces.list"
	opGet          = "spaces.get"
	opCreate       = "spaces.create"
	opUpdate       = "spaces.update"
	opDelete       = "spaces.delete"
	opSubmitReview = "reviews.submit"
	opListReviews  = "reviews.list"

	reasonNotFound     = "not_found"
	reasonInvalid      = "validation"
	reasonUnauthorized = "unauthorized"
	reasonQuery        = "query_failed"
	reasonAggregate    = "aggregate_failed"
	reasonWrite        = "write_failed"
	reasonIDFailure    = "id_generation_failed"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()

	recentFirst = clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "timestamp"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
)

// ServiceConfig describes the dependencies of the study space service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider domain.IDProvider
	Logger     *zap.Logger
	// RequireIdentity rejects reviews without a verified caller.
	RequireIdentity bool
}

// Service serves study spaces and their reviews.
type Service struct {
	db              *gorm.DB
	clock           func() time.Time
	idProvider      domain.IDProvider
	logger          *zap.Logger
	requireIdentity bool
}

// NewService validates the configuration and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, domain.NewServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, domain.NewServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:              cfg.Database,
		clock:           clock,
		idProvider:      cfg.IDProvider,
		logger:          logger,
		requireIdentity: cfg.RequireIdentity,
	}, nil
}

// RequiresIdentity reports whether reviews need a verified caller.
func (s *Service) RequiresIdentity() bool {
	return s.requireIdentity
}

// List returns every study space with its derived ratings.
func (s *Service) List(ctx context.Context) ([]View, error) {
	var spaces []StudySpace
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&spaces).Error; err != nil {
		s.logError(opList, reasonQuery, err)
		return nil, domain.NewServiceError(opList, reasonQuery, domain.Unavailable(err))
	}
	ids := make([]string, 0, len(spaces))
	for _, space := range spaces {
		ids = append(ids, space.ID)
	}
	ratings, err := s.ratingsFor(ctx, ids)
	if err != nil {
		s.logError(opList, reasonAggregate, err)
		return nil, domain.NewServiceError(opList, reasonAggregate, domain.Unavailable(err))
	}

	views := make([]View, 0, len(spaces))
	for _, space := range spaces {
		views = append(views, View{StudySpace: space, Ratings: ratings[space.ID]})
	}
	return views, nil
}

// Get returns one study space with its ratings and latest reviews.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	space, err := s.findIn(s.db.WithContext(ctx), opGet, id)
	if err != nil {
		return Detail{}, err
	}
	view, err := s.decorate(ctx, opGet, space)
	if err != nil {
		return Detail{}, err
	}

	recent := make([]Review, 0, RecentReviewCount)
	if err := s.db.WithContext(ctx).
		Where("space_id = ?", space.ID).
		Clauses(recentFirst).
		Limit(RecentReviewCount).
		Find(&recent).Error; err != nil {
		s.logError(opGet, reasonQuery, err, zap.String("space_id", space.ID))
		return Detail{}, domain.NewServiceError(opGet, reasonQuery, domain.Unavailable(err))
	}
	return Detail{View: view, RecentReviews: recent}, nil
}

// Create validates input and stores a new study space.
func (s *Service) Create(ctx context.Context, input CreateInput) (View, error) {
	var errs domain.FieldErrors
	space := StudySpace{
		Building:    domain.RequiredText(&errs, "building", input.Building, domain.MaxFieldLength),
		Sublocation: domain.RequiredText(&errs, "sublocation", input.Sublocation, domain.MaxFieldLength),
		Description: domain.OptionalText(&errs, "description", input.Description, maxDescriptionSize),
	}
	if err := errs.Err(); err != nil {
		return View{}, domain.NewServiceError(opCreate, reasonInvalid, err)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, reasonIDFailure, err)
		return View{}, domain.NewServiceError(opCreate, reasonIDFailure, err)
	}
	now := s.clock().UTC()
	space.ID = id
	space.CreatedAt = now
	space.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(&space).Error; err != nil {
		s.logError(opCreate, reasonWrite, err)
		return View{}, domain.NewServiceError(opCreate, reasonWrite, domain.Unavailable(err))
	}
	return View{StudySpace: space}, nil
}

// Update merges the supplied descriptive fields into a study space.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (View, error) {
	var errs domain.FieldErrors
	updates := map[string]interface{}{}
	if patch.Building != nil {
		updates["building"] = domain.RequiredText(&errs, "building", *patch.Building, domain.MaxFieldLength)
	}
	if patch.Sublocation != nil {
		updates["sublocation"] = domain.RequiredText(&errs, "sublocation", *patch.Sublocation, domain.MaxFieldLength)
	}
	if patch.Description != nil {
		updates["description"] = domain.OptionalText(&errs, "description", *patch.Description, maxDescriptionSize)
	}
	if len(updates) == 0 {
		errs.Add("body", "no valid fields to update")
	}
	if err := errs.Err(); err != nil {
		return View{}, domain.NewServiceError(opUpdate, reasonInvalid, err)
	}

	var updated StudySpace
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findIn(tx, opUpdate, id)
		if err != nil {
			return err
		}
		updates["updated_at"] = domain.LaterOf(s.clock().UTC(), existing.UpdatedAt)
		if err := tx.Model(&StudySpace{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			s.logError(opUpdate, reasonWrite, err, zap.String("space_id", existing.ID))
			return domain.NewServiceError(opUpdate, reasonWrite, domain.Unavailable(err))
		}
		updated, err = s.findIn(tx, opUpdate, existing.ID)
		return err
	})
	if txErr != nil {
		return View{}, txErr
	}
	return s.decorate(ctx, opUpdate, updated)
}

// Delete removes a study space. Its reviews are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	ref, err := domain.ParseRef("id", id)
	if err != nil {
		return domain.NewServiceError(opDelete, reasonNotFound, domain.ErrNotFound)
	}
	result := s.db.WithContext(ctx).Where("id = ?", ref).Delete(&StudySpace{})
	if result.Error != nil {
		s.logError(opDelete, reasonWrite, result.Error, zap.String("space_id", ref))
		return domain.NewServiceError(opDelete, reasonWrite, domain.Unavailable(result.Error))
	}
	if result.RowsAffected == 0 {
		return domain.NewServiceError(opDelete, reasonNotFound, domain.ErrNotFound)
	}
	return nil
}

// SubmitReview validates and appends a review. The space is not looked up,
// so a review for a deleted space is stored as an orphan.
func (s *Service) SubmitReview(ctx context.Context, input ReviewInput, identity *domain.Identity) (Review, error) {
	if s.requireIdentity && !identity.Verified() {
		return Review{}, domain.NewServiceError(opSubmitReview, reasonUnauthorized, domain.ErrUnauthorized)
	}

	var errs domain.FieldErrors
	spaceID, err := domain.ParseRef("space_id", input.SpaceID)
	if err != nil {
		errs = append(errs, domain.FieldsOf(err)...)
	}
	rating := requiredScore(&errs, "rating", input.Rating)
	silence := requiredScore(&errs, "silence", input.Silence)
	crowdedness := requiredScore(&errs, "crowdedness", input.Crowdedness)
	text := domain.OptionalText(&errs, "review", input.Text, maxReviewLength)
	declared := domain.OptionalText(&errs, "reported_by", input.ReportedBy, domain.MaxFieldLength)
	if err := errs.Err(); err != nil {
		return Review{}, domain.NewServiceError(opSubmitReview, reasonInvalid, err)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSubmitReview, reasonIDFailure, err)
		return Review{}, domain.NewServiceError(opSubmitReview, reasonIDFailure, err)
	}
	review := Review{
		ID:          id,
		SpaceID:     spaceID,
		Rating:      rating,
		Silence:     silence,
		Crowdedness: crowdedness,
		Text:        text,
		ReportedBy:  domain.Reporter(identity, declared),
		Timestamp:   s.clock().UTC(),
	}
	if identity.Verified() {
		review.ReporterEmail = identity.Email
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		s.logError(opSubmitReview, reasonWrite, err, zap.String("space_id", spaceID))
		return Review{}, domain.NewServiceError(opSubmitReview, reasonWrite, domain.Unavailable(err))
	}
	return review, nil
}

// ListReviews returns reviews newest first, optionally for one space.
func (s *Service) ListReviews(ctx context.Context, filter ReviewFilter) ([]Review, error) {
	limit := filter.Limit
	switch {
	case limit < 0:
		return nil, domain.NewServiceError(opListReviews, reasonInvalid, domain.NewValidationError("limit", "must not be negative"))
	case limit == 0:
		limit = DefaultReviewLimit
	case limit > MaxReviewLimit:
		limit = MaxReviewLimit
	}

	query := s.db.WithContext(ctx).Model(&Review{})
	if filter.SpaceID != "" {
		spaceID, err := domain.ParseRef("space_id", filter.SpaceID)
		if err != nil {
			return nil, domain.NewServiceError(opListReviews, reasonInvalid, err)
		}
		query = query.Where("space_id = ?", spaceID)
	}

	reviews := make([]Review, 0)
	if err := query.Clauses(recentFirst).Limit(limit).Find(&reviews).Error; err != nil {
		s.logError(opListReviews, reasonQuery, err, zap.String("space_id", filter.SpaceID))
		return nil, domain.NewServiceError(opListReviews, reasonQuery, domain.Unavailable(err))
	}
	return reviews, nil
}

type ratingRow struct {
	SpaceID     string
	ReviewCount int64
	Rating      float64
	Silence     float64
	Crowdedness float64
}

// ratingsFor averages every review of the given spaces. Spaces without
// reviews are absent from the result.
func (s *Service) ratingsFor(ctx context.Context, spaceIDs []string) (map[string]*Ratings, error) {
	ratings := make(map[string]*Ratings, len(spaceIDs))
	if len(spaceIDs) == 0 {
		return ratings, nil
	}
	var rows []ratingRow
	err := s.db.WithContext(ctx).
		Model(&Review{}).
		Select("space_id, COUNT(*) AS review_count, AVG(rating) AS rating, AVG(silence) AS silence, AVG(crowdedness) AS crowdedness").
		Where("space_id IN ?", spaceIDs).
		Group("space_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ReviewCount == 0 {
			continue
		}
		ratings[row.SpaceID] = &Ratings{
			Rating:      row.Rating,
			Silence:     row.Silence,
			Crowdedness: row.Crowdedness,
			ReviewCount: row.ReviewCount,
		}
	}
	return ratings, nil
}

func (s *Service) decorate(ctx context.Context, operation string, space StudySpace) (View, error) {
	ratings, err := s.ratingsFor(ctx, []string{space.ID})
	if err != nil {
		s.logError(operation, reasonAggregate, err, zap.String("space_id", space.ID))
		return View{}, domain.NewServiceError(operation, reasonAggregate, domain.Unavailable(err))
	}
	return View{StudySpace: space, Ratings: ratings[space.ID]}, nil
}

func (s *Service) findIn(db *gorm.DB, operation, id string) (StudySpace, error) {
	ref, err := domain.ParseRef("id", id)
	if err != nil {
		return StudySpace{}, domain.NewServiceError(operation, reasonNotFound, domain.ErrNotFound)
	}
	var space StudySpace
	err = db.Where("id = ?", ref).Take(&space).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StudySpace{}, domain.NewServiceError(operation, reasonNotFound, domain.ErrNotFound)
	}
	if err != nil {
		s.logError(operation, reasonQuery, err, zap.String("space_id", ref))
		return StudySpace{}, domain.NewServiceError(operation, reasonQuery, domain.Unavailable(err))
	}
	return space, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("spaces service error", attrs...)
}

func requiredScore(errs *domain.FieldErrors, field string, score *int) int {
	if score == nil {
		errs.Add(field, "is required")
		return 0
	}
	domain.IntInRange(errs, field, *score, minScore, maxScore)
	return *score
}
