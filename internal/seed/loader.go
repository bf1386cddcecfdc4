package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/spaces"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingConfirmer  = errors.New("confirmer is required")
)

// Config describes the dependencies of a Loader.
type Config struct {
	Database   *gorm.DB
	Variant    domain.Variant
	IDProvider domain.IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
	Confirmer  Confirmer
}

// Options tune a single load.
type Options struct {
	// Replace clears both collections, after confirmation, when they already
	// hold data. Without it a non-empty store is left alone.
	Replace bool
	// MinimumEntities asks for confirmation when the dataset is smaller.
	MinimumEntities int
}

// Result summarises what a load did.
type Result struct {
	Entities  int
	Reports   int
	Existing  int64
	Skipped   bool
	Cancelled bool
	Cleared   bool
}

// Loader inserts datasets into the collections of one variant.
type Loader struct {
	db         *gorm.DB
	variant    domain.Variant
	idProvider domain.IDProvider
	clock      func() time.Time
	logger     *zap.Logger
	confirmer  Confirmer
}

// NewLoader validates cfg and builds a Loader.
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	if cfg.Confirmer == nil {
		return nil, errMissingConfirmer
	}
	variant, err := domain.ParseVariant(string(cfg.Variant))
	if err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		db:         cfg.Database,
		variant:    variant,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
		confirmer:  cfg.Confirmer,
	}, nil
}

// Load writes dataset into empty collections. A non-empty store is skipped
// unless opts.Replace is set and the operator confirms. The clear and the
// inserts share one transaction, so a dataset that fails validation leaves
// the store as it was.
func (l *Loader) Load(ctx context.Context, dataset Dataset, opts Options) (Result, error) {
	if err := dataset.checkReferences(l.variant); err != nil {
		return Result{}, err
	}

	entityCount := dataset.EntityCount(l.variant)
	if opts.MinimumEntities > 0 && entityCount < opts.MinimumEntities {
		l.logger.Warn("dataset is smaller than expected",
			zap.Int("entities", entityCount),
			zap.Int("minimum", opts.MinimumEntities),
		)
		question := fmt.Sprintf("Only %d %s defined. Continue anyway?", entityCount, l.variant)
		ok, err := l.confirmer.Confirm(question)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			l.logger.Info("seed cancelled")
			return Result{Cancelled: true}, nil
		}
	}

	existing, err := l.countEntities(ctx)
	if err != nil {
		return Result{}, err
	}
	result := Result{Existing: existing}
	if existing > 0 {
		if !opts.Replace {
			l.logger.Warn("collection already holds data; skipping seed",
				zap.String("variant", string(l.variant)),
				zap.Int64("existing", existing),
			)
			result.Skipped = true
			return result, nil
		}
		question := fmt.Sprintf("Database already contains %d %s. Clear existing data and insert?", existing, l.variant)
		ok, err := l.confirmer.Confirm(question)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			l.logger.Info("seed cancelled")
			result.Cancelled = true
			return result, nil
		}
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing > 0 {
			if err := l.clear(tx); err != nil {
				return err
			}
			result.Cleared = true
		}
		var err error
		switch l.variant {
		case domain.VariantSpaces:
			result.Entities, result.Reports, err = l.insertSpaces(ctx, tx, dataset)
		default:
			result.Entities, result.Reports, err = l.insertPrinters(ctx, tx, dataset)
		}
		return err
	})
	if err != nil {
		return Result{Existing: existing}, err
	}

	l.logger.Info("seed complete",
		zap.String("variant", string(l.variant)),
		zap.Int("entities", result.Entities),
		zap.Int("reports", result.Reports),
		zap.Bool("cleared", result.Cleared),
	)
	return result, nil
}

func (l *Loader) models() (entity, report interface{}) {
	if l.variant == domain.VariantSpaces {
		return &spaces.StudySpace{}, &spaces.Review{}
	}
	return &printers.Printer{}, &printers.Report{}
}

func (l *Loader) countEntities(ctx context.Context) (int64, error) {
	entity, _ := l.models()
	var count int64
	if err := l.db.WithContext(ctx).Model(entity).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count existing %s: %w", l.variant, err)
	}
	return count, nil
}

func (l *Loader) clear(tx *gorm.DB) error {
	entity, report := l.models()
	if err := tx.Where("1 = 1").Delete(report).Error; err != nil {
		return fmt.Errorf("clear reports: %w", err)
	}
	if err := tx.Where("1 = 1").Delete(entity).Error; err != nil {
		return fmt.Errorf("clear %s: %w", l.variant, err)
	}
	return nil
}

func (l *Loader) insertPrinters(ctx context.Context, tx *gorm.DB, dataset Dataset) (int, int, error) {
	service, err := printers.NewService(printers.ServiceConfig{
		Database:   tx,
		Clock:      l.clock,
		IDProvider: l.idProvider,
		Logger:     l.logger,
	})
	if err != nil {
		return 0, 0, err
	}

	ids := make([]string, 0, len(dataset.Printers))
	for i, row := range dataset.Printers {
		view, err := service.Create(ctx, printers.CreateInput{
			Name:     row.Name,
			Location: row.Location,
			Building: row.Building,
			Floor:    row.Floor,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("printers[%d]: %w", i, err)
		}
		ids = append(ids, view.ID)
	}
	for i, row := range dataset.Reports {
		_, err := service.SubmitReport(ctx, printers.ReportInput{
			PrinterID:  ids[row.Printer],
			Status:     row.Status,
			PaperLevel: row.PaperLevel,
			TonerLevel: row.TonerLevel,
			Comments:   row.Comments,
			ReportedBy: row.ReportedBy,
		}, nil)
		if err != nil {
			return 0, 0, fmt.Errorf("reports[%d]: %w", i, err)
		}
	}
	return len(ids), len(dataset.Reports), nil
}

func (l *Loader) insertSpaces(ctx context.Context, tx *gorm.DB, dataset Dataset) (int, int, error) {
	service, err := spaces.NewService(spaces.ServiceConfig{
		Database:   tx,
		Clock:      l.clock,
		IDProvider: l.idProvider,
		Logger:     l.logger,
	})
	if err != nil {
		return 0, 0, err
	}

	ids := make([]string, 0, len(dataset.Spaces))
	for i, row := range dataset.Spaces {
		view, err := service.Create(ctx, spaces.CreateInput{
			Building:    row.Building,
			Sublocation: row.Sublocation,
			Description: row.Description,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("spaces[%d]: %w", i, err)
		}
		ids = append(ids, view.ID)
	}
	for i, row := range dataset.Reviews {
		var reviewer *domain.Identity
		if row.ReportedBy != "" {
			reviewer = &domain.Identity{NetID: row.ReportedBy}
		}
		_, err := service.SubmitReview(ctx, spaces.ReviewInput{
			SpaceID:     ids[row.Space],
			Rating:      row.Rating,
			Silence:     row.Silence,
			Crowdedness: row.Crowdedness,
			Text:        row.Review,
		}, reviewer)
		if err != nil {
			return 0, 0, fmt.Errorf("reviews[%d]: %w", i, err)
		}
	}
	return len(ids), len(dataset.Reviews), nil
}
