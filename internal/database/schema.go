package database

import (
	"fmt"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/spaces"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type collection struct {
	model   interface{}
	table   string
	indexes []string
}

// StepResult records one schema step and whether it changed anything.
type StepResult struct {
	Name    string
	Created bool
}

func collectionsFor(variant domain.Variant) ([]collection, error) {
	switch variant {
	case domain.VariantPrinters:
		return []collection{
			{
				model: &printers.Printer{},
				table: printers.Printer{}.TableName(),
				indexes: []string{
					"idx_printers_name",
					"idx_printers_location",
					"idx_printers_building",
					"idx_printers_created_at",
				},
			},
			{
				model: &printers.Report{},
				table: printers.Report{}.TableName(),
				indexes: []string{
					"idx_printer_reports_printer_time",
					"idx_printer_reports_timestamp",
					"idx_printer_reports_status",
				},
			},
		}, nil
	case domain.VariantSpaces:
		return []collection{
			{
				model: &spaces.StudySpace{},
				table: spaces.StudySpace{}.TableName(),
				indexes: []string{
					"idx_study_spaces_building",
					"idx_study_spaces_sublocation",
					"idx_study_spaces_created_at",
				},
			},
			{
				model: &spaces.Review{},
				table: spaces.Review{}.TableName(),
				indexes: []string{
					"idx_reviews_space_time",
					"idx_reviews_timestamp",
					"idx_reviews_rating",
				},
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
}

// EnsureSchema makes sure the variant's two collections and their indexes
// exist. It is safe to run repeatedly; steps that are already satisfied are
// reported with Created=false. The first failing step is named in the error.
func EnsureSchema(db *gorm.DB, variant domain.Variant, logger *zap.Logger) ([]StepResult, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	collections, err := collectionsFor(variant)
	if err != nil {
		return nil, err
	}

	migrator := db.Migrator()
	var results []StepResult
	for _, coll := range collections {
		step := "collection " + coll.table
		created := false
		if migrator.HasTable(coll.model) {
			if err := migrator.AutoMigrate(coll.model); err != nil {
				return results, fmt.Errorf("schema step %q: %w", step, err)
			}
		} else {
			if err := migrator.CreateTable(coll.model); err != nil {
				return results, fmt.Errorf("schema step %q: %w", step, err)
			}
			created = true
		}
		results = append(results, StepResult{Name: step, Created: created})
		logger.Info("schema step applied", zap.String("step", step), zap.Bool("created", created))

		for _, index := range coll.indexes {
			step := "index " + coll.table + "." + index
			created := false
			if !migrator.HasIndex(coll.model, index) {
				if err := migrator.CreateIndex(coll.model, index); err != nil {
					return results, fmt.Errorf("schema step %q: %w", step, err)
				}
				created = true
			}
			results = append(results, StepResult{Name: step, Created: created})
			logger.Debug("schema step applied", zap.String("step", step), zap.Bool("created", created))
		}
	}

	logger.Info("database schema ready", zap.String("variant", string(variant)))
	return results, nil
}
