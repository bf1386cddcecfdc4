package printers

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
	// RecentReportCount is how many reports a printer detail embeds.
	RecentReportCount = 10
	// DefaultReportLimit applies when a listing does not ask for a limit.
	DefaultReportLimit = 50
	// MaxReportLimit caps a single report listing.
	MaxReportLimit = 500
)

const (
	opServiceNew    = "printers.service.new"
	opList          = "printers.list"
	opGet           = "printers.get"
	opCreate        = "printers.create"
	opUpdate        = "printers.update"
	opDelete        = "printers.delete"
	opSubmitReport  = "reports.submit"
	opListReports   = "reports.list"
	reasonNotFound     = "not_found"
	reasonInvalid      = "validation"
	reasonUnauthorized = "unauthorized"
	reasonQuery        = "query_failed"
	reasonWrite        = "write_failed"
	reasonIDFailure    = "id_generation_failed"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errNoUpdateFields    = errors.New("no valid fields to update")
	noOpLogger           = zap.NewNop()

	recentFirst = clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "timestamp"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
)

// ServiceConfig describes the dependencies of the printer service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider domain.IDProvider
	Logger     *zap.Logger
	// RequireIdentity rejects report submissions without a verified caller.
	RequireIdentity bool
}

// Service serves printers and their status reports.
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

// RequiresIdentity reports whether submissions need a verified caller.
func (s *Service) RequiresIdentity() bool {
	return s.requireIdentity
}

// List returns every printer with its derived state.
func (s *Service) List(ctx context.Context) ([]View, error) {
	var printers []Printer
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&printers).Error; err != nil {
		s.logError(opList, reasonQuery, err)
		return nil, domain.NewServiceError(opList, reasonQuery, domain.Unavailable(err))
	}

	views := make([]View, 0, len(printers))
	for _, printer := range printers {
		latest, err := s.latestReports(ctx, printer.ID, 1)
		if err != nil {
			s.logError(opList, reasonQuery, err, zap.String("printer_id", printer.ID))
			return nil, domain.NewServiceError(opList, reasonQuery, domain.Unavailable(err))
		}
		views = append(views, View{Printer: printer, State: DeriveState(latest)})
	}
	return views, nil
}

// Get returns one printer with its derived state and latest reports.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	printer, err := s.find(ctx, opGet, id)
	if err != nil {
		return Detail{}, err
	}
	recent, err := s.latestReports(ctx, printer.ID, RecentReportCount)
	if err != nil {
		s.logError(opGet, reasonQuery, err, zap.String("printer_id", printer.ID))
		return Detail{}, domain.NewServiceError(opGet, reasonQuery, domain.Unavailable(err))
	}
	return Detail{
		View:          View{Printer: printer, State: DeriveState(recent)},
		RecentReports: recent,
	}, nil
}

// Create validates input and stores a new printer.
func (s *Service) Create(ctx context.Context, input CreateInput) (View, error) {
	var errs domain.FieldErrors
	printer := Printer{
		Name:     domain.RequiredText(&errs, "name", input.Name, domain.MaxFieldLength),
		Location: domain.RequiredText(&errs, "location", input.Location, domain.MaxFieldLength),
		Building: domain.OptionalText(&errs, "building", input.Building, domain.MaxFieldLength),
		Floor:    domain.OptionalText(&errs, "floor", input.Floor, maxFloorLength),
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
	printer.ID = id
	printer.CreatedAt = now
	printer.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(&printer).Error; err != nil {
		s.logError(opCreate, reasonWrite, err)
		return View{}, domain.NewServiceError(opCreate, reasonWrite, domain.Unavailable(err))
	}
	return View{Printer: printer, State: DeriveState(nil)}, nil
}

// Update merges the supplied descriptive fields into a printer.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (View, error) {
	var errs domain.FieldErrors
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = domain.RequiredText(&errs, "name", *patch.Name, domain.MaxFieldLength)
	}
	if patch.Location != nil {
		updates["location"] = domain.RequiredText(&errs, "location", *patch.Location, domain.MaxFieldLength)
	}
	if patch.Building != nil {
		updates["building"] = domain.OptionalText(&errs, "building", *patch.Building, domain.MaxFieldLength)
	}
	if patch.Floor != nil {
		updates["floor"] = domain.OptionalText(&errs, "floor", *patch.Floor, maxFloorLength)
	}
	if len(updates) == 0 {
		errs.Add("body", errNoUpdateFields.Error())
	}
	if err := errs.Err(); err != nil {
		return View{}, domain.NewServiceError(opUpdate, reasonInvalid, err)
	}

	var updated Printer
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findIn(tx, opUpdate, id)
		if err != nil {
			return err
		}
		updates["updated_at"] = domain.LaterOf(s.clock().UTC(), existing.UpdatedAt)
		if err := tx.Model(&Printer{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			s.logError(opUpdate, reasonWrite, err, zap.String("printer_id", existing.ID))
			return domain.NewServiceError(opUpdate, reasonWrite, domain.Unavailable(err))
		}
		updated, err = s.findIn(tx, opUpdate, existing.ID)
		return err
	})
	if txErr != nil {
		return View{}, txErr
	}

	latest, err := s.latestReports(ctx, updated.ID, 1)
	if err != nil {
		s.logError(opUpdate, reasonQuery, err, zap.String("printer_id", updated.ID))
		return View{}, domain.NewServiceError(opUpdate, reasonQuery, domain.Unavailable(err))
	}
	return View{Printer: updated, State: DeriveState(latest)}, nil
}

// Delete removes a printer. Its reports are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	ref, err := domain.ParseRef("id", id)
	if err != nil {
		return domain.NewServiceError(opDelete, reasonNotFound, domain.ErrNotFound)
	}
	result := s.db.WithContext(ctx).Where("id = ?", ref).Delete(&Printer{})
	if result.Error != nil {
		s.logError(opDelete, reasonWrite, result.Error, zap.String("printer_id", ref))
		return domain.NewServiceError(opDelete, reasonWrite, domain.Unavailable(result.Error))
	}
	if result.RowsAffected == 0 {
		return domain.NewServiceError(opDelete, reasonNotFound, domain.ErrNotFound)
	}
	return nil
}

// SubmitReport validates and appends a status report. The referenced printer
// is not looked up, so a report for a deleted printer is stored as an orphan.
func (s *Service) SubmitReport(ctx context.Context, input ReportInput, identity *domain.Identity) (Report, error) {
	if s.requireIdentity && !identity.Verified() {
		return Report{}, domain.NewServiceError(opSubmitReport, reasonUnauthorized, domain.ErrUnauthorized)
	}

	var errs domain.FieldErrors
	printerID, err := domain.ParseRef("printer_id", input.PrinterID)
	if err != nil {
		errs = append(errs, domain.FieldsOf(err)...)
	}
	status, ok := ParseStatus(input.Status)
	if !ok {
		errs.Add("status", "must be one of available, busy, offline, out_of_paper, out_of_toner")
	}
	paperLevel := levelOrZero(input.PaperLevel)
	tonerLevel := levelOrZero(input.TonerLevel)
	domain.IntInRange(&errs, "paper_level", paperLevel, minLevel, maxLevel)
	domain.IntInRange(&errs, "toner_level", tonerLevel, minLevel, maxLevel)
	comments := domain.OptionalText(&errs, "comments", input.Comments, maxCommentsLength)
	declared := domain.OptionalText(&errs, "reported_by", input.ReportedBy, domain.MaxFieldLength)
	if err := errs.Err(); err != nil {
		return Report{}, domain.NewServiceError(opSubmitReport, reasonInvalid, err)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSubmitReport, reasonIDFailure, err)
		return Report{}, domain.NewServiceError(opSubmitReport, reasonIDFailure, err)
	}
	report := Report{
		ID:         id,
		PrinterID:  printerID,
		Status:     status,
		PaperLevel: paperLevel,
		TonerLevel: tonerLevel,
		Comments:   comments,
		ReportedBy: domain.Reporter(identity, declared),
		Timestamp:  s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		s.logError(opSubmitReport, reasonWrite, err, zap.String("printer_id", printerID))
		return Report{}, domain.NewServiceError(opSubmitReport, reasonWrite, domain.Unavailable(err))
	}
	return report, nil
}

// ListReports returns reports newest first, optionally for one printer.
func (s *Service) ListReports(ctx context.Context, filter ReportFilter) ([]Report, error) {
	limit, err := normalizeLimit(filter.Limit)
	if err != nil {
		return nil, domain.NewServiceError(opListReports, reasonInvalid, err)
	}
	query := s.db.WithContext(ctx).Model(&Report{})
	if filter.PrinterID != "" {
		printerID, err := domain.ParseRef("printer_id", filter.PrinterID)
		if err != nil {
			return nil, domain.NewServiceError(opListReports, reasonInvalid, err)
		}
		query = query.Where("printer_id = ?", printerID)
	}

	reports := make([]Report, 0)
	if err := query.Clauses(recentFirst).Limit(limit).Find(&reports).Error; err != nil {
		s.logError(opListReports, reasonQuery, err, zap.String("printer_id", filter.PrinterID))
		return nil, domain.NewServiceError(opListReports, reasonQuery, domain.Unavailable(err))
	}
	return reports, nil
}

func (s *Service) find(ctx context.Context, operation, id string) (Printer, error) {
	return s.findIn(s.db.WithContext(ctx), operation, id)
}

func (s *Service) findIn(db *gorm.DB, operation, id string) (Printer, error) {
	ref, err := domain.ParseRef("id", id)
	if err != nil {
		return Printer{}, domain.NewServiceError(operation, reasonNotFound, domain.ErrNotFound)
	}
	var printer Printer
	err = db.Where("id = ?", ref).Take(&printer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Printer{}, domain.NewServiceError(operation, reasonNotFound, domain.ErrNotFound)
	}
	if err != nil {
		s.logError(operation, reasonQuery, err, zap.String("printer_id", ref))
		return Printer{}, domain.NewServiceError(operation, reasonQuery, domain.Unavailable(err))
	}
	return printer, nil
}

func (s *Service) latestReports(ctx context.Context, printerID string, limit int) ([]Report, error) {
	reports := make([]Report, 0, limit)
	err := s.db.WithContext(ctx).
		Where("printer_id = ?", printerID).
		Clauses(recentFirst).
		Limit(limit).
		Find(&reports).Error
	return reports, err
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
	s.logger.Error("printers service error", attrs...)
}

func normalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, domain.NewValidationError("limit", "must not be negative")
	case limit == 0:
		return DefaultReportLimit, nil
	case limit > MaxReportLimit:
		return MaxReportLimit, nil
	default:
		return limit, nil
	}
}

func levelOrZero(level *int) int {
	if level == nil {
		return 0
	}
	return *level
}
