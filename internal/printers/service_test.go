package printers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"gorm.io/gorm"
)

func createPrinter(t *testing.T, service *Service) View {
	t.Helper()
	view, err := service.Create(context.Background(), CreateInput{
		Name:     "Bobst LL1 Printer",
		Location: "Lower level 1, east wall",
		Building: "Bobst Library",
		Floor:    "LL1",
	})
	if err != nil {
		t.Fatalf("create printer: %v", err)
	}
	return view
}

func countReports(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&Report{}).Count(&count).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	return count
}

func TestCreatePrinterStartsUnknown(t *testing.T) {
	service, _, _ := newTestService(t, false)
	view := createPrinter(t, service)

	if view.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !view.CreatedAt.Equal(view.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at, got %v and %v", view.CreatedAt, view.UpdatedAt)
	}
	if view.Status != StatusUnknown {
		t.Fatalf("expected unknown status, got %q", view.Status)
	}

	detail, err := service.Get(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if detail.Status != StatusUnknown || detail.PaperLevel != nil {
		t.Fatalf("expected unreported printer state, got %#v", detail.State)
	}
	if len(detail.RecentReports) != 0 {
		t.Fatalf("expected no recent reports")
	}
}

func TestCreatePrinterValidatesRequiredFields(t *testing.T) {
	service, _, db := newTestService(t, false)
	_, err := service.Create(context.Background(), CreateInput{Name: "  ", Location: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields := domain.FieldsOf(err); len(fields) != 2 {
		t.Fatalf("expected two field errors, got %#v", fields)
	}
	var count int64
	db.Model(&Printer{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no printer stored, got %d", count)
	}
}

func TestSubmitReportDrivesDerivedStatus(t *testing.T) {
	service, clock, _ := newTestService(t, false)
	printer := createPrinter(t, service)
	ctx := context.Background()

	clock.Advance(time.Minute)
	if _, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "available", PaperLevel: intPtr(80), TonerLevel: intPtr(60)}, nil); err != nil {
		t.Fatalf("first report: %v", err)
	}
	clock.Advance(time.Minute)
	second, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "out_of_paper", Comments: " tray empty "}, nil)
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if second.ReportedBy != domain.AnonymousReporter {
		t.Fatalf("expected anonymous reporter, got %q", second.ReportedBy)
	}
	if second.PaperLevel != 0 || second.TonerLevel != 0 {
		t.Fatalf("expected omitted levels to default to zero")
	}
	if second.Comments != "tray empty" {
		t.Fatalf("expected trimmed comments, got %q", second.Comments)
	}

	detail, err := service.Get(ctx, printer.ID)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if detail.Status != StatusOutOfPaper {
		t.Fatalf("expected out_of_paper, got %q", detail.Status)
	}
	if detail.LastUpdated == nil || !detail.LastUpdated.Equal(clock.Now()) {
		t.Fatalf("unexpected last updated %v", detail.LastUpdated)
	}
	if len(detail.RecentReports) != 2 || detail.RecentReports[0].ID != second.ID {
		t.Fatalf("expected newest report first, got %#v", detail.RecentReports)
	}

	views, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list printers: %v", err)
	}
	if len(views) != 1 || views[0].Status != StatusOutOfPaper {
		t.Fatalf("unexpected list output: %#v", views)
	}
}

func TestSubmitReportTieBreakUsesHighestID(t *testing.T) {
	service, _, _ := newTestService(t, false)
	printer := createPrinter(t, service)
	ctx := context.Background()

	first, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "busy"}, nil)
	if err != nil {
		t.Fatalf("first report: %v", err)
	}
	second, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "offline"}, nil)
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if !first.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("test requires equal timestamps")
	}

	detail, err := service.Get(ctx, printer.ID)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if detail.Status != StatusOffline {
		t.Fatalf("expected report with the higher id to win, got %q", detail.Status)
	}
}

func TestSubmitReportRejectsOutOfRangeLevel(t *testing.T) {
	service, _, db := newTestService(t, false)
	printer := createPrinter(t, service)

	_, err := service.SubmitReport(context.Background(), ReportInput{PrinterID: printer.ID, Status: "available", PaperLevel: intPtr(150)}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := domain.FieldsOf(err)
	if len(fields) != 1 || fields[0].Field != "paper_level" {
		t.Fatalf("expected paper_level failure, got %#v", fields)
	}
	if count := countReports(t, db); count != 0 {
		t.Fatalf("expected no report written, got %d", count)
	}
}

func TestSubmitReportRejectsBadStatusAndReference(t *testing.T) {
	service, _, db := newTestService(t, false)

	_, err := service.SubmitReport(context.Background(), ReportInput{PrinterID: "nope", Status: "unknown"}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields := domain.FieldsOf(err); len(fields) != 2 {
		t.Fatalf("expected printer_id and status failures, got %#v", fields)
	}
	if count := countReports(t, db); count != 0 {
		t.Fatalf("expected no report written, got %d", count)
	}
}

func TestSubmitReportRequiresIdentityWhenConfigured(t *testing.T) {
	service, _, db := newTestService(t, true)
	printer := createPrinter(t, service)
	ctx := context.Background()

	_, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "busy", ReportedBy: "abc123"}, nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if count := countReports(t, db); count != 0 {
		t.Fatalf("expected no report written, got %d", count)
	}

	report, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "busy", ReportedBy: "someone-else"}, &domain.Identity{NetID: "abc123"})
	if err != nil {
		t.Fatalf("authenticated report: %v", err)
	}
	if report.ReportedBy != "abc123" {
		t.Fatalf("expected verified identity to win, got %q", report.ReportedBy)
	}
}

func TestUpdatePrinterKeepsDerivedStateOutOfStorage(t *testing.T) {
	service, clock, _ := newTestService(t, false)
	printer := createPrinter(t, service)
	ctx := context.Background()

	if _, err := service.Update(ctx, printer.ID, Patch{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected empty patch to be rejected, got %v", err)
	}

	clock.Advance(time.Hour)
	updated, err := service.Update(ctx, printer.ID, Patch{Location: stringPtr("Lower level 1, west wall")})
	if err != nil {
		t.Fatalf("update printer: %v", err)
	}
	if updated.Location != "Lower level 1, west wall" || updated.Name != printer.Name {
		t.Fatalf("expected merge of supplied fields only, got %#v", updated.Printer)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
	if updated.Status != StatusUnknown {
		t.Fatalf("update must not change derived status, got %q", updated.Status)
	}
}

func TestMalformedOrMissingIDIsNotFound(t *testing.T) {
	service, _, _ := newTestService(t, false)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", "00000000-0000-7000-8000-000000000999"} {
		if _, err := service.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("get %q: expected not found, got %v", id, err)
		}
		if _, err := service.Update(ctx, id, Patch{Name: stringPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("update %q: expected not found, got %v", id, err)
		}
		if err := service.Delete(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("delete %q: expected not found, got %v", id, err)
		}
	}
}

func TestDeletePrinterLeavesReportsRetrievable(t *testing.T) {
	service, clock, _ := newTestService(t, false)
	printer := createPrinter(t, service)
	ctx := context.Background()

	if _, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "busy"}, nil); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := service.Delete(ctx, printer.ID); err != nil {
		t.Fatalf("delete printer: %v", err)
	}
	if _, err := service.Get(ctx, printer.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted printer to be gone, got %v", err)
	}

	clock.Advance(time.Second)
	if _, err := service.SubmitReport(ctx, ReportInput{PrinterID: printer.ID, Status: "offline"}, nil); err != nil {
		t.Fatalf("orphan report should be accepted: %v", err)
	}

	reports, err := service.ListReports(ctx, ReportFilter{PrinterID: printer.ID})
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected both orphaned reports, got %d", len(reports))
	}
	if reports[0].Status != StatusOffline {
		t.Fatalf("expected newest first, got %q", reports[0].Status)
	}
}

func TestListReportsIncludesEachSubmissionOnce(t *testing.T) {
	service, clock, _ := newTestService(t, false)
	first := createPrinter(t, service)
	second := createPrinter(t, service)
	ctx := context.Background()

	submitted := map[string]bool{}
	for index := 0; index < 12; index++ {
		clock.Advance(time.Second)
		target := first.ID
		if index%3 == 0 {
			target = second.ID
		}
		report, err := service.SubmitReport(ctx, ReportInput{PrinterID: target, Status: "available"}, nil)
		if err != nil {
			t.Fatalf("report %d: %v", index, err)
		}
		submitted[report.ID] = false
	}

	all, err := service.ListReports(ctx, ReportFilter{})
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	for _, report := range all {
		seen, ok := submitted[report.ID]
		if !ok || seen {
			t.Fatalf("report %s missing from submissions or listed twice", report.ID)
		}
		submitted[report.ID] = true
	}
	if len(all) != 12 {
		t.Fatalf("expected 12 reports, got %d", len(all))
	}

	limited, err := service.ListReports(ctx, ReportFilter{PrinterID: first.ID, Limit: 3})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
	for _, report := range limited {
		if report.PrinterID != first.ID {
			t.Fatalf("filter leaked report for %s", report.PrinterID)
		}
	}

	detail, err := service.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if len(detail.RecentReports) != 8 {
		t.Fatalf("expected all 8 reports of the printer, got %d", len(detail.RecentReports))
	}
}

func TestListReportsValidatesFilter(t *testing.T) {
	service, _, _ := newTestService(t, false)
	ctx := context.Background()

	if _, err := service.ListReports(ctx, ReportFilter{Limit: -1}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected negative limit to be rejected, got %v", err)
	}
	if _, err := service.ListReports(ctx, ReportFilter{PrinterID: "bad"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected malformed printer_id to be rejected, got %v", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultReportLimit, 7: 7, MaxReportLimit: MaxReportLimit, 10000: MaxReportLimit}
	for input, want := range cases {
		got, err := normalizeLimit(input)
		if err != nil {
			t.Fatalf("limit %d: %v", input, err)
		}
		if got != want {
			t.Fatalf("limit %d: expected %d, got %d", input, want, got)
		}
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceConfig{IDProvider: &sequenceIDProvider{}}); err == nil {
		t.Fatalf("expected missing database error")
	}
	if _, err := NewService(ServiceConfig{Database: openTestDatabase(t)}); err == nil {
		t.Fatalf("expected missing id provider error")
	}
}
