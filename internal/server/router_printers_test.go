package server

import (
	"net/http"
	"testing"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
)

func createPrinterOverHTTP(t *testing.T, server *testServer) string {
	t.Helper()
	recorder := server.do(t, http.MethodPost, "/api/printers", map[string]interface{}{
		"name":     "Bobst LL2 Printer",
		"location": "Lower level 2",
		"building": "Bobst Library",
	})
	expectStatus(t, recorder, http.StatusCreated)
	created := decodeObject(t, recorder)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected id in %v", created)
	}
	return id
}

func TestPrinterLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})
	id := createPrinterOverHTTP(t, server)

	detail := server.do(t, http.MethodGet, "/api/printers/"+id, nil)
	expectStatus(t, detail, http.StatusOK)
	body := decodeObject(t, detail)
	if body["status"] != string(printers.StatusUnknown) {
		t.Fatalf("expected unknown status, got %v", body["status"])
	}
	if body["paper_level"] != nil || body["last_updated"] != nil {
		t.Fatalf("expected null derived fields, got %v", body)
	}
	if body["created_at"] != body["updated_at"] {
		t.Fatalf("expected created_at == updated_at")
	}

	report := server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{
		"printer_id":  id,
		"status":      "out_of_toner",
		"paper_level": 70,
		"toner_level": 0,
		"comments":    "faded prints",
	})
	expectStatus(t, report, http.StatusCreated)
	if reporter := decodeObject(t, report)["reported_by"]; reporter != domain.AnonymousReporter {
		t.Fatalf("expected anonymous reporter, got %v", reporter)
	}

	listed := server.do(t, http.MethodGet, "/api/printers", nil)
	expectStatus(t, listed, http.StatusOK)
	views := decodeList(t, listed)
	if len(views) != 1 || views[0]["status"] != "out_of_toner" {
		t.Fatalf("unexpected printer list %v", views)
	}
	if views[0]["paper_level"] != float64(70) {
		t.Fatalf("expected paper level 70, got %v", views[0]["paper_level"])
	}

	detail = server.do(t, http.MethodGet, "/api/printers/"+id, nil)
	expectStatus(t, detail, http.StatusOK)
	recent, _ := decodeObject(t, detail)["recent_reports"].([]interface{})
	if len(recent) != 1 {
		t.Fatalf("expected one recent report, got %v", recent)
	}

	deleted := server.do(t, http.MethodDelete, "/api/printers/"+id, nil)
	expectStatus(t, deleted, http.StatusNoContent)
	expectErrorKind(t, server.do(t, http.MethodGet, "/api/printers/"+id, nil), http.StatusNotFound, domain.KindNotFound)

	orphans := server.do(t, http.MethodGet, "/api/reports?entity_id="+id, nil)
	expectStatus(t, orphans, http.StatusOK)
	if len(decodeList(t, orphans)) != 1 {
		t.Fatalf("expected orphaned report to stay retrievable")
	}
}

func TestSubmitReportOutOfRangeWritesNothing(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})
	id := createPrinterOverHTTP(t, server)

	recorder := server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{
		"printer_id":  id,
		"status":      "available",
		"paper_level": 150,
	})
	payload := expectErrorKind(t, recorder, http.StatusBadRequest, domain.KindValidation)
	fields, _ := payload["fields"].([]interface{})
	if len(fields) != 1 {
		t.Fatalf("expected one field error, got %v", payload["fields"])
	}

	var count int64
	if err := server.db.Model(&printers.Report{}).Count(&count).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no report written, got %d", count)
	}
}

func TestUpdatePrinterIgnoresDerivedFields(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})
	id := createPrinterOverHTTP(t, server)

	rejected := server.do(t, http.MethodPut, "/api/printers/"+id, map[string]interface{}{"status": "available"})
	payload := expectErrorKind(t, rejected, http.StatusBadRequest, domain.KindValidation)
	if payload["message"] != "body no valid fields to update" {
		t.Fatalf("unexpected message %v", payload["message"])
	}

	updated := server.do(t, http.MethodPut, "/api/printers/"+id, map[string]interface{}{"floor": "LL2", "status": "available"})
	expectStatus(t, updated, http.StatusOK)
	body := decodeObject(t, updated)
	if body["floor"] != "LL2" {
		t.Fatalf("expected floor update, got %v", body["floor"])
	}
	if body["status"] != string(printers.StatusUnknown) {
		t.Fatalf("status must stay derived, got %v", body["status"])
	}

	expectErrorKind(t, server.do(t, http.MethodPut, "/api/printers/not-an-id", map[string]interface{}{"floor": "1"}), http.StatusNotFound, domain.KindNotFound)
	expectErrorKind(t, server.do(t, http.MethodDelete, "/api/printers/not-an-id", nil), http.StatusNotFound, domain.KindNotFound)
}

func TestCreatePrinterValidation(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})

	expectErrorKind(t, server.do(t, http.MethodPost, "/api/printers", map[string]interface{}{"name": "Only a name"}), http.StatusBadRequest, domain.KindValidation)
	expectErrorKind(t, server.do(t, http.MethodPost, "/api/printers", map[string]interface{}{"name": 42}), http.StatusBadRequest, domain.KindValidation)
	expectErrorKind(t, server.do(t, http.MethodPost, "/api/printers", nil), http.StatusBadRequest, domain.KindValidation)
}

func TestListReportsQueryValidation(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})
	id := createPrinterOverHTTP(t, server)

	for _, path := range []string{
		"/api/reports?limit=abc",
		"/api/reports?limit=0",
		"/api/reports?limit=-3",
		"/api/reports?printer_id=bogus",
		"/api/reports?printer_id=" + id + "&entity_id=00000000-0000-7000-8000-000000000001",
	} {
		expectErrorKind(t, server.do(t, http.MethodGet, path, nil), http.StatusBadRequest, domain.KindValidation)
	}

	for index := 0; index < 3; index++ {
		expectStatus(t, server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{"entity_id": id, "status": "busy"}), http.StatusCreated)
	}
	limited := server.do(t, http.MethodGet, "/api/reports?printer_id="+id+"&limit=2", nil)
	expectStatus(t, limited, http.StatusOK)
	if got := len(decodeList(t, limited)); got != 2 {
		t.Fatalf("expected 2 reports, got %d", got)
	}
}

func TestPrinterReportsUseSessionIdentity(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})
	id := createPrinterOverHTTP(t, server)

	recorder := server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{
		"printer_id":  id,
		"status":      "busy",
		"reported_by": "Someone Else",
	}, server.sessionCookie(t, "abc123"))
	expectStatus(t, recorder, http.StatusCreated)
	if reporter := decodeObject(t, recorder)["reported_by"]; reporter != "abc123" {
		t.Fatalf("expected verified netid, got %v", reporter)
	}

	anonymous := server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{
		"printer_id":  id,
		"status":      "busy",
		"reported_by": "Student",
	})
	expectStatus(t, anonymous, http.StatusCreated)
	if reporter := decodeObject(t, anonymous)["reported_by"]; reporter != "Student" {
		t.Fatalf("expected declared reporter, got %v", reporter)
	}
}

func TestPrinterReportsCanRequireIdentity(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters, requireIdentity: true})
	id := createPrinterOverHTTP(t, server)

	expectErrorKind(t, server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{"printer_id": id, "status": "busy"}), http.StatusUnauthorized, domain.KindUnauthorized)
	expectStatus(t, server.do(t, http.MethodPost, "/api/reports", map[string]interface{}{"printer_id": id, "status": "busy"}, server.sessionCookie(t, "abc123")), http.StatusCreated)
}

func TestSpaceRoutesAreNotMountedForPrinters(t *testing.T) {
	server := newTestServer(t, testServerOptions{variant: domain.VariantPrinters})
	expectStatus(t, server.do(t, http.MethodGet, "/api/spaces", nil), http.StatusNotFound)
	expectStatus(t, server.do(t, http.MethodGet, "/api/reviews", nil), http.StatusNotFound)
}
