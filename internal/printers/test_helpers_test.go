package printers

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sequenceIDProvider struct {
	mu   sync.Mutex
	next int
}

func (p *sequenceIDProvider) NewID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", p.next), nil
}

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(duration)
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "printers.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Printer{}, &Report{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T, requireIdentity bool) (*Service, *stubClock, *gorm.DB) {
	t.Helper()
	db := openTestDatabase(t)
	clock := &stubClock{now: time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)}
	service, err := NewService(ServiceConfig{
		Database:        db,
		Clock:           clock.Now,
		IDProvider:      &sequenceIDProvider{},
		RequireIdentity: requireIdentity,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, clock, db
}

func intPtr(value int) *int {
	return &value
}

func stringPtr(value string) *string {
	return &value
}
