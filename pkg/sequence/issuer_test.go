package sequence

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestFormatID(t *testing.T) {
	tests := []struct {
		category string
		seq      int64
		expected string
	}{
		{"ENG", 1, "ENG-0001"},
		{"INV", 42, "INV-0042"},
		{"PTW", 999, "PTW-0999"},
		{"EXP", 9999, "EXP-9999"},
		{"CON", 10000, "CON-10000"},
		{"OWN", 123456, "OWN-123456"},
	}

	for _, tt := range tests {
		if got := FormatID(tt.category, tt.seq); got != tt.expected {
			t.Errorf("FormatID(%q, %d) = %q, expected %q", tt.category, tt.seq, got, tt.expected)
		}
	}
}

func TestIssueRejectsEmptyCategory(t *testing.T) {
	issuer := NewIssuer(nil)
	if _, err := issuer.Issue(""); err == nil {
		t.Error("expected error for empty category")
	}
	if _, err := issuer.Issue("   "); err == nil {
		t.Error("expected error for blank category")
	}
}

// TestIssueConcurrent drives many goroutines at one counter and checks that
// no identifier is issued twice. Needs a real database; set TEST_DATABASE_DSN
// to run it.
func TestIssueConcurrent(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS sequence_counters (
		category TEXT PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	db.Exec(`DELETE FROM sequence_counters WHERE category = 'TSTC'`)

	issuer := NewIssuer(db)
	const workers = 20
	const issuesPerWorker = 10

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < issuesPerWorker; i++ {
				id, err := issuer.Issue("TSTC")
				if err != nil {
					t.Errorf("issue: %v", err)
					return
				}
				mu.Lock()
				if seen[id] {
					t.Errorf("identifier %s issued twice", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*issuesPerWorker {
		t.Errorf("issued %d distinct identifiers, expected %d", len(seen), workers*issuesPerWorker)
	}
}
