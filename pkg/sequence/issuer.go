// Package sequence mints unique human-readable identifiers from named
// database counters. The increment-and-read is a single SQL statement, so
// concurrent callers on the same category can never receive the same
// number, across any number of server instances.
package sequence

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Issuer issues sequential IDs backed by the sequence_counters table.
type Issuer struct {
	db *gorm.DB
}

// NewIssuer creates an issuer on the given database handle.
func NewIssuer(db *gorm.DB) *Issuer {
	return &Issuer{db: db}
}

// Issue atomically advances the counter for category and returns the
// formatted identifier (e.g. "INV-0042"). On any database error no counter
// advance happened and no ID exists; callers must retry or fail their own
// operation rather than fabricate an identifier.
func (i *Issuer) Issue(category string) (string, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" {
		return "", fmt.Errorf("sequence: empty category")
	}

	var seq int64
	err := i.db.Raw(`
		INSERT INTO sequence_counters (category, seq, created_at, updated_at)
		VALUES (?, 1, NOW(), NOW())
		ON CONFLICT (category)
		DO UPDATE SET seq = sequence_counters.seq + 1, updated_at = NOW()
		RETURNING seq`, category).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("sequence: advance counter %s: %w", category, err)
	}
	return FormatID(category, seq), nil
}

// FormatID renders a category code and sequence number as a human-readable
// identifier, zero-padded to four digits. Sequences past 9999 widen.
func FormatID(category string, seq int64) string {
	return fmt.Sprintf("%s-%04d", category, seq)
}
