package complaints

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// formatTrackingNumber renders the human-facing complaint identifier,
// e.g. CV-2026-000042.
func formatTrackingNumber(year int, seq int64) string {
	return fmt.Sprintf("CV-%d-%06d", year, seq)
}

// nextTrackingNumber reserves the next number in the per-year sequence.
// The upsert is a single atomic statement, so two concurrent submissions
// can never observe the same value. Must run inside the caller's
// transaction so an aborted submission rolls the reservation back.
func nextTrackingNumber(tx *gorm.DB, now time.Time) (string, error) {
	year := now.Year()
	var seq int64
	err := tx.Raw(`
		INSERT INTO tracking_counters (year, value) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET value = tracking_counters.value + 1
		RETURNING value`, year).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return formatTrackingNumber(year, seq), nil
}
