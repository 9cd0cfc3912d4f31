// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks import status per external service and which source records were imported
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncState is the import status for one external service.
type SyncState struct {
	Service      string
	LastSyncTime *time.Time
	Status       string
	ErrorMessage *string
	UpdatedAt    time.Time
}

// GetSyncState returns the state for service or nil when it never ran.
func GetSyncState(ctx context.Context, db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT service, last_sync_time, status, error_message, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(&state.Service, &lastSyncTime, &state.Status, &errorMessage, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	return &state, nil
}

// UpdateSyncStatus records the status of a service. A successful idle status
// also stamps the last sync time.
func UpdateSyncStatus(ctx context.Context, db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	var lastSync sql.NullTime
	if status == "idle" && errorMsg == nil {
		lastSync = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = COALESCE(excluded.last_sync_time, sync_state.last_sync_time),
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, lastSync, status, errorMsgVal)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// CheckSyncLogExists reports whether the source record was already imported.
func CheckSyncLogExists(ctx context.Context, db *sql.DB, sourceService, sourceID string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_log WHERE source_service = ? AND source_id = ?
	`, sourceService, sourceID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sync log: %w", err)
	}
	return count > 0, nil
}

// CreateSyncLog records that sourceID became the local entity entityID.
func CreateSyncLog(ctx context.Context, db *sql.DB, sourceService, sourceID, entityType string, entityID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sync_log (id, source_service, source_id, entity_type, entity_id, imported_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, uuid.New().String(), sourceService, sourceID, entityType, entityID.String())
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}
