package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"autoshop/internal/models"
)

const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// CreateSyncTask persists a sheets sync job; the appointment snapshot is
// stored as JSON.
func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	var payload sql.NullString
	if task.Appointment != nil {
		data, err := json.Marshal(task.Appointment)
		if err != nil {
			return fmt.Errorf("marshal sync payload: %w", err)
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}
	if task.Status == "" {
		task.Status = SyncStatusPending
	}

	now := time.Now()
	result, err := db.ExecContext(ctx, `INSERT INTO sync_queue (task_type, appointment_id, payload, status, retry_count, last_error, created_at, next_retry_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskType, task.AppointmentID, payload, task.Status, task.RetryCount, task.LastError, now, task.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingSyncTasks returns tasks that are due, oldest first.
func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	return db.querySyncTasks(ctx, `SELECT id, task_type, appointment_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
        FROM sync_queue
        WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
        ORDER BY created_at ASC LIMIT ?`, time.Now(), limit)
}

func (db *DB) GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error) {
	return db.querySyncTasks(ctx, `SELECT id, task_type, appointment_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
        FROM sync_queue WHERE status = 'failed' ORDER BY created_at DESC`)
}

func (db *DB) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case SyncStatusRetry:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case SyncStatusCompleted, SyncStatusFailed:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, now, id}
	default:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update sync task status: %w", err)
	}
	return nil
}

func (db *DB) querySyncTasks(ctx context.Context, query string, args ...interface{}) ([]models.SyncTask, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		var payload sql.NullString
		if err := rows.Scan(&t.ID, &t.TaskType, &t.AppointmentID, &payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		if payload.Valid && payload.String != "" {
			var a models.Appointment
			if err := json.Unmarshal([]byte(payload.String), &a); err == nil {
				t.Appointment = &a
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
