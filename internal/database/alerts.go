package database

import (
	"context"
	"fmt"

	"autoshop/internal/models"
)

// GetAlertsByUser returns newest first.
func (db *DB) GetAlertsByUser(ctx context.Context, userID string) ([]*models.Alert, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, user_id, type, title, message, date, read, action_url, action_label
        FROM alerts WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Message, &a.Date, &a.Read, &a.ActionURL, &a.ActionLabel); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead only touches alerts owned by userID.
func (db *DB) MarkAlertRead(ctx context.Context, userID, alertID string) error {
	res, err := db.ExecContext(ctx, `UPDATE alerts SET read = 1 WHERE id = ? AND user_id = ?`, alertID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) MarkAllAlertsRead(ctx context.Context, userID string) error {
	if _, err := db.ExecContext(ctx, `UPDATE alerts SET read = 1 WHERE user_id = ? AND read = 0`, userID); err != nil {
		return fmt.Errorf("failed to mark alerts read: %w", err)
	}
	return nil
}
