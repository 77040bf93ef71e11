package service

import (
	"context"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

// FilterUnread limits the alert list to unread alerts.
const FilterUnread = "unread"

type AlertList struct {
	Alerts []*models.Alert `json:"alerts"`
	Unread int             `json:"unread"`
}

type AlertService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAlertService(repo domain.Repository, logger *zerolog.Logger) *AlertService {
	return &AlertService{repo: repo, logger: logger}
}

func (s *AlertService) List(ctx context.Context, userID, filter string) (*AlertList, error) {
	alerts, err := s.repo.GetAlertsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	list := &AlertList{Alerts: make([]*models.Alert, 0, len(alerts))}
	for _, a := range alerts {
		if !a.Read {
			list.Unread++
		}
		if filter == FilterUnread && a.Read {
			continue
		}
		list.Alerts = append(list.Alerts, a)
	}
	return list, nil
}

func (s *AlertService) UnreadCount(ctx context.Context, userID string) (int, error) {
	list, err := s.List(ctx, userID, FilterUnread)
	if err != nil {
		return 0, err
	}
	return list.Unread, nil
}

func (s *AlertService) MarkRead(ctx context.Context, userID, alertID string) error {
	if err := s.repo.MarkAlertRead(ctx, userID, alertID); err != nil {
		return err
	}
	s.logger.Debug().Str("user_id", userID).Str("alert_id", alertID).Msg("Alert marked read")
	return nil
}

func (s *AlertService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAlertsRead(ctx, userID)
}
