package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autoshop/internal/database"
	"autoshop/internal/domain"
	"autoshop/internal/metrics"
	"autoshop/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskAppend       = "append"
	TaskUpdateStatus = "update_status"
)

// TaskStore persists sync tasks so nothing is lost when redis and the
// in-memory queue are both unavailable.
type TaskStore interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// SheetsWorker mirrors appointments into the bookings spreadsheet.
type SheetsWorker struct {
	store         TaskStore
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewSheetsWorker(store TaskStore, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	return &SheetsWorker{
		store:         store,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueTask persists the task and schedules it via redis, falling back to
// the in-memory queue and finally to database polling.
func (w *SheetsWorker) EnqueueTask(ctx context.Context, taskType string, appointment *models.Appointment) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if appointment == nil || appointment.ID == "" {
		return errors.New("appointment id is required")
	}

	task := models.SyncTask{
		TaskType:      taskType,
		AppointmentID: appointment.ID,
		Appointment:   appointment,
		Status:        database.SyncStatusPending,
	}
	if err := w.store.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, &task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("Redis push failed, using memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("Memory queue full, task left to polling")
	}
	return nil
}

// Start runs until ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Sheets worker started")
	defer w.logger.Info().Msg("Sheets worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.store.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to fetch pending sync tasks")
		}
		if len(tasks) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
			continue
		}
		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("Redis BRPOP failed")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *models.SyncTask) {
	err := w.handle(ctx, task)
	metrics.IncSyncTask(task.TaskType, err)
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, database.SyncStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task completed")
	}
}

func (w *SheetsWorker) handle(ctx context.Context, task *models.SyncTask) error {
	if task.Appointment == nil {
		return errors.New("appointment payload missing")
	}
	switch task.TaskType {
	case TaskAppend:
		return w.sheets.AppendAppointment(ctx, task.Appointment)
	case TaskUpdateStatus:
		return w.sheets.UpdateAppointmentStatus(ctx, task.AppointmentID, task.Appointment.Status)
	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	log := w.logger.With().Int64("task_id", task.ID).Str("appointment_id", task.AppointmentID).Int("attempt", attempt).Logger()

	if w.retryPolicy.Exhausted(attempt) {
		log.Error().Err(cause).Msg("Sync task failed permanently")
		if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, database.SyncStatusFailed, cause.Error(), nil); err != nil {
			log.Error().Err(err).Msg("Failed to mark task failed")
		}
		if w.redis != nil {
			if err := w.pushRedis(ctx, w.deadLetterKey, task); err != nil {
				log.Error().Err(err).Msg("Dead letter push failed")
			}
		}
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	log.Warn().Err(cause).Time("next_retry_at", next).Msg("Sync task will be retried")
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, database.SyncStatusRetry, cause.Error(), &next); err != nil {
		log.Error().Err(err).Msg("Failed to mark task for retry")
	}
}

func (w *SheetsWorker) pushRedis(ctx context.Context, key string, task *models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
