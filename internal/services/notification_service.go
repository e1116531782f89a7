package services

import (
	"context"

	"github.com/siampay/installment-api/internal/events"
	"github.com/siampay/installment-api/internal/jobs"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/pkg/logger"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	worker   *jobs.Worker
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, worker *jobs.Worker) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, worker: worker}
}

func (s *NotificationService) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	notification.MarkAsRead()
	return s.repo.Update(ctx, notification)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notifType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}

func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notifType string) error {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		notification := &models.Notification{
			UserID:           admin.ID,
			Title:            title,
			Message:          message,
			NotificationType: &notifType,
		}
		s.repo.Create(ctx, notification)
	}
	return nil
}

// Publish implements events.Publisher. Events targeted at a specific
// actor notify that user; lifecycle events without a target notify all
// active admins. Delivery runs off the request path.
func (s *NotificationService) Publish(ctx context.Context, event events.Event) {
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		var err error
		if event.ActorID != 0 {
			err = s.NotifyUser(ctx, event.ActorID, event.Title, event.Message, event.Name)
		} else {
			err = s.NotifyAdmins(ctx, event.Title, event.Message, event.Name)
		}
		if err != nil {
			logger.Warn("event delivery failed", "event", event.Name, "entity_id", event.EntityID, "error", err)
		}
		return err
	})
}
