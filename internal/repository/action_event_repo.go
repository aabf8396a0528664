package repository

import (
	"context"
	"errors"
	"time"

	"attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionEventRepository - журнал действий сотрудников
type ActionEventRepository interface {
	// Create сохраняет событие. Повторная доставка того же EventID ничего не меняет,
	// в этом случае возвращается false.
	Create(ctx context.Context, event *models.ActionEvent) (bool, error)
	GetBySubjectsBetween(ctx context.Context, userIDs []uint, from, to time.Time) ([]models.ActionEvent, error)
	GetLastBySubject(ctx context.Context, userID uint) (*models.ActionEvent, error)
	DeleteByUserID(userID uint) error
}

type GormActionEventRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormActionEventRepository(db *gorm.DB, logger *logrus.Logger) (*GormActionEventRepository, error) {
	// Автомиграция
	if err := db.AutoMigrate(&models.ActionEvent{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate action_events table")
		return nil, err
	}

	logger.Info("Action event repository initialized")

	return &GormActionEventRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormActionEventRepository) Create(ctx context.Context, event *models.ActionEvent) (bool, error) {
	if !event.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"user_id":  event.UserID,
			"event_id": event.EventID,
			"action":   event.Action,
		}).Warn("Invalid action event data")
		return false, ErrInvalidData
	}

	event.OccurredAt = event.OccurredAt.UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create action event")
		return false, result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("event_id", event.EventID).Debug("Duplicate action event ignored")
		return false, nil
	}

	r.logger.WithFields(logrus.Fields{
		"id":          event.ID,
		"user_id":     event.UserID,
		"action":      event.Action,
		"occurred_at": event.OccurredAt.Format(time.RFC3339),
	}).Info("Action event recorded")

	return true, nil
}

// GetBySubjectsBetween возвращает события в полуинтервале [from, to),
// упорядоченные по времени, при равенстве - по порядку записи
func (r *GormActionEventRepository) GetBySubjectsBetween(ctx context.Context, userIDs []uint, from, to time.Time) ([]models.ActionEvent, error) {
	events := []models.ActionEvent{}
	if len(userIDs) == 0 {
		return events, nil
	}

	result := r.db.WithContext(ctx).
		Where("user_id IN ? AND occurred_at >= ? AND occurred_at < ?", userIDs, from.UTC(), to.UTC()).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&events)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get action events")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"subjects": len(userIDs),
		"from":     from.Format(time.RFC3339),
		"to":       to.Format(time.RFC3339),
		"count":    len(events),
	}).Debug("Retrieved action events")

	return events, nil
}

func (r *GormActionEventRepository) GetLastBySubject(ctx context.Context, userID uint) (*models.ActionEvent, error) {
	var event models.ActionEvent
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Order("id DESC").
		First(&event)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("No action events found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get last action event")
		return nil, result.Error
	}

	return &event, nil
}

func (r *GormActionEventRepository) DeleteByUserID(userID uint) error {
	r.logger.WithField("user_id", userID).Info("Deleting all action events for user")

	result := r.db.Where("user_id = ?", userID).Delete(&models.ActionEvent{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete user action events")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"rows_affected": result.RowsAffected,
	}).Info("User action events deleted successfully")

	return nil
}
