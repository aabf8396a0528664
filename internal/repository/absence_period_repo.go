// internal/repository/absence_period_repo.go
package repository

import (
	"context"
	"errors"
	"time"

	"attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AbsencePeriodRepository interface {
	Create(period *models.AbsencePeriod) error
	GetByID(id uint) (*models.AbsencePeriod, error)
	GetByUserID(userID uint) ([]models.AbsencePeriod, error)
	GetByStatus(status string) ([]models.AbsencePeriod, error)
	GetCurrentAbsence(userID uint, date time.Time) (*models.AbsencePeriod, error)
	// GetApprovedBetween - одобренные периоды сотрудников, пересекающие [from, to]
	GetApprovedBetween(ctx context.Context, userIDs []uint, from, to time.Time) ([]models.AbsencePeriod, error)
	CheckPeriodConflict(userID uint, startDate, endDate time.Time) (bool, error)
	UpdateStatus(id uint, status string, reviewerID uint) error
	Delete(id uint) error
	DeleteByUserID(userID uint) error
}

type GormAbsencePeriodRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAbsencePeriodRepository(db *gorm.DB, logger *logrus.Logger) (*GormAbsencePeriodRepository, error) {
	if err := db.AutoMigrate(&models.AbsencePeriod{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate absence_periods table")
		return nil, err
	}
	return &GormAbsencePeriodRepository{db: db, logger: logger}, nil
}

func (r *GormAbsencePeriodRepository) Create(period *models.AbsencePeriod) error {
	if period.Status == "" {
		period.Status = models.AbsenceStatusPending
	}
	period.StartDate = calendarDay(period.StartDate)
	period.EndDate = calendarDay(period.EndDate)
	if err := r.db.Omit("User").Create(period).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create absence period")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      period.ID,
		"user_id": period.UserID,
		"type":    period.Type,
		"status":  period.Status,
	}).Info("Absence period created")
	return nil
}

func (r *GormAbsencePeriodRepository) GetByID(id uint) (*models.AbsencePeriod, error) {
	var period models.AbsencePeriod
	err := r.db.Preload("User").First(&period, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *GormAbsencePeriodRepository) GetByUserID(userID uint) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&periods).Error
	return periods, err
}

func (r *GormAbsencePeriodRepository) GetByStatus(status string) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.Preload("User").
		Where("status = ?", status).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *GormAbsencePeriodRepository) GetCurrentAbsence(userID uint, date time.Time) (*models.AbsencePeriod, error) {
	var period models.AbsencePeriod
	err := r.db.Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
		userID, models.AbsenceStatusApproved, calendarDay(date), calendarDay(date)).
		First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *GormAbsencePeriodRepository) GetApprovedBetween(ctx context.Context, userIDs []uint, from, to time.Time) ([]models.AbsencePeriod, error) {
	periods := []models.AbsencePeriod{}
	if len(userIDs) == 0 {
		return periods, nil
	}

	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userIDs, models.AbsenceStatusApproved, calendarDay(to), calendarDay(from)).
		Order("start_date ASC").
		Find(&periods).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to get approved absence periods")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"subjects": len(userIDs),
		"count":    len(periods),
	}).Debug("Retrieved approved absence periods")
	return periods, nil
}

// CheckPeriodConflict ищет пересечение с действующими (не отклоненными) периодами
func (r *GormAbsencePeriodRepository) CheckPeriodConflict(userID uint, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.AbsencePeriod{}).
		Where("user_id = ? AND status <> ? AND start_date <= ? AND end_date >= ?",
			userID, models.AbsenceStatusRejected, calendarDay(endDate), calendarDay(startDate)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormAbsencePeriodRepository) UpdateStatus(id uint, status string, reviewerID uint) error {
	result := r.db.Model(&models.AbsencePeriod{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
		})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update absence period status")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"id":          id,
		"status":      status,
		"reviewed_by": reviewerID,
	}).Info("Absence period status updated")
	return nil
}

func (r *GormAbsencePeriodRepository) Delete(id uint) error {
	return r.db.Delete(&models.AbsencePeriod{}, id).Error
}

func (r *GormAbsencePeriodRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.AbsencePeriod{}).Error
}
