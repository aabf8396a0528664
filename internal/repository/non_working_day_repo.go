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

type NonWorkingDayRepository interface {
	Create(day *models.NonWorkingDay) error
	GetByDate(date time.Time) (*models.NonWorkingDay, error)
	GetByYearMonth(year, month int) ([]models.NonWorkingDay, error)
	// GetBetween - праздники в интервале [from, to], границы включены
	GetBetween(ctx context.Context, from, to time.Time) ([]models.NonWorkingDay, error)
	GetAll() ([]models.NonWorkingDay, error)
	BulkCreate(days []models.NonWorkingDay) error
	DeleteAll() error
	IsNonWorkingDay(date time.Time) (bool, error)
}

type GormNonWorkingDayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormNonWorkingDayRepository(db *gorm.DB, logger *logrus.Logger) (*GormNonWorkingDayRepository, error) {
	// Автомиграция для таблицы non_working_days
	if err := db.AutoMigrate(&models.NonWorkingDay{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate non_working_days table")
		return nil, err
	}

	return &GormNonWorkingDayRepository{db: db, logger: logger}, nil
}

func (r *GormNonWorkingDayRepository) Create(day *models.NonWorkingDay) error {
	day.Date = calendarDay(day.Date)
	exists, err := r.IsNonWorkingDay(day.Date)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	if err := r.db.Create(day).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create non-working day")
		return err
	}

	r.logger.WithField("date", day.Date.Format("2006-01-02")).Info("Non-working day created")
	return nil
}

// BulkCreate пропускает даты, которые уже есть в календаре
func (r *GormNonWorkingDayRepository) BulkCreate(days []models.NonWorkingDay) error {
	if len(days) == 0 {
		return nil
	}
	for i := range days {
		days[i].Date = calendarDay(days[i].Date)
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&days).Error
}

func (r *GormNonWorkingDayRepository) GetByDate(date time.Time) (*models.NonWorkingDay, error) {
	var day models.NonWorkingDay
	err := r.db.Where("date = ?", calendarDay(date)).First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (r *GormNonWorkingDayRepository) GetByYearMonth(year, month int) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.Where("year = ? AND month = ?", year, month).Order("date ASC").Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) GetBetween(ctx context.Context, from, to time.Time) ([]models.NonWorkingDay, error) {
	days := []models.NonWorkingDay{}
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", calendarDay(from), calendarDay(to)).
		Order("date ASC").
		Find(&days).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to get non-working days")
		return nil, err
	}
	return days, nil
}

func (r *GormNonWorkingDayRepository) GetAll() ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.Order("date ASC").Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) DeleteAll() error {
	return r.db.Exec("DELETE FROM non_working_days").Error
}

func (r *GormNonWorkingDayRepository) IsNonWorkingDay(date time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.NonWorkingDay{}).
		Where("date = ?", calendarDay(date)).
		Count(&count).Error
	return count > 0, err
}

// calendarDay приводит момент к полуночи UTC того же календарного дня.
// Так хранятся все даты календаря.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
