package service

import (
	"context"
	"fmt"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/pkg/weekends"

	"github.com/sirupsen/logrus"
)

type NonWorkingDayService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewNonWorkingDayService(repo repository.NonWorkingDayRepository, logger *logrus.Logger) *NonWorkingDayService {
	return &NonWorkingDayService{repo: repo, logger: logger}
}

// LoadFromJSON загружает выходные дни производственного календаря в базу.
// Уже известные даты пропускаются, добавленные вручную праздники сохраняются.
func (s *NonWorkingDayService) LoadFromJSON(filePath string) (int, error) {
	cal, err := weekends.ParseFile(filePath)
	if err != nil {
		return 0, err
	}

	days := make([]models.NonWorkingDay, 0, len(cal.NonWorking))
	for _, d := range cal.NonWorking {
		days = append(days, models.NewNonWorkingDay(attendance.NewDate(d.Year, d.Month, d.Day), ""))
	}

	if err := s.repo.BulkCreate(days); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"year":  cal.Year,
		"count": len(days),
	}).Info("Holiday calendar loaded")
	return len(days), nil
}

// AddDay добавляет праздник вручную
func (s *NonWorkingDayService) AddDay(date attendance.Date, title string) error {
	day := models.NewNonWorkingDay(date, title)
	if err := s.repo.Create(&day); err != nil {
		return fmt.Errorf("не удалось добавить %s: %w", date, err)
	}
	return nil
}

// ForRange - праздники в интервале, границы включены
func (s *NonWorkingDayService) ForRange(ctx context.Context, from, to attendance.Date) ([]attendance.Date, error) {
	days, err := s.repo.GetBetween(ctx, from.Start(time.UTC), to.Start(time.UTC))
	if err != nil {
		return nil, err
	}

	dates := make([]attendance.Date, len(days))
	for i := range days {
		dates[i] = days[i].CalendarDate()
	}
	return dates, nil
}

// IsNonWorkingDay проверяет, является ли дата выходным днем
func (s *NonWorkingDayService) IsNonWorkingDay(date attendance.Date) (bool, error) {
	return s.repo.IsNonWorkingDay(date.Start(time.UTC))
}

// CountNonWorkingDays возвращает количество выходных дней
func (s *NonWorkingDayService) CountNonWorkingDays() (int, error) {
	days, err := s.repo.GetAll()
	if err != nil {
		return 0, err
	}
	return len(days), nil
}

// ForMonth - праздничные дни месяца вместе с названиями
func (s *NonWorkingDayService) ForMonth(ctx context.Context, ym attendance.YearMonth) ([]models.NonWorkingDay, error) {
	if !ym.Valid() {
		return nil, attendance.ErrInvalidMonth
	}
	return s.repo.GetBetween(ctx, ym.First().Start(time.UTC), ym.Last().Start(time.UTC))
}
