// internal/service/absence_service.go
package service

import (
	"errors"
	"fmt"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

var ErrAbsenceReviewed = errors.New("заявка уже рассмотрена")

type AbsenceService struct {
	absenceRepo repository.AbsencePeriodRepository
	userRepo    repository.UserRepository
	loc         *time.Location
	now         func() time.Time
	logger      *logrus.Logger
}

func NewAbsenceService(
	absenceRepo repository.AbsencePeriodRepository,
	userRepo repository.UserRepository,
	loc *time.Location,
	logger *logrus.Logger,
) *AbsenceService {
	return &AbsenceService{
		absenceRepo: absenceRepo,
		userRepo:    userRepo,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
}

// AddVacation добавляет отпуск (только будущие даты), заявка ждет одобрения
func (s *AbsenceService) AddVacation(userID uint, from, to attendance.Date) (*models.AbsencePeriod, error) {
	today := attendance.DateOf(s.now(), s.loc)
	if from.Before(today) {
		return nil, fmt.Errorf("отпуск можно добавить только на будущие даты")
	}

	return s.addAbsencePeriod(userID, from, to, models.AbsenceTypeVacation, models.AbsenceStatusPending)
}

// AddSickLeave добавляет больничный (можно на прошедшие дни), одобряется сразу
func (s *AbsenceService) AddSickLeave(userID uint, from, to attendance.Date) (*models.AbsencePeriod, error) {
	return s.addAbsencePeriod(userID, from, to, models.AbsenceTypeSickLeave, models.AbsenceStatusApproved)
}

// AddDayOff добавляет отгул (один день)
func (s *AbsenceService) AddDayOff(userID uint, date attendance.Date) (*models.AbsencePeriod, error) {
	return s.addAbsencePeriod(userID, date, date, models.AbsenceTypeDayOff, models.AbsenceStatusPending)
}

// addAbsencePeriod общий метод добавления периода отсутствия
func (s *AbsenceService) addAbsencePeriod(
	userID uint,
	from, to attendance.Date,
	absenceType string,
	status string,
) (*models.AbsencePeriod, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("дата окончания не может быть раньше даты начала")
	}

	startDate := from.Start(time.UTC)
	endDate := to.Start(time.UTC)

	// Проверяем пересечения с существующими периодами
	conflicts, err := s.absenceRepo.CheckPeriodConflict(userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки конфликтов: %w", err)
	}
	if conflicts {
		return nil, fmt.Errorf("период пересекается с существующим отпуском/больничным/отгулом")
	}

	period := &models.AbsencePeriod{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
		Type:      absenceType,
		Status:    status,
	}

	if err := s.absenceRepo.Create(period); err != nil {
		return nil, fmt.Errorf("ошибка создания периода: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":      period.ID,
		"user_id": userID,
		"type":    absenceType,
		"status":  status,
		"from":    from.String(),
		"to":      to.String(),
	}).Info("Absence period added")
	return period, nil
}

// Approve одобряет заявку; только для администраторов
func (s *AbsenceService) Approve(adminChatID int64, periodID uint) (*models.AbsencePeriod, error) {
	return s.review(adminChatID, periodID, models.AbsenceStatusApproved)
}

// Reject отклоняет заявку; только для администраторов
func (s *AbsenceService) Reject(adminChatID int64, periodID uint) (*models.AbsencePeriod, error) {
	return s.review(adminChatID, periodID, models.AbsenceStatusRejected)
}

func (s *AbsenceService) review(adminChatID int64, periodID uint, status string) (*models.AbsencePeriod, error) {
	admin, err := s.userRepo.GetByChatID(adminChatID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsAdmin() {
		return nil, ErrAccessDenied
	}

	period, err := s.absenceRepo.GetByID(periodID)
	if err != nil {
		return nil, err
	}
	if period.Status != models.AbsenceStatusPending {
		return nil, ErrAbsenceReviewed
	}

	if err := s.absenceRepo.UpdateStatus(periodID, status, admin.ID); err != nil {
		return nil, err
	}
	period.Status = status
	period.ReviewedBy = &admin.ID

	return period, nil
}

// GetPending - заявки, ожидающие решения
func (s *AbsenceService) GetPending() ([]models.AbsencePeriod, error) {
	return s.absenceRepo.GetByStatus(models.AbsenceStatusPending)
}

// GetUserAbsences возвращает все периоды отсутствия пользователя
func (s *AbsenceService) GetUserAbsences(userID uint) ([]models.AbsencePeriod, error) {
	return s.absenceRepo.GetByUserID(userID)
}

// GetCurrentAbsence возвращает текущий одобренный период отсутствия пользователя
func (s *AbsenceService) GetCurrentAbsence(userID uint) (*models.AbsencePeriod, error) {
	return s.absenceRepo.GetCurrentAbsence(userID, attendance.DateOf(s.now(), s.loc).Start(time.UTC))
}

// DeleteAbsence удаляет свой период отсутствия
func (s *AbsenceService) DeleteAbsence(userID, periodID uint) error {
	period, err := s.absenceRepo.GetByID(periodID)
	if err != nil {
		return err
	}
	if period.UserID != userID {
		return ErrAccessDenied
	}

	if err := s.absenceRepo.Delete(periodID); err != nil {
		return err
	}

	s.logger.WithField("id", periodID).Info("Absence period deleted")
	return nil
}
