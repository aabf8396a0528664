package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrAccessDenied      = errors.New("доступ запрещен")
	ErrActionNotAllowed  = errors.New("действие недоступно в текущем состоянии")
	ErrCollaboratorFetch = errors.New("не удалось получить данные")
)

// presenceWindow - насколько далеко назад смотреть на открытую сессию
const presenceWindow = 48 * time.Hour

type AttendanceService struct {
	events       repository.ActionEventRepository
	absences     repository.AbsencePeriodRepository
	holidays     repository.NonWorkingDayRepository
	users        repository.UserRepository
	engine       *attendance.Engine
	queryTimeout time.Duration
	now          func() time.Time
	logger       *logrus.Logger
}

func NewAttendanceService(
	events repository.ActionEventRepository,
	absences repository.AbsencePeriodRepository,
	holidays repository.NonWorkingDayRepository,
	users repository.UserRepository,
	engine *attendance.Engine,
	queryTimeout time.Duration,
	logger *logrus.Logger,
) *AttendanceService {
	return &AttendanceService{
		events:       events,
		absences:     absences,
		holidays:     holidays,
		users:        users,
		engine:       engine,
		queryTimeout: queryTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// TodayStatus - текущее положение сотрудника и его строка за сегодня
type TodayStatus struct {
	Presence attendance.Presence
	Day      attendance.DayRecord
	// LastAction - последнее зафиксированное действие (nil, если действий не было)
	LastAction *attendance.Event
}

// MonthlyReport - помесячный отчет сотрудника с итогами
type MonthlyReport struct {
	User    *models.User
	Month   attendance.YearMonth
	Records []attendance.DayRecord
	Summary attendance.MonthSummary
}

// DailyRow - строка дневного среза
type DailyRow struct {
	User     *models.User
	Snapshot attendance.DailySnapshot
}

type DailyReport struct {
	Date attendance.Date
	Rows []DailyRow
}

// RecordAction фиксирует действие сотрудника и возвращает новое положение.
// Действие, которое не меняет состояние (выход без входа, повторный вход), отклоняется.
// Вход при незакрытой вчерашней сессии принимается, вчерашняя сессия отбрасывается.
func (s *AttendanceService) RecordAction(ctx context.Context, user *models.User, action attendance.Action, at time.Time) (attendance.Presence, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"action":  action.String(),
		"at":      at.Format(time.RFC3339),
	})

	recent, err := s.recentEvents(ctx, user.ID, at)
	if err != nil {
		logger.WithError(err).Error("Failed to load recent events")
		return attendance.Presence{}, err
	}

	presence := attendance.CurrentPresence(recent, at)
	if !presence.AcceptsAt(action, at, s.engine.Location()) {
		logger.WithField("state", presence.State.String()).Warn("Action rejected")
		return presence, fmt.Errorf("%w: %s", ErrActionNotAllowed, presence.State)
	}

	event := &models.ActionEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Action:     action.String(),
		OccurredAt: at,
		Source:     "telegram",
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if _, err := s.events.Create(fetchCtx, event); err != nil {
		logger.WithError(err).Error("Failed to record action")
		return presence, err
	}

	logger.Info("Action recorded")

	recent = append(recent, attendance.Event{Subject: user.Subject(), Action: action, At: at})
	return attendance.CurrentPresence(recent, at), nil
}

// Today возвращает положение сотрудника сейчас и его строку отчета за сегодня
func (s *AttendanceService) Today(ctx context.Context, user *models.User) (*TodayStatus, error) {
	now := s.now()
	today := attendance.DateOf(now, s.engine.Location())

	in, err := s.fetchInput(ctx, []uint{user.ID}, today, today)
	if err != nil {
		return nil, err
	}

	records, err := s.engine.RangeReport(user.Subject(), today, today, in)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentEvents(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	last, err := s.lastAction(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &TodayStatus{
		Presence:   attendance.CurrentPresence(recent, now),
		Day:        records[0],
		LastAction: last,
	}, nil
}

// MonthlyReport строит отчет target за месяц; viewer должен иметь к нему доступ
func (s *AttendanceService) MonthlyReport(ctx context.Context, viewer, target *models.User, ym attendance.YearMonth) (*MonthlyReport, error) {
	if !ym.Valid() {
		return nil, attendance.ErrInvalidMonth
	}
	if !canView(viewer, target) {
		return nil, ErrAccessDenied
	}

	in, err := s.fetchInput(ctx, []uint{target.ID}, ym.First(), ym.Last())
	if err != nil {
		return nil, err
	}

	records, err := s.engine.MonthlyReport(target.Subject(), ym, in)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"viewer_id": viewer.ID,
		"target_id": target.ID,
		"month":     ym.String(),
		"events":    len(in.Events),
	}).Debug("Monthly report built")

	return &MonthlyReport{
		User:    target,
		Month:   ym,
		Records: records,
		Summary: attendance.Summarize(records),
	}, nil
}

// DailyReport - срез за день по всем сотрудникам, которых видит viewer
func (s *AttendanceService) DailyReport(ctx context.Context, viewer *models.User, date attendance.Date) (*DailyReport, error) {
	users, err := s.resolveSubjects(viewer)
	if err != nil {
		return nil, err
	}

	ids := userIDs(users)
	in, err := s.fetchInput(ctx, ids, date, date)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.engine.DailyReport(subjects(users), date, in)
	if err != nil {
		return nil, err
	}

	report := &DailyReport{Date: date, Rows: make([]DailyRow, len(users))}
	for i, u := range users {
		report.Rows[i] = DailyRow{User: u, Snapshot: snapshots[i]}
	}
	return report, nil
}

// MonthlyTally - сводка по организации (или команде) за месяц
func (s *AttendanceService) MonthlyTally(ctx context.Context, viewer *models.User, ym attendance.YearMonth) ([]attendance.TallyRow, error) {
	if !ym.Valid() {
		return nil, attendance.ErrInvalidMonth
	}
	if viewer.Role == models.RoleClient {
		return nil, ErrAccessDenied
	}

	users, err := s.resolveSubjects(viewer)
	if err != nil {
		return nil, err
	}

	in, err := s.fetchInput(ctx, userIDs(users), ym.First(), ym.Last())
	if err != nil {
		return nil, err
	}

	return s.engine.MonthlyTally(subjects(users), ym, in)
}

// resolveSubjects: администратор видит всех, остальные - свою команду и себя
func (s *AttendanceService) resolveSubjects(viewer *models.User) ([]*models.User, error) {
	if viewer.IsAdmin() {
		return s.users.GetAll()
	}
	return s.users.GetTeam(viewer.ID)
}

func canView(viewer, target *models.User) bool {
	if viewer.IsAdmin() || viewer.ID == target.ID {
		return true
	}
	return target.ManagerID != nil && *target.ManagerID == viewer.ID
}

// fetchInput собирает данные для движка за [from, to].
// Окно событий расширено на день в обе стороны, чтобы сессии через полночь
// восстанавливались целиком.
func (s *AttendanceService) fetchInput(ctx context.Context, ids []uint, from, to attendance.Date) (attendance.Input, error) {
	loc := s.engine.Location()
	eventsFrom := from.AddDays(-1).Start(loc)
	eventsTo := to.AddDays(2).Start(loc)

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		rawEvents []models.ActionEvent
		periods   []models.AbsencePeriod
		days      []models.NonWorkingDay
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawEvents, err = s.events.GetBySubjectsBetween(gctx, ids, eventsFrom, eventsTo)
		return err
	})
	g.Go(func() error {
		var err error
		periods, err = s.absences.GetApprovedBetween(gctx, ids, from.Start(time.UTC), to.Start(time.UTC))
		return err
	})
	g.Go(func() error {
		var err error
		days, err = s.holidays.GetBetween(gctx, from.Start(time.UTC), to.Start(time.UTC))
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"subjects": len(ids),
			"from":     from.String(),
			"to":       to.String(),
		}).Error("Failed to fetch attendance data")
		return attendance.Input{}, fmt.Errorf("%w: %w", ErrCollaboratorFetch, err)
	}

	in := attendance.Input{
		Events:   make([]attendance.Event, 0, len(rawEvents)),
		Leaves:   make([]attendance.LeaveInterval, 0, len(periods)),
		Holidays: make([]attendance.Date, 0, len(days)),
	}
	for i := range rawEvents {
		ev, err := rawEvents[i].ToEvent()
		if err != nil {
			s.logger.WithError(err).WithField("event_id", rawEvents[i].EventID).Warn("Skipping malformed action event")
			continue
		}
		in.Events = append(in.Events, ev)
	}
	for i := range periods {
		in.Leaves = append(in.Leaves, periods[i].ToLeave())
	}
	for i := range days {
		in.Holidays = append(in.Holidays, days[i].CalendarDate())
	}
	return in, nil
}

func (s *AttendanceService) recentEvents(ctx context.Context, userID uint, at time.Time) ([]attendance.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	raw, err := s.events.GetBySubjectsBetween(ctx, []uint{userID}, at.Add(-presenceWindow), at.Add(time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollaboratorFetch, err)
	}

	events := make([]attendance.Event, 0, len(raw))
	for i := range raw {
		ev, err := raw[i].ToEvent()
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *AttendanceService) lastAction(ctx context.Context, userID uint) (*attendance.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	raw, err := s.events.GetLastBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollaboratorFetch, err)
	}
	if raw == nil {
		return nil, nil
	}

	ev, err := raw.ToEvent()
	if err != nil {
		s.logger.WithError(err).WithField("event_id", raw.EventID).Warn("Skipping malformed action event")
		return nil, nil
	}
	return &ev, nil
}

func userIDs(users []*models.User) []uint {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func subjects(users []*models.User) []attendance.SubjectID {
	ids := make([]attendance.SubjectID, len(users))
	for i, u := range users {
		ids[i] = u.Subject()
	}
	return ids
}
