package attendance

import (
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Engine собирает отчеты посещаемости. Состояния между вызовами не хранит,
// поэтому один Engine можно использовать из разных горутин.
type Engine struct {
	loc     *time.Location
	workers int
}

type Option func(*Engine)

// WithLocation задает часовой пояс организации (границы календарного дня)
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithWorkers ограничивает число сотрудников, обрабатываемых параллельно
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		loc:     time.Local,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// MonthlyReport - помесячный отчет по одному сотруднику, по строке на каждый день месяца
func (e *Engine) MonthlyReport(subject SubjectID, ym YearMonth, in Input) ([]DayRecord, error) {
	if !ym.Valid() {
		return nil, ErrInvalidMonth
	}
	return e.RangeReport(subject, ym.First(), ym.Last(), in)
}

// RangeReport - отчет по одному сотруднику за произвольный период (границы включены)
func (e *Engine) RangeReport(subject SubjectID, from, to Date, in Input) ([]DayRecord, error) {
	if subject == 0 {
		return nil, ErrEmptySubject
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	days := e.subjectDays(subject, in.Events)
	holidays := NewHolidaySet(in.Holidays)
	leaves := leavesOf(subject, in.Leaves)

	dates := daysBetween(from, to)
	records := make([]DayRecord, 0, len(dates))
	for _, date := range dates {
		records = append(records, e.dayRecord(subject, date, days[date], leaves, holidays.Contains(date)))
	}
	return records, nil
}

// DailyReport - срез за один день по списку сотрудников (порядок строк как в subjects)
func (e *Engine) DailyReport(subjects []SubjectID, date Date, in Input) ([]DailySnapshot, error) {
	snapshots := make([]DailySnapshot, len(subjects))
	if len(subjects) == 0 {
		return snapshots, nil
	}

	events := eventsBySubject(subjects, in.Events)
	leaves := leavesBySubject(subjects, in.Leaves)
	isHoliday := NewHolidaySet(in.Holidays).Contains(date)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, subject := range subjects {
		i, subject := i, subject
		g.Go(func() error {
			if subject == 0 {
				return ErrEmptySubject
			}
			days := e.subjectDays(subject, events[subject])
			snapshots[i] = e.dayRecord(subject, date, days[date], leaves[subject], isHoliday)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// MonthlyTally - сводка по организации за месяц, по строке на каждый день.
// В праздник Holiday равен общему числу сотрудников независимо от того, кто работал.
func (e *Engine) MonthlyTally(subjects []SubjectID, ym YearMonth, in Input) ([]TallyRow, error) {
	if !ym.Valid() {
		return nil, ErrInvalidMonth
	}
	if len(subjects) == 0 {
		return []TallyRow{}, nil
	}

	dates := ym.Days()
	holidays := NewHolidaySet(in.Holidays)
	events := eventsBySubject(subjects, in.Events)
	leaves := leavesBySubject(subjects, in.Leaves)

	// statuses[i][d] - статус сотрудника i в день d
	statuses := make([][]DayStatus, len(subjects))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, subject := range subjects {
		i, subject := i, subject
		g.Go(func() error {
			if subject == 0 {
				return ErrEmptySubject
			}
			days := e.subjectDays(subject, events[subject])
			row := make([]DayStatus, len(dates))
			for d, date := range dates {
				row[d] = Classify(subject, date, days[date], leaves[subject], holidays.Contains(date), e.loc)
			}
			statuses[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]TallyRow, len(dates))
	for d, date := range dates {
		row := TallyRow{Date: date, Total: len(subjects)}
		for i := range subjects {
			switch statuses[i][d] {
			case StatusPresent:
				row.Present++
			case StatusOnLeave:
				row.Leave++
			case StatusAbsent:
				row.Absent++
			}
		}
		if holidays.Contains(date) {
			row.Holiday = row.Total
		}
		rows[d] = row
	}
	return rows, nil
}

// subjectDays восстанавливает сессии сотрудника, сгруппированные по дню входа
func (e *Engine) subjectDays(subject SubjectID, events []Event) map[Date][]WorkSession {
	own := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Subject == subject {
			own = append(own, ev)
		}
	}

	days := make(map[Date][]WorkSession)
	for day, bucket := range bucketByDay(own, e.loc) {
		if sessions := Reconstruct(bucket); len(sessions) > 0 {
			days[day] = sessions
		}
	}
	return days
}

func (e *Engine) dayRecord(subject SubjectID, date Date, sessions []WorkSession, leaves []LeaveInterval, isHoliday bool) DayRecord {
	record := DayRecord{
		Subject: subject,
		Date:    date,
		Status:  Classify(subject, date, sessions, leaves, isHoliday, e.loc),
	}

	for _, s := range sessions {
		if record.LoginTime == nil {
			loginAt := s.LoginAt
			record.LoginTime = &loginAt
		}
		if s.State == SessionClosed {
			logoutAt := *s.LogoutAt
			record.LogoutTime = &logoutAt
		}
		record.Net += s.Net
	}
	if n := len(sessions); n > 0 {
		record.StillOpen = sessions[n-1].IsOpen()
	}

	return record
}

func eventsBySubject(subjects []SubjectID, events []Event) map[SubjectID][]Event {
	wanted := subjectSet(subjects)
	grouped := make(map[SubjectID][]Event, len(wanted))
	for _, ev := range events {
		if _, ok := wanted[ev.Subject]; ok {
			grouped[ev.Subject] = append(grouped[ev.Subject], ev)
		}
	}
	return grouped
}

func leavesBySubject(subjects []SubjectID, leaves []LeaveInterval) map[SubjectID][]LeaveInterval {
	wanted := subjectSet(subjects)
	grouped := make(map[SubjectID][]LeaveInterval, len(wanted))
	for _, l := range leaves {
		if _, ok := wanted[l.Subject]; ok {
			grouped[l.Subject] = append(grouped[l.Subject], l)
		}
	}
	return grouped
}

func leavesOf(subject SubjectID, leaves []LeaveInterval) []LeaveInterval {
	return leavesBySubject([]SubjectID{subject}, leaves)[subject]
}

func subjectSet(subjects []SubjectID) map[SubjectID]struct{} {
	set := make(map[SubjectID]struct{}, len(subjects))
	for _, s := range subjects {
		set[s] = struct{}{}
	}
	return set
}
