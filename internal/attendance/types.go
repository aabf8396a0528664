package attendance

import (
	"fmt"
	"time"
)

// SubjectID - идентификатор сотрудника (совпадает с users.id)
type SubjectID uint

// Action - тип события в журнале действий
type Action int

const (
	ActionLogin Action = iota + 1
	ActionLogout
	ActionBreakStarted
	ActionBreakEnded
)

var actionNames = map[Action]string{
	ActionLogin:        "login",
	ActionLogout:       "logout",
	ActionBreakStarted: "break_started",
	ActionBreakEnded:   "break_ended",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction переводит строковое значение из журнала в Action
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Event - неизменяемый факт из журнала действий
type Event struct {
	Subject SubjectID
	Action  Action
	At      time.Time
}

// LeaveInterval - одобренный отпуск/больничный/отгул, обе границы включены
type LeaveInterval struct {
	Subject SubjectID
	From    Date
	To      Date
}

func (l LeaveInterval) Contains(d Date) bool {
	return !d.Before(l.From) && !d.After(l.To)
}

// BreakInterval - закрытый перерыв внутри сессии
type BreakInterval struct {
	Start time.Time
	End   time.Time
}

func (b BreakInterval) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

type SessionState int

const (
	// SessionClosed - вход и выход зафиксированы
	SessionClosed SessionState = iota
	// SessionPartial - выхода не было, сессия обрезана началом незакрытого перерыва
	SessionPartial
	// SessionOpen - выхода не было, сотрудник все еще на работе
	SessionOpen
)

// WorkSession - восстановленная сессия от входа до выхода.
// LogoutAt == nil только у SessionOpen.
type WorkSession struct {
	Subject  SubjectID
	LoginAt  time.Time
	LogoutAt *time.Time
	Breaks   []BreakInterval
	Net      time.Duration
	State    SessionState
}

func (s WorkSession) IsOpen() bool {
	return s.State == SessionOpen
}

// BreakTotal - суммарная длительность закрытых перерывов
func (s WorkSession) BreakTotal() time.Duration {
	var total time.Duration
	for _, b := range s.Breaks {
		total += b.Duration()
	}
	return total
}

// DayStatus - статус сотрудника за день, ровно один на день
type DayStatus int

const (
	StatusAbsent DayStatus = iota
	StatusPresent
	StatusOnLeave
	StatusHoliday
)

func (s DayStatus) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusOnLeave:
		return "on_leave"
	case StatusHoliday:
		return "holiday"
	default:
		return "absent"
	}
}

// DayRecord - строка отчета: один сотрудник, один день
type DayRecord struct {
	Subject    SubjectID
	Date       Date
	Status     DayStatus
	LoginTime  *time.Time
	LogoutTime *time.Time
	Net        time.Duration
	// StillOpen - последняя сессия дня не закрыта выходом
	StillOpen bool
}

// DailySnapshot - срез по многим сотрудникам за один день
type DailySnapshot = DayRecord

// TallyRow - сводка по организации за день
type TallyRow struct {
	Date    Date
	Present int
	Leave   int
	Absent  int
	Holiday int
	Total   int
}

// Input - данные, полученные от хранилища для одного вызова отчета
type Input struct {
	Events   []Event
	Leaves   []LeaveInterval
	Holidays []Date
}
