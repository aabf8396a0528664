package attendance

import "time"

// PresenceState - текущее положение сотрудника по последним событиям
type PresenceState int

const (
	PresenceOff PresenceState = iota
	PresenceWorking
	PresenceOnBreak
)

func (s PresenceState) String() string {
	switch s {
	case PresenceWorking:
		return "working"
	case PresenceOnBreak:
		return "on_break"
	default:
		return "off"
	}
}

// Presence - срез открытой сессии на момент now
type Presence struct {
	State PresenceState
	// Since - вход для PresenceWorking, начало перерыва для PresenceOnBreak,
	// выход последней закрытой сессии для PresenceOff
	Since time.Time
	// LoginAt - вход текущей сессии (нулевой, если сессии нет)
	LoginAt time.Time
	// Worked - чистое время текущей (или последней закрытой) сессии на момент now
	Worked time.Duration
}

// CurrentPresence восстанавливает сессии одного сотрудника по событиям не позже now
// и описывает последнюю из них
func CurrentPresence(events []Event, now time.Time) Presence {
	past := make([]Event, 0, len(events))
	for _, ev := range events {
		if !ev.At.After(now) {
			past = append(past, ev)
		}
	}

	sessions := Reconstruct(past)
	if len(sessions) == 0 {
		return Presence{State: PresenceOff}
	}

	last := sessions[len(sessions)-1]
	switch last.State {
	case SessionOpen:
		worked := now.Sub(last.LoginAt) - last.BreakTotal()
		if worked < 0 {
			worked = 0
		}
		return Presence{State: PresenceWorking, Since: last.LoginAt, LoginAt: last.LoginAt, Worked: worked}
	case SessionPartial:
		return Presence{State: PresenceOnBreak, Since: *last.LogoutAt, LoginAt: last.LoginAt, Worked: last.Net}
	default:
		return Presence{State: PresenceOff, Since: *last.LogoutAt, LoginAt: last.LoginAt, Worked: last.Net}
	}
}

// Accepts сообщает, изменит ли действие состояние.
// Повторный вход при открытой сессии отклоняется, чтобы не потерять сессию.
func (p Presence) Accepts(a Action) bool {
	switch a {
	case ActionLogin:
		return p.State == PresenceOff
	case ActionLogout:
		return p.State == PresenceWorking || p.State == PresenceOnBreak
	case ActionBreakStarted:
		return p.State == PresenceWorking
	case ActionBreakEnded:
		return p.State == PresenceOnBreak
	default:
		return false
	}
}

// AcceptsAt - Accepts с учетом дня организации: вход разрешен и при сессии,
// начатой в предыдущий день. Такая сессия отбрасывается при восстановлении.
func (p Presence) AcceptsAt(a Action, at time.Time, loc *time.Location) bool {
	if p.Accepts(a) {
		return true
	}
	return a == ActionLogin && p.State != PresenceOff && !p.LoginAt.IsZero() &&
		DateOf(p.LoginAt, loc) != DateOf(at, loc)
}
