package attendance

import (
	"sort"
	"time"
)

// Состояния автомата восстановления сессий
type fsmState int

const (
	noSession fsmState = iota
	sessionOpen
	breakOpen
)

// sessionMachine создается заново на каждый вызов Reconstruct
type sessionMachine struct {
	state    fsmState
	subject  SubjectID
	loginAt  time.Time
	breakAt  time.Time
	breaks   []BreakInterval
	sessions []WorkSession
}

// Reconstruct восстанавливает рабочие сессии одного сотрудника из журнала событий.
// Невозможные переходы (выход без входа, перерыв вне сессии и т.п.) игнорируются.
func Reconstruct(events []Event) []WorkSession {
	sorted := sortEvents(events)

	m := &sessionMachine{}
	for _, ev := range sorted {
		m.step(ev)
	}
	m.finish()

	return m.sessions
}

// sortEvents возвращает копию, отсортированную по времени; при равенстве
// сохраняется исходный порядок (порядок вставки)
func sortEvents(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})
	return sorted
}

func (m *sessionMachine) step(ev Event) {
	switch ev.Action {
	case ActionLogin:
		// незакрытая сессия отбрасывается
		m.begin(ev)
	case ActionBreakStarted:
		if m.state == sessionOpen {
			m.breakAt = ev.At
			m.state = breakOpen
		}
	case ActionBreakEnded:
		if m.state == breakOpen {
			m.closeBreak(ev.At)
		}
	case ActionLogout:
		switch m.state {
		case breakOpen:
			m.closeBreak(ev.At)
			m.emit(ev.At, SessionClosed)
		case sessionOpen:
			m.emit(ev.At, SessionClosed)
		}
	}
}

func (m *sessionMachine) begin(ev Event) {
	m.state = sessionOpen
	m.subject = ev.Subject
	m.loginAt = ev.At
	m.breakAt = time.Time{}
	m.breaks = nil
}

func (m *sessionMachine) closeBreak(at time.Time) {
	m.breaks = append(m.breaks, BreakInterval{Start: m.breakAt, End: at})
	m.breakAt = time.Time{}
	m.state = sessionOpen
}

func (m *sessionMachine) emit(end time.Time, state SessionState) {
	session := WorkSession{
		Subject: m.subject,
		LoginAt: m.loginAt,
		Breaks:  m.breaks,
		State:   state,
	}
	if state != SessionOpen {
		logoutAt := end
		session.LogoutAt = &logoutAt
		session.Net = netDuration(m.loginAt, end, m.breaks)
	}
	m.sessions = append(m.sessions, session)

	m.state = noSession
	m.breaks = nil
	m.breakAt = time.Time{}
}

// finish обрабатывает сессию, оставшуюся открытой в конце журнала
func (m *sessionMachine) finish() {
	switch m.state {
	case breakOpen:
		// считаем, что работа закончилась в момент начала перерыва
		m.emit(m.breakAt, SessionPartial)
	case sessionOpen:
		m.emit(time.Time{}, SessionOpen)
	}
}

func netDuration(from, to time.Time, breaks []BreakInterval) time.Duration {
	net := to.Sub(from)
	for _, b := range breaks {
		net -= b.Duration()
	}
	if net < 0 {
		return 0
	}
	return net
}
