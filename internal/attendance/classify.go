package attendance

import "time"

// Classify определяет статус сотрудника за день.
// Приоритет: присутствие > отпуск > праздник > отсутствие.
// Сотрудник, отработавший в праздник или в отпуске, считается присутствующим.
func Classify(
	subject SubjectID,
	date Date,
	sessions []WorkSession,
	leaves []LeaveInterval,
	isHoliday bool,
	loc *time.Location,
) DayStatus {
	if touchesDate(sessions, date, loc) {
		return StatusPresent
	}
	if onLeave(subject, date, leaves) {
		return StatusOnLeave
	}
	if isHoliday {
		return StatusHoliday
	}
	return StatusAbsent
}

func touchesDate(sessions []WorkSession, date Date, loc *time.Location) bool {
	for _, s := range sessions {
		if DateOf(s.LoginAt, loc) == date {
			return true
		}
		if s.State == SessionClosed && DateOf(*s.LogoutAt, loc) == date {
			return true
		}
	}
	return false
}

func onLeave(subject SubjectID, date Date, leaves []LeaveInterval) bool {
	for _, l := range leaves {
		if l.Subject == subject && l.Contains(date) {
			return true
		}
	}
	return false
}

// bucketByDay раскладывает события одного сотрудника по календарным дням.
// Вход открывает корзину своего дня; остальные события попадают в корзину
// последнего входа, пока они в тот же или следующий день (сессия через полночь
// целиком относится ко дню входа), иначе - в корзину своего дня.
func bucketByDay(events []Event, loc *time.Location) map[Date][]Event {
	buckets := make(map[Date][]Event)

	var (
		loginDay Date
		hasLogin bool
	)
	for _, ev := range sortEvents(events) {
		day := DateOf(ev.At, loc)

		if ev.Action == ActionLogin {
			loginDay, hasLogin = day, true
			buckets[day] = append(buckets[day], ev)
			continue
		}

		if hasLogin && (day == loginDay || day == loginDay.AddDays(1)) {
			buckets[loginDay] = append(buckets[loginDay], ev)
			continue
		}

		hasLogin = false
		buckets[day] = append(buckets[day], ev)
	}

	return buckets
}
