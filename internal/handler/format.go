package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/service"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var weekdayNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

var dateFormats = []string{
	"02.01.2006",
	"02-01-2006",
	"2006-01-02",
}

// parseDate парсит дату из строки. Без года (ДД.ММ) берется год today.
func parseDate(s string, today attendance.Date) (attendance.Date, error) {
	s = strings.TrimSpace(s)

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return attendance.DateOf(t, time.UTC), nil
		}
	}

	for _, format := range []string{"02.01", "02-01"} {
		if t, err := time.Parse(format, s); err == nil {
			d := attendance.NewDate(today.Year, t.Month(), t.Day())
			// 29.02 в невисокосный год
			if d.Day != t.Day() {
				break
			}
			return d, nil
		}
	}

	return attendance.Date{}, fmt.Errorf("неверный формат даты %q. Используйте ДД.ММ.ГГГГ или ДД.ММ", s)
}

// parseMonth парсит месяц: пусто - текущий, ГГГГ-ММ, ММ.ГГГГ или номер месяца текущего года
func parseMonth(s string, today attendance.Date) (attendance.YearMonth, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return attendance.YearMonthOf(today), nil
	}

	if ym, err := attendance.ParseYearMonth(s); err == nil {
		return ym, nil
	}
	if t, err := time.Parse("01.2006", s); err == nil {
		return attendance.YearMonth{Year: t.Year(), Month: t.Month()}, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return attendance.YearMonth{Year: today.Year, Month: time.Month(n)}, nil
	}

	return attendance.YearMonth{}, fmt.Errorf("неверный формат месяца %q. Используйте ГГГГ-ММ, ММ.ГГГГ или номер месяца", s)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%dч %02dм", minutes/60, minutes%60)
}

func formatClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "--:--"
	}
	return t.In(loc).Format("15:04")
}

func formatDate(d attendance.Date) string {
	return fmt.Sprintf("%02d.%02d.%d", d.Day, int(d.Month), d.Year)
}

func formatShortDate(d attendance.Date) string {
	return fmt.Sprintf("%02d.%02d %s", d.Day, int(d.Month), weekdayNames[d.Weekday()])
}

func formatMonth(ym attendance.YearMonth) string {
	if !ym.Valid() {
		return ym.String()
	}
	return fmt.Sprintf("%s %d", monthNames[ym.Month-1], ym.Year)
}

func statusEmoji(s attendance.DayStatus) string {
	switch s {
	case attendance.StatusPresent:
		return "✅"
	case attendance.StatusOnLeave:
		return "🏖"
	case attendance.StatusHoliday:
		return "🎉"
	default:
		return "❌"
	}
}

func statusTitle(s attendance.DayStatus) string {
	switch s {
	case attendance.StatusPresent:
		return "на работе"
	case attendance.StatusOnLeave:
		return "в отпуске"
	case attendance.StatusHoliday:
		return "выходной"
	default:
		return "отсутствует"
	}
}

// formatDayLine - одна строка табеля: статус, первый вход, последний выход и чистое время
func formatDayLine(r attendance.DayRecord, loc *time.Location) string {
	line := statusEmoji(r.Status)
	if r.LoginTime != nil {
		logout := formatClock(r.LogoutTime, loc)
		if r.StillOpen {
			logout = "..."
		}
		line += fmt.Sprintf(" %s-%s (%s)", formatClock(r.LoginTime, loc), logout, formatDuration(r.Net))
	}
	if r.StillOpen {
		line += " ⏳"
	}
	return line
}

func formatPresence(p attendance.Presence, loc *time.Location) string {
	switch p.State {
	case attendance.PresenceWorking:
		return fmt.Sprintf("🟢 На работе с %s, отработано %s", p.Since.In(loc).Format("15:04"), formatDuration(p.Worked))
	case attendance.PresenceOnBreak:
		return fmt.Sprintf("☕ На перерыве с %s, до перерыва отработано %s", p.Since.In(loc).Format("15:04"), formatDuration(p.Worked))
	default:
		if p.Since.IsZero() {
			return "⚪ Вы не на работе"
		}
		return fmt.Sprintf("⚪ Вы не на работе, последний выход в %s", p.Since.In(loc).Format("15:04"))
	}
}

func actionTitle(a attendance.Action) string {
	switch a {
	case attendance.ActionLogin:
		return "вход"
	case attendance.ActionLogout:
		return "выход"
	case attendance.ActionBreakStarted:
		return "начало перерыва"
	case attendance.ActionBreakEnded:
		return "конец перерыва"
	default:
		return a.String()
	}
}

// formatToday - ответ на /status; absence - одобренное отсутствие на сегодня или nil
func formatToday(st *service.TodayStatus, absence *models.AbsencePeriod, loc *time.Location) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("📅 Сегодня: %s", formatShortDate(st.Day.Date)))
	if absence != nil {
		lines = append(lines, fmt.Sprintf("🏖 %s до %s", absence.TypeTitle(),
			formatDate(attendance.DateOf(absence.EndDate, time.UTC))))
	}
	lines = append(lines, formatPresence(st.Presence, loc))
	if st.LastAction != nil {
		at := st.LastAction.At.In(loc)
		lines = append(lines, fmt.Sprintf("🕑 Последнее действие: %s, %s в %s",
			actionTitle(st.LastAction.Action), formatShortDate(attendance.DateOf(at, loc)), at.Format("15:04")))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Статус дня: %s %s", statusEmoji(st.Day.Status), statusTitle(st.Day.Status)))
	if st.Day.LoginTime != nil {
		lines = append(lines, fmt.Sprintf("🕘 Первый вход: %s", formatClock(st.Day.LoginTime, loc)))
	}
	if st.Day.LogoutTime != nil && !st.Day.StillOpen {
		lines = append(lines, fmt.Sprintf("🕕 Последний выход: %s", formatClock(st.Day.LogoutTime, loc)))
	}
	lines = append(lines, fmt.Sprintf("⏱ Отработано за день: %s", formatDuration(st.Day.Net)))
	return strings.Join(lines, "\n")
}

func formatMonthlyReport(r *service.MonthlyReport, loc *time.Location) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Табель: %s\n", r.User.DisplayName())
	fmt.Fprintf(&b, "📅 %s\n\n", formatMonth(r.Month))

	for _, rec := range r.Records {
		fmt.Fprintf(&b, "%s %s\n", formatShortDate(rec.Date), formatDayLine(rec, loc))
	}

	s := r.Summary
	b.WriteString("\nИтого:\n")
	fmt.Fprintf(&b, "✅ Рабочих дней: %d\n", s.WorkedDays)
	fmt.Fprintf(&b, "🏖 Отпуск/больничный: %d\n", s.LeaveDays)
	fmt.Fprintf(&b, "🎉 Выходных: %d\n", s.HolidayDays)
	fmt.Fprintf(&b, "❌ Пропусков: %d\n", s.AbsentDays)
	fmt.Fprintf(&b, "⏱ Отработано: %s\n", formatDuration(s.Worked))
	fmt.Fprintf(&b, "📈 В среднем за день: %s", formatDuration(s.AverageWorked()))
	if s.OpenDays > 0 {
		fmt.Fprintf(&b, "\n⏳ Незакрытых дней: %d", s.OpenDays)
	}

	return b.String()
}

func formatDailyReport(r *service.DailyReport, loc *time.Location) string {
	if len(r.Rows) == 0 {
		return fmt.Sprintf("📭 %s: нет сотрудников для отчета.", formatDate(r.Date))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n\n", formatShortDate(r.Date))

	counts := make(map[attendance.DayStatus]int)
	for i, row := range r.Rows {
		snap := row.Snapshot
		counts[snap.Status]++

		fmt.Fprintf(&b, "%d. %s: %s", i+1, row.User.DisplayName(), formatDayLine(snap, loc))
		if snap.LoginTime == nil {
			fmt.Fprintf(&b, " %s", statusTitle(snap.Status))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nНа работе: %d, отпуск: %d, выходной: %d, отсутствуют: %d",
		counts[attendance.StatusPresent],
		counts[attendance.StatusOnLeave],
		counts[attendance.StatusHoliday],
		counts[attendance.StatusAbsent])

	return b.String()
}

func formatTally(ym attendance.YearMonth, rows []attendance.TallyRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Сводка за %s\n", formatMonth(ym))
	b.WriteString("✅ на работе, 🏖 отпуск, ❌ отсутствуют\n\n")

	for _, row := range rows {
		if row.Total > 0 && row.Holiday == row.Total {
			fmt.Fprintf(&b, "%s 🎉 выходной (%d)\n", formatShortDate(row.Date), row.Total)
			continue
		}
		fmt.Fprintf(&b, "%s ✅ %d 🏖 %d ❌ %d из %d\n",
			formatShortDate(row.Date), row.Present, row.Leave, row.Absent, row.Total)
	}

	return strings.TrimRight(b.String(), "\n")
}

func absenceStatusTitle(status string) string {
	switch status {
	case models.AbsenceStatusApproved:
		return "✅ одобрено"
	case models.AbsenceStatusRejected:
		return "❌ отклонено"
	default:
		return "⏳ ожидает решения"
	}
}

func absenceDays(p models.AbsencePeriod) int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

func formatPeriod(p models.AbsencePeriod) string {
	from := attendance.DateOf(p.StartDate, time.UTC)
	to := attendance.DateOf(p.EndDate, time.UTC)
	if from == to {
		return formatDate(from)
	}
	return fmt.Sprintf("%s - %s (%d дн.)", formatDate(from), formatDate(to), absenceDays(p))
}

// formatAbsences группирует периоды отсутствия по типу
func formatAbsences(periods []models.AbsencePeriod) string {
	if len(periods) == 0 {
		return "📭 У вас нет отпусков, больничных или отгулов."
	}

	groups := []struct {
		typ   string
		title string
	}{
		{models.AbsenceTypeVacation, "🏖️ Отпуска:"},
		{models.AbsenceTypeSickLeave, "🏥 Больничные:"},
		{models.AbsenceTypeDayOff, "🎯 Отгулы:"},
	}

	var lines []string
	lines = append(lines, "📋 Мои периоды отсутствия:")

	approvedDays := make(map[string]int)
	for _, g := range groups {
		var items []string
		for _, p := range periods {
			if p.Type != g.typ {
				continue
			}
			items = append(items, fmt.Sprintf("• #%d %s %s", p.ID, formatPeriod(p), absenceStatusTitle(p.Status)))
			if p.IsApproved() {
				approvedDays[g.typ] += absenceDays(p)
			}
		}
		if len(items) == 0 {
			continue
		}
		lines = append(lines, "", g.title)
		lines = append(lines, items...)
	}

	lines = append(lines, "", "📊 Одобрено:")
	lines = append(lines, fmt.Sprintf("• Отпускных дней: %d", approvedDays[models.AbsenceTypeVacation]))
	lines = append(lines, fmt.Sprintf("• Больничных дней: %d", approvedDays[models.AbsenceTypeSickLeave]))
	lines = append(lines, fmt.Sprintf("• Отгулов: %d", approvedDays[models.AbsenceTypeDayOff]))

	return strings.Join(lines, "\n")
}

func formatPending(periods []models.AbsencePeriod) string {
	if len(periods) == 0 {
		return "📭 Нет заявок, ожидающих решения."
	}

	lines := []string{"⏳ Заявки, ожидающие решения:", ""}
	for _, p := range periods {
		lines = append(lines, fmt.Sprintf("#%d %s: %s %s", p.ID, p.User.DisplayName(), p.TypeTitle(), formatPeriod(p)))
	}
	lines = append(lines, "", "Одобрить: /approve ID, отклонить: /reject ID")
	return strings.Join(lines, "\n")
}

func formatHolidays(ym attendance.YearMonth, days []models.NonWorkingDay) string {
	if len(days) == 0 {
		return fmt.Sprintf("📭 В календаре нет выходных за %s.", formatMonth(ym))
	}

	lines := []string{fmt.Sprintf("🎉 Выходные дни, %s:", formatMonth(ym)), ""}
	for i := range days {
		line := "• " + formatShortDate(days[i].CalendarDate())
		if days[i].Title != "" {
			line += " " + days[i].Title
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
