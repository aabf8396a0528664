package handler

import (
	"testing"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return &ts
}

func TestParseDate(t *testing.T) {
	today := attendance.NewDate(2026, time.October, 14)

	cases := map[string]attendance.Date{
		"01.07.2026": attendance.NewDate(2026, time.July, 1),
		"01-07-2026": attendance.NewDate(2026, time.July, 1),
		"2026-07-01": attendance.NewDate(2026, time.July, 1),
		"15.08":      attendance.NewDate(2026, time.August, 15),
		" 31.12 ":    attendance.NewDate(2026, time.December, 31),
	}
	for in, want := range cases {
		got, err := parseDate(in, today)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "31.02.2026", "32.01", "29.02", "2026/07/01", "завтра"} {
		_, err := parseDate(in, today)
		assert.Error(t, err, in)
	}

	leap := attendance.NewDate(2024, time.January, 10)
	got, err := parseDate("29.02", leap)
	require.NoError(t, err)
	assert.Equal(t, attendance.NewDate(2024, time.February, 29), got)
}

func TestParseMonth(t *testing.T) {
	today := attendance.NewDate(2026, time.October, 14)

	cases := map[string]attendance.YearMonth{
		"":        {Year: 2026, Month: time.October},
		"2024-02": {Year: 2024, Month: time.February},
		"03.2025": {Year: 2025, Month: time.March},
		"7":       {Year: 2026, Month: time.July},
		"12":      {Year: 2026, Month: time.December},
	}
	for in, want := range cases {
		got, err := parseMonth(in, today)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"13", "0", "2024-13", "март"} {
		_, err := parseMonth(in, today)
		assert.Error(t, err, in)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0ч 00м", formatDuration(0))
	assert.Equal(t, "0ч 00м", formatDuration(-time.Hour))
	assert.Equal(t, "8ч 05м", formatDuration(8*time.Hour+5*time.Minute+40*time.Second))
	assert.Equal(t, "36ч 30м", formatDuration(36*time.Hour+30*time.Minute))
}

func TestFormatDayLine(t *testing.T) {
	closed := attendance.DayRecord{
		Status:     attendance.StatusPresent,
		LoginTime:  clock(t, "2024-03-04 09:00"),
		LogoutTime: clock(t, "2024-03-04 18:00"),
		Net:        8 * time.Hour,
	}
	assert.Equal(t, "✅ 09:00-18:00 (8ч 00м)", formatDayLine(closed, time.UTC))

	open := closed
	open.LogoutTime = nil
	open.StillOpen = true
	open.Net = 3 * time.Hour
	assert.Equal(t, "✅ 09:00-... (3ч 00м) ⏳", formatDayLine(open, time.UTC))

	assert.Equal(t, "🏖", formatDayLine(attendance.DayRecord{Status: attendance.StatusOnLeave}, time.UTC))
	assert.Equal(t, "❌", formatDayLine(attendance.DayRecord{Status: attendance.StatusAbsent}, time.UTC))
}

func TestFormatPresence(t *testing.T) {
	assert.Equal(t, "⚪ Вы не на работе", formatPresence(attendance.Presence{}, time.UTC))

	working := attendance.Presence{
		State:  attendance.PresenceWorking,
		Since:  *clock(t, "2024-03-04 09:00"),
		Worked: 2*time.Hour + 15*time.Minute,
	}
	assert.Equal(t, "🟢 На работе с 09:00, отработано 2ч 15м", formatPresence(working, time.UTC))

	msk := time.FixedZone("MSK", 3*60*60)
	assert.Contains(t, formatPresence(working, msk), "с 12:00")

	off := attendance.Presence{State: attendance.PresenceOff, Since: *clock(t, "2024-03-04 18:00")}
	assert.Equal(t, "⚪ Вы не на работе, последний выход в 18:00", formatPresence(off, time.UTC))
}

func TestFormatMonthlyReport(t *testing.T) {
	ym := attendance.YearMonth{Year: 2024, Month: time.March}
	records := []attendance.DayRecord{
		{Date: ym.First(), Status: attendance.StatusPresent, LoginTime: clock(t, "2024-03-01 09:00"), LogoutTime: clock(t, "2024-03-01 17:00"), Net: 8 * time.Hour},
		{Date: ym.First().AddDays(1), Status: attendance.StatusHoliday},
		{Date: ym.First().AddDays(2), Status: attendance.StatusAbsent},
	}
	report := &service.MonthlyReport{
		User:    &models.User{FirstName: "Иван", LastName: "Петров"},
		Month:   ym,
		Records: records,
		Summary: attendance.Summarize(records),
	}

	text := formatMonthlyReport(report, time.UTC)
	assert.Contains(t, text, "📊 Табель: Иван Петров")
	assert.Contains(t, text, "📅 Март 2024")
	assert.Contains(t, text, "01.03 Пт ✅ 09:00-17:00 (8ч 00м)")
	assert.Contains(t, text, "02.03 Сб 🎉")
	assert.Contains(t, text, "✅ Рабочих дней: 1")
	assert.Contains(t, text, "❌ Пропусков: 1")
	assert.Contains(t, text, "⏱ Отработано: 8ч 00м")
	assert.NotContains(t, text, "Незакрытых")
}

func TestFormatDailyReport(t *testing.T) {
	date := attendance.NewDate(2024, time.March, 4)
	report := &service.DailyReport{
		Date: date,
		Rows: []service.DailyRow{
			{User: &models.User{FirstName: "Анна"}, Snapshot: attendance.DayRecord{Date: date, Status: attendance.StatusPresent, LoginTime: clock(t, "2024-03-04 08:30"), StillOpen: true, Net: time.Hour}},
			{User: &models.User{FirstName: "Борис"}, Snapshot: attendance.DayRecord{Date: date, Status: attendance.StatusOnLeave}},
			{User: &models.User{FirstName: "Вера"}, Snapshot: attendance.DayRecord{Date: date, Status: attendance.StatusAbsent}},
		},
	}

	text := formatDailyReport(report, time.UTC)
	assert.Contains(t, text, "📅 04.03 Пн")
	assert.Contains(t, text, "1. Анна: ✅ 08:30-... (1ч 00м) ⏳")
	assert.Contains(t, text, "2. Борис: 🏖 в отпуске")
	assert.Contains(t, text, "3. Вера: ❌ отсутствует")
	assert.Contains(t, text, "На работе: 1, отпуск: 1, выходной: 0, отсутствуют: 1")

	empty := formatDailyReport(&service.DailyReport{Date: date}, time.UTC)
	assert.Contains(t, empty, "нет сотрудников")
}

func TestFormatTally(t *testing.T) {
	ym := attendance.YearMonth{Year: 2024, Month: time.March}
	rows := []attendance.TallyRow{
		{Date: ym.First(), Present: 2, Leave: 1, Absent: 1, Total: 4},
		{Date: ym.First().AddDays(1), Holiday: 4, Total: 4},
	}

	text := formatTally(ym, rows)
	assert.Contains(t, text, "📊 Сводка за Март 2024")
	assert.Contains(t, text, "01.03 Пт ✅ 2 🏖 1 ❌ 1 из 4")
	assert.Contains(t, text, "02.03 Сб 🎉 выходной (4)")
}

func TestFormatAbsences(t *testing.T) {
	day := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return ts
	}

	assert.Contains(t, formatAbsences(nil), "нет отпусков")

	periods := []models.AbsencePeriod{
		{ID: 1, Type: models.AbsenceTypeVacation, Status: models.AbsenceStatusApproved, StartDate: day("2024-07-01"), EndDate: day("2024-07-14")},
		{ID: 2, Type: models.AbsenceTypeVacation, Status: models.AbsenceStatusPending, StartDate: day("2024-08-01"), EndDate: day("2024-08-03")},
		{ID: 3, Type: models.AbsenceTypeDayOff, Status: models.AbsenceStatusRejected, StartDate: day("2024-09-02"), EndDate: day("2024-09-02")},
	}

	text := formatAbsences(periods)
	assert.Contains(t, text, "• #1 01.07.2024 - 14.07.2024 (14 дн.) ✅ одобрено")
	assert.Contains(t, text, "• #2 01.08.2024 - 03.08.2024 (3 дн.) ⏳ ожидает решения")
	assert.Contains(t, text, "• #3 02.09.2024 ❌ отклонено")
	assert.Contains(t, text, "• Отпускных дней: 14")
	assert.Contains(t, text, "• Отгулов: 0")
	assert.NotContains(t, text, "Больничные:")
}

func TestFormatHolidays(t *testing.T) {
	ym := attendance.YearMonth{Year: 2026, Month: time.January}
	days := []models.NonWorkingDay{
		models.NewNonWorkingDay(attendance.NewDate(2026, time.January, 1), "Новый год"),
		models.NewNonWorkingDay(attendance.NewDate(2026, time.January, 3), ""),
	}

	text := formatHolidays(ym, days)
	assert.Contains(t, text, "Январь 2026")
	assert.Contains(t, text, "• 01.01 Чт Новый год")
	assert.Contains(t, text, "• 03.01 Сб")

	assert.Contains(t, formatHolidays(ym, nil), "нет выходных")
}

func TestFormatToday(t *testing.T) {
	login := clock(t, "2024-03-04 09:00")
	status := &service.TodayStatus{
		Presence: attendance.Presence{State: attendance.PresenceWorking, Since: *login, LoginAt: *login, Worked: 2 * time.Hour},
		Day: attendance.DayRecord{
			Date:      attendance.NewDate(2024, time.March, 4),
			Status:    attendance.StatusPresent,
			LoginTime: login,
			StillOpen: true,
		},
		LastAction: &attendance.Event{Action: attendance.ActionLogin, At: *login},
	}

	text := formatToday(status, nil, time.UTC)
	assert.Contains(t, text, "📅 Сегодня: 04.03 Пн")
	assert.Contains(t, text, "🕑 Последнее действие: вход, 04.03 Пн в 09:00")
	assert.NotContains(t, text, "🏖")

	sick := &models.AbsencePeriod{
		Type:    models.AbsenceTypeSickLeave,
		EndDate: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC),
	}
	text = formatToday(&service.TodayStatus{Day: attendance.DayRecord{Date: attendance.NewDate(2024, time.March, 4)}}, sick, time.UTC)
	assert.Contains(t, text, "🏖 Больничный до 06.03.2024")
	assert.Contains(t, text, "⚪ Вы не на работе")
	assert.NotContains(t, text, "Последнее действие")
}
