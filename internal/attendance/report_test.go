package attendance

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subjectEv(t *testing.T, subject SubjectID, action Action, s string) Event {
	t.Helper()
	e := ev(t, action, s)
	e.Subject = subject
	return e
}

func newTestEngine() *Engine {
	return NewEngine(WithLocation(time.UTC), WithWorkers(2))
}

func TestMonthlyReport_IsDense(t *testing.T) {
	engine := newTestEngine()

	cases := map[string]int{"2024-02": 29, "2023-02": 28, "2024-04": 30, "2024-12": 31}
	for month, want := range cases {
		ym, err := ParseYearMonth(month)
		require.NoError(t, err)

		records, err := engine.MonthlyReport(1, ym, Input{})
		require.NoError(t, err)
		require.Len(t, records, want, month)

		for i, r := range records {
			assert.Equal(t, ym.First().AddDays(i), r.Date)
			assert.Equal(t, StatusAbsent, r.Status)
			assert.Nil(t, r.LoginTime)
			assert.Zero(t, r.Net)
		}
	}
}

func TestMonthlyReport_ClassifiesEachDay(t *testing.T) {
	engine := newTestEngine()
	ym := YearMonth{Year: 2024, Month: time.March}

	in := Input{
		Events: []Event{
			ev(t, ActionLogin, "2024-03-04 09:00"),
			ev(t, ActionBreakStarted, "2024-03-04 12:00"),
			ev(t, ActionBreakEnded, "2024-03-04 13:00"),
			ev(t, ActionLogout, "2024-03-04 18:00"),
			ev(t, ActionLogin, "2024-03-08 10:00"),
			ev(t, ActionLogout, "2024-03-08 12:00"),
			// чужие события не попадают в отчет
			subjectEv(t, 2, ActionLogin, "2024-03-05 09:00"),
			subjectEv(t, 2, ActionLogout, "2024-03-05 18:00"),
		},
		Leaves: []LeaveInterval{
			{Subject: 1, From: mustDate(t, "2024-03-11"), To: mustDate(t, "2024-03-12")},
			{Subject: 2, From: mustDate(t, "2024-03-13"), To: mustDate(t, "2024-03-13")},
		},
		Holidays: []Date{mustDate(t, "2024-03-08"), mustDate(t, "2024-03-12"), mustDate(t, "2024-03-09")},
	}

	records, err := engine.MonthlyReport(1, ym, in)
	require.NoError(t, err)
	require.Len(t, records, 31)

	byDay := func(day int) DayRecord { return records[day-1] }

	assert.Equal(t, StatusPresent, byDay(4).Status)
	assert.Equal(t, 8*time.Hour, byDay(4).Net)
	require.NotNil(t, byDay(4).LoginTime)
	require.NotNil(t, byDay(4).LogoutTime)
	assert.Equal(t, at(t, "2024-03-04 09:00"), *byDay(4).LoginTime)
	assert.Equal(t, at(t, "2024-03-04 18:00"), *byDay(4).LogoutTime)

	assert.Equal(t, StatusAbsent, byDay(5).Status)
	assert.Equal(t, StatusPresent, byDay(8).Status, "worked on holiday")
	assert.Equal(t, StatusHoliday, byDay(9).Status)
	assert.Equal(t, StatusOnLeave, byDay(11).Status)
	assert.Equal(t, StatusOnLeave, byDay(12).Status, "leave over holiday")
	assert.Equal(t, StatusAbsent, byDay(13).Status)

	summary := Summarize(records)
	assert.Equal(t, 31, summary.Days)
	assert.Equal(t, 2, summary.WorkedDays)
	assert.Equal(t, 2, summary.LeaveDays)
	assert.Equal(t, 1, summary.HolidayDays)
	assert.Equal(t, 26, summary.AbsentDays)
	assert.Equal(t, 10*time.Hour, summary.Worked)
	assert.Equal(t, 5*time.Hour, summary.AverageWorked())
}

func TestMonthlyReport_CrossMidnightSessionCountsOnLoginDay(t *testing.T) {
	engine := newTestEngine()

	records, err := engine.MonthlyReport(1, YearMonth{Year: 2024, Month: time.March}, Input{
		Events: []Event{
			ev(t, ActionLogin, "2024-03-04 22:00"),
			ev(t, ActionLogout, "2024-03-05 06:00"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPresent, records[3].Status)
	assert.Equal(t, 8*time.Hour, records[3].Net)
	assert.Equal(t, StatusAbsent, records[4].Status)
	assert.Zero(t, records[4].Net)
}

func TestMonthlyReport_StillOpenDay(t *testing.T) {
	engine := newTestEngine()

	records, err := engine.MonthlyReport(1, YearMonth{Year: 2024, Month: time.March}, Input{
		Events: []Event{ev(t, ActionLogin, "2024-03-04 09:00")},
	})
	require.NoError(t, err)

	day := records[3]
	assert.Equal(t, StatusPresent, day.Status)
	assert.True(t, day.StillOpen)
	assert.Nil(t, day.LogoutTime)
	assert.Zero(t, day.Net)
}

func TestRangeReport_Validation(t *testing.T) {
	engine := newTestEngine()
	from := mustDate(t, "2024-03-10")

	_, err := engine.RangeReport(0, from, from, Input{})
	assert.ErrorIs(t, err, ErrEmptySubject)

	_, err = engine.RangeReport(1, from, from.AddDays(-1), Input{})
	assert.ErrorIs(t, err, ErrInvalidRange)

	records, err := engine.RangeReport(1, from, from, Input{})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = engine.MonthlyReport(1, YearMonth{Year: 2024, Month: 13}, Input{})
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestDailyReport_Empty(t *testing.T) {
	engine := newTestEngine()

	snapshots, err := engine.DailyReport(nil, mustDate(t, "2024-03-04"), Input{})
	require.NoError(t, err)
	assert.NotNil(t, snapshots)
	assert.Empty(t, snapshots)
}

func TestDailyReport_MultipleSessionsAndSubjects(t *testing.T) {
	engine := newTestEngine()
	date := mustDate(t, "2024-03-04")

	in := Input{
		Events: []Event{
			subjectEv(t, 1, ActionLogin, "2024-03-04 08:00"),
			subjectEv(t, 1, ActionLogout, "2024-03-04 12:00"),
			subjectEv(t, 1, ActionLogin, "2024-03-04 13:00"),
			subjectEv(t, 1, ActionLogout, "2024-03-04 17:30"),
			subjectEv(t, 1, ActionLogout, "2024-03-04 17:31"),
			subjectEv(t, 3, ActionLogin, "2024-03-04 10:00"),
			// субъект вне запрошенного списка
			subjectEv(t, 9, ActionLogin, "2024-03-04 10:00"),
		},
		Leaves: []LeaveInterval{{Subject: 2, From: date, To: date}},
	}

	snapshots, err := engine.DailyReport([]SubjectID{1, 2, 3, 4}, date, in)
	require.NoError(t, err)
	require.Len(t, snapshots, 4)

	first := snapshots[0]
	assert.Equal(t, SubjectID(1), first.Subject)
	assert.Equal(t, StatusPresent, first.Status)
	assert.Equal(t, at(t, "2024-03-04 08:00"), *first.LoginTime)
	assert.Equal(t, at(t, "2024-03-04 17:30"), *first.LogoutTime)
	assert.Equal(t, 8*time.Hour+30*time.Minute, first.Net)

	assert.Equal(t, StatusOnLeave, snapshots[1].Status)

	assert.Equal(t, StatusPresent, snapshots[2].Status)
	assert.True(t, snapshots[2].StillOpen)

	assert.Equal(t, StatusAbsent, snapshots[3].Status)
}

func TestDailyReport_RejectsEmptySubject(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.DailyReport([]SubjectID{1, 0}, mustDate(t, "2024-03-04"), Input{})
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestMonthlyTally_CountsSumToTotal(t *testing.T) {
	engine := newTestEngine()
	ym := YearMonth{Year: 2024, Month: time.March}
	subjects := []SubjectID{1, 2, 3}

	in := Input{
		Events: []Event{
			subjectEv(t, 1, ActionLogin, "2024-03-04 09:00"),
			subjectEv(t, 1, ActionLogout, "2024-03-04 17:00"),
			subjectEv(t, 2, ActionLogin, "2024-03-08 09:00"),
			subjectEv(t, 2, ActionLogout, "2024-03-08 12:00"),
		},
		Leaves: []LeaveInterval{
			{Subject: 3, From: mustDate(t, "2024-03-04"), To: mustDate(t, "2024-03-08")},
		},
		Holidays: []Date{mustDate(t, "2024-03-08")},
	}

	rows, err := engine.MonthlyTally(subjects, ym, in)
	require.NoError(t, err)
	require.Len(t, rows, 31)

	holidays := NewHolidaySet(in.Holidays)
	for _, row := range rows {
		assert.Equal(t, 3, row.Total)
		if holidays.Contains(row.Date) {
			assert.Equal(t, row.Total, row.Holiday, row.Date.String())
		} else {
			assert.Equal(t, row.Total, row.Present+row.Leave+row.Absent, row.Date.String())
			assert.Zero(t, row.Holiday)
		}
	}

	march4 := rows[3]
	assert.Equal(t, TallyRow{Date: mustDate(t, "2024-03-04"), Present: 1, Leave: 1, Absent: 1, Total: 3}, march4)

	march8 := rows[7]
	assert.Equal(t, 3, march8.Holiday)
	assert.Equal(t, 1, march8.Present)
	assert.Equal(t, 1, march8.Leave)
	assert.Zero(t, march8.Absent)
}

func TestMonthlyTally_EmptySubjects(t *testing.T) {
	engine := newTestEngine()

	rows, err := engine.MonthlyTally(nil, YearMonth{Year: 2024, Month: time.March}, Input{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := newTestEngine()
	ym := YearMonth{Year: 2024, Month: time.March}
	in := Input{Events: []Event{
		ev(t, ActionLogin, "2024-03-04 09:00"),
		ev(t, ActionLogout, "2024-03-04 17:00"),
	}}

	var wg sync.WaitGroup
	results := make([][]DayRecord, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := engine.MonthlyReport(1, ym, in)
			assert.NoError(t, err)
			results[i] = records
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}
