package attendance

import "time"

// MonthSummary - итоги по строкам отчета одного сотрудника
type MonthSummary struct {
	Days        int
	WorkedDays  int
	LeaveDays   int
	AbsentDays  int
	HolidayDays int
	OpenDays    int
	Worked      time.Duration
}

// Summarize подсчитывает итоги по отчету (обычно помесячному)
func Summarize(records []DayRecord) MonthSummary {
	summary := MonthSummary{Days: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			summary.WorkedDays++
		case StatusOnLeave:
			summary.LeaveDays++
		case StatusHoliday:
			summary.HolidayDays++
		default:
			summary.AbsentDays++
		}
		if r.StillOpen {
			summary.OpenDays++
		}
		summary.Worked += r.Net
	}
	return summary
}

// AverageWorked - среднее время за отработанный день
func (s MonthSummary) AverageWorked() time.Duration {
	if s.WorkedDays == 0 {
		return 0
	}
	return s.Worked / time.Duration(s.WorkedDays)
}
