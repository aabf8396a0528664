package attendance

import (
	"fmt"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	yearMonthLayout = "2006-01"
)

// Date - календарный день без времени суток
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает календарный день момента t в часовом поясе loc
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate нормализует дату (32 января превращается в 1 февраля)
func NewDate(year int, month time.Month, day int) Date {
	return dateFromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate парсит дату формата YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return dateFromTime(t), nil
}

func dateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Start возвращает полночь этого дня в часовом поясе loc
func (d Date) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return dateFromTime(d.utc().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool { return d.utc().Before(o.utc()) }
func (d Date) After(o Date) bool  { return d.utc().After(o.utc()) }
func (d Date) Equal(o Date) bool  { return d == o }
func (d Date) IsZero() bool       { return d == Date{} }

func (d Date) String() string {
	return d.utc().Format(dateLayout)
}

// Weekday нужен для отображения календаря
func (d Date) Weekday() time.Weekday {
	return d.utc().Weekday()
}

// YearMonth - отчетный месяц
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth парсит месяц формата YYYY-MM
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf возвращает месяц, в который попадает день
func YearMonthOf(d Date) YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

func (ym YearMonth) Valid() bool {
	return ym.Month >= time.January && ym.Month <= time.December
}

func (ym YearMonth) First() Date {
	return Date{Year: ym.Year, Month: ym.Month, Day: 1}
}

func (ym YearMonth) Last() Date {
	return ym.First().AddDays(ym.DaysIn() - 1)
}

// DaysIn возвращает количество дней в месяце
func (ym YearMonth) DaysIn() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Days возвращает все дни месяца по порядку, без пропусков
func (ym YearMonth) Days() []Date {
	return daysBetween(ym.First(), ym.Last())
}

func (ym YearMonth) String() string {
	return ym.First().utc().Format(yearMonthLayout)
}

// daysBetween - все дни от from до to включительно
func daysBetween(from, to Date) []Date {
	if to.Before(from) {
		return nil
	}
	days := make([]Date, 0, int(to.utc().Sub(from.utc())/(24*time.Hour))+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// HolidaySet - индекс праздничных дней, строится один раз на вызов отчета
type HolidaySet map[Date]struct{}

func NewHolidaySet(dates []Date) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func (s HolidaySet) Contains(d Date) bool {
	_, ok := s[d]
	return ok
}
