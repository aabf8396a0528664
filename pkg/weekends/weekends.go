package weekends

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON - производственный календарь на год.
// В списке дней месяца "+" помечает перенесенный выходной, "*" - сокращенный
// рабочий день (выходным не считается).
type CalendarJSON struct {
	Year      int             `json:"year"`
	Months    []MonthWeekends `json:"months"`
	Statistic Statistic       `json:"statistic"`
}

type MonthWeekends struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Statistic struct {
	Workdays int     `json:"workdays"`
	Holidays int     `json:"holidays"`
	Hours40  float64 `json:"hours40"`
	Hours36  float64 `json:"hours36"`
	Hours24  float64 `json:"hours24"`
}

// Day - календарная дата без часового пояса
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Calendar - разобранный календарь
type Calendar struct {
	Year          int
	NonWorking    []Day
	ShortenedDays []Day
	Statistic     Statistic
}

// ParseFile читает календарь из JSON файла
func ParseFile(filePath string) (*Calendar, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse разбирает календарь; даты возвращаются по возрастанию
func Parse(r io.Reader) (*Calendar, error) {
	var raw CalendarJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if raw.Year == 0 {
		return nil, fmt.Errorf("calendar year is missing")
	}

	cal := &Calendar{Year: raw.Year, Statistic: raw.Statistic}

	for _, monthData := range raw.Months {
		if monthData.Month < 1 || monthData.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", monthData.Month)
		}

		for _, dayStr := range strings.Split(monthData.Days, ",") {
			dayStr = strings.TrimSpace(dayStr)
			if dayStr == "" {
				continue
			}

			shortened := strings.HasSuffix(dayStr, "*")
			dayStr = strings.TrimSuffix(strings.TrimSuffix(dayStr, "*"), "+")

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w",
					dayStr, monthData.Month, err)
			}

			date, err := calendarDate(raw.Year, time.Month(monthData.Month), day)
			if err != nil {
				return nil, err
			}

			if shortened {
				cal.ShortenedDays = append(cal.ShortenedDays, date)
			} else {
				cal.NonWorking = append(cal.NonWorking, date)
			}
		}
	}

	sortDates(cal.NonWorking)
	sortDates(cal.ShortenedDays)
	return cal, nil
}

func calendarDate(year int, month time.Month, day int) (Day, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return Day{}, fmt.Errorf("day %d does not exist in month %d", day, month)
	}
	return Day{Year: year, Month: month, Day: day}, nil
}

func sortDates(dates []Day) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
