package models

import (
	"time"

	"attendance-bot/internal/attendance"
)

type NonWorkingDay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;uniqueIndex" json:"date"`
	Year      int       `gorm:"index" json:"year"`
	Month     int       `gorm:"index" json:"month"`
	Day       int       `json:"day"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NonWorkingDay) TableName() string {
	return "non_working_days"
}

// NewNonWorkingDay строит запись по календарной дате
func NewNonWorkingDay(d attendance.Date, title string) NonWorkingDay {
	return NonWorkingDay{
		Date:  d.Start(time.UTC),
		Year:  d.Year,
		Month: int(d.Month),
		Day:   d.Day,
		Title: title,
	}
}

func (d *NonWorkingDay) CalendarDate() attendance.Date {
	return attendance.NewDate(d.Year, time.Month(d.Month), d.Day)
}
