// internal/models/absence_period.go
package models

import (
	"time"

	"attendance-bot/internal/attendance"
)

type AbsencePeriod struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`
	Type       string    `gorm:"type:varchar(20);not null" json:"type"`                           // vacation, sick_leave, day_off
	Status     string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // pending, approved, rejected
	ReviewedBy *uint     `json:"reviewed_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

func (AbsencePeriod) TableName() string {
	return "absence_periods"
}

const (
	AbsenceTypeVacation  = "vacation"
	AbsenceTypeSickLeave = "sick_leave"
	AbsenceTypeDayOff    = "day_off"
)

// Статусы заявок на отсутствие
const (
	AbsenceStatusPending  = "pending"
	AbsenceStatusApproved = "approved"
	AbsenceStatusRejected = "rejected"
)

func (p *AbsencePeriod) IsApproved() bool {
	return p.Status == AbsenceStatusApproved
}

// TypeTitle - название типа отсутствия для пользователя
func (p *AbsencePeriod) TypeTitle() string {
	switch p.Type {
	case AbsenceTypeVacation:
		return "Отпуск"
	case AbsenceTypeSickLeave:
		return "Больничный"
	case AbsenceTypeDayOff:
		return "Отгул"
	default:
		return p.Type
	}
}

// ToLeave переводит период в интервал отпуска движка (границы включены).
// Даты хранятся как календарные, поэтому берутся в UTC.
func (p *AbsencePeriod) ToLeave() attendance.LeaveInterval {
	return attendance.LeaveInterval{
		Subject: attendance.SubjectID(p.UserID),
		From:    attendance.DateOf(p.StartDate, time.UTC),
		To:      attendance.DateOf(p.EndDate, time.UTC),
	}
}
