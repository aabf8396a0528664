package models

import (
	"time"

	"attendance-bot/internal/attendance"
)

// ActionEvent - сырое событие из журнала действий сотрудника (вход, выход, перерыв).
// Журнал только дополняется, сессии из него восстанавливаются при построении отчета.
type ActionEvent struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EventID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"`
	UserID     uint      `gorm:"not null;index:idx_action_events_user_time,priority:1" json:"user_id"`
	Action     string    `gorm:"type:varchar(20);not null" json:"action"` // login, logout, break_started, break_ended
	OccurredAt time.Time `gorm:"not null;index:idx_action_events_user_time,priority:2" json:"occurred_at"`
	Source     string    `gorm:"type:varchar(20);default:'telegram'" json:"source"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ActionEvent) TableName() string {
	return "action_events"
}

// IsValid проверяет валидность данных
func (e *ActionEvent) IsValid() bool {
	if e.UserID == 0 || e.EventID == "" || e.OccurredAt.IsZero() {
		return false
	}
	_, err := attendance.ParseAction(e.Action)
	return err == nil
}

// ToEvent переводит запись журнала в событие движка.
// Неизвестное действие отбрасывается здесь, до движка.
func (e *ActionEvent) ToEvent() (attendance.Event, error) {
	action, err := attendance.ParseAction(e.Action)
	if err != nil {
		return attendance.Event{}, err
	}
	return attendance.Event{
		Subject: attendance.SubjectID(e.UserID),
		Action:  action,
		At:      e.OccurredAt,
	}, nil
}
