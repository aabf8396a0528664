package attendance

import "errors"

// Ошибки программиста: неверные аргументы вызова.
// На "грязные" данные событий движок ошибок не возвращает.
var (
	ErrEmptySubject  = errors.New("attendance: empty subject id")
	ErrInvalidRange  = errors.New("attendance: end date is before start date")
	ErrInvalidDate   = errors.New("attendance: invalid date")
	ErrInvalidMonth  = errors.New("attendance: invalid month")
	ErrUnknownAction = errors.New("attendance: unknown action")
)
