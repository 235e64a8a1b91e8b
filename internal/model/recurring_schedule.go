package model

import (
	"fmt"
	"time"
)

// MaxDurationMinutes — верхняя граница длительности занятия.
// Расписания не пересекают полночь, поэтому длительность ограничена.
const MaxDurationMinutes = 480

// ExternalRef — сквозные поля для интеграции с iCalendar.
// Движок их не интерпретирует, только хранит и отдаёт как есть.
type ExternalRef struct {
	DTStart string `json:"dtstart,omitempty"`
	RRule   string `json:"rrule,omitempty"`
	TZID    string `json:"tzid,omitempty"`
}

// RecurringSchedule представляет шаблон еженедельного занятия.
// Все поля времени локальны для Timezone; абсолютные инстанты
// вычисляются только при материализации конкретных занятий.
type RecurringSchedule struct {
	ID              int64        `json:"id"`
	TeacherID       int64        `json:"teacher_id"`
	StudentID       int64        `json:"student_id"`
	DayOfWeek       DayOfWeek    `json:"day_of_week"`
	StartMinute     int          `json:"start_minute"`     // минуты с локальной полуночи, 0-1439
	DurationMinutes int          `json:"duration_minutes"` // 1-480
	Timezone        string       `json:"timezone"`         // имя зоны IANA
	IsActive        bool         `json:"is_active"`
	ExternalRef     *ExternalRef `json:"external_ref,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// EndMinute возвращает вычисленное время окончания в минутах с полуночи.
// Никогда не хранится как самостоятельная истина.
func (s *RecurringSchedule) EndMinute() int {
	return s.StartMinute + s.DurationMinutes
}

// StartClock форматирует локальное время начала как "16:00"
func (s *RecurringSchedule) StartClock() string {
	return fmt.Sprintf("%02d:%02d", s.StartMinute/60, s.StartMinute%60)
}
