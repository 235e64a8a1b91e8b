package model

import "time"

type SessionStatus string

const (
	SessionStatusScheduled         SessionStatus = "scheduled"          // Запланировано
	SessionStatusReschedulePending SessionStatus = "reschedule_pending" // Ожидает одобрения переноса
	SessionStatusCompleted         SessionStatus = "completed"          // Проведено (терминальный)
	SessionStatusCancelled         SessionStatus = "cancelled"          // Отменено (терминальный)
)

// Terminal сообщает является ли статус терминальным
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// Occupies сообщает занимает ли занятие с таким статусом время учителя.
// Только занимающие статусы участвуют в проверке пересечений.
func (s SessionStatus) Occupies() bool {
	return s == SessionStatusScheduled || s == SessionStatusReschedulePending
}

// PendingReschedule — предложенный перенос занятия.
// Заполнен только пока статус reschedule_pending; самого занятия не меняет.
type PendingReschedule struct {
	RequestedStart time.Time `json:"requested_start"`
	RequestedEnd   time.Time `json:"requested_end"`
	RequestedBy    Role      `json:"requested_by"`
	RequestedAt    time.Time `json:"requested_at"`
}

// Session представляет одно конкретное занятие с датой.
// Создаётся либо материализацией шаблона, либо напрямую (ad hoc).
// После создания никогда физически не удаляется: отмена — это
// терминальный статус, история сохраняется.
type Session struct {
	ID                  int64              `json:"id"`
	RecurringScheduleID *int64             `json:"recurring_schedule_id"` // nil = ad hoc
	TeacherID           int64              `json:"teacher_id"`
	StudentID           int64              `json:"student_id"`
	Title               string             `json:"title"`
	StartTime           time.Time          `json:"start_time"` // абсолютный инстант UTC
	EndTime             time.Time          `json:"end_time"`
	LocalDate           string             `json:"local_date"` // "2006-01-02" в зоне шаблона; пусто для ad hoc
	Status              SessionStatus      `json:"status"`
	PendingReschedule   *PendingReschedule `json:"pending_reschedule,omitempty"`
	Notes               string             `json:"notes"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
