// Package scherr определяет таксономию ошибок движка расписаний.
// Все ошибки локальные и синхронные, возвращаются вызывающему как есть;
// движок ничего не ретраит сам (кроме best-effort уведомлений).
package scherr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// ValidationError — некорректный ввод: перевёрнутый интервал,
// длительность вне границ, неизвестная зона и т.п.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidation создаёт ValidationError для поля
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError — запрошенная сущность отсутствует
type NotFoundError struct {
	Entity string // "recurring schedule", "session"
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError — обнаружено пересечение временных интервалов.
// Несёт конфликтующие сущности, чтобы вызывающий мог показать
// осмысленное сообщение.
type ConflictError struct {
	ScheduleIDs []int64 // конфликтующие шаблоны (при создании/обновлении шаблона)
	SessionIDs  []int64 // конфликтующие занятия (при одобрении переноса, ad hoc)
}

func (e *ConflictError) Error() string {
	var parts []string
	if len(e.ScheduleIDs) > 0 {
		parts = append(parts, fmt.Sprintf("schedules %v", e.ScheduleIDs))
	}
	if len(e.SessionIDs) > 0 {
		parts = append(parts, fmt.Sprintf("sessions %v", e.SessionIDs))
	}
	if len(parts) == 0 {
		return "time conflict"
	}
	return "time conflict with " + strings.Join(parts, ", ")
}

// StateError — переход запрошен из несовместимого состояния жизненного
// цикла. Несёт текущее состояние для actionable-сообщения.
type StateError struct {
	Entity    string // "session", "recurring schedule"
	Current   string // текущий статус или описание состояния
	Attempted string // имя операции
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: %s is %s", e.Attempted, e.Entity, e.Current)
}

// NewSessionState создаёт StateError для недопустимого перехода занятия
func NewSessionState(current model.SessionStatus, attempted string) *StateError {
	return &StateError{Entity: "session", Current: string(current), Attempted: attempted}
}

// AuthorizationError — роль актора недостаточна для операции.
// Сообщение не раскрывает существование ресурсов сверх того,
// что роль и так могла видеть.
type AuthorizationError struct {
	Role   model.Role
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s is not allowed to %s", e.Role, e.Action)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}
