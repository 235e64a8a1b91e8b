package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SessionRepository управляет занятиями в базе данных
type SessionRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewSessionRepository создаёт новый репозиторий
func NewSessionRepository(pool *pgxpool.Pool, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

const sessionColumns = `id, recurring_schedule_id, teacher_id, student_id, title, start_time, end_time,
	local_date, status, pending_start, pending_end, pending_by, pending_at, notes, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	var localDate *string
	var pendingStart, pendingEnd, pendingAt *time.Time
	var pendingBy *string
	err := row.Scan(
		&s.ID,
		&s.RecurringScheduleID,
		&s.TeacherID,
		&s.StudentID,
		&s.Title,
		&s.StartTime,
		&s.EndTime,
		&localDate,
		&s.Status,
		&pendingStart,
		&pendingEnd,
		&pendingBy,
		&pendingAt,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if localDate != nil {
		s.LocalDate = *localDate
	}
	if pendingStart != nil && pendingEnd != nil && pendingBy != nil && pendingAt != nil {
		s.PendingReschedule = &model.PendingReschedule{
			RequestedStart: *pendingStart,
			RequestedEnd:   *pendingEnd,
			RequestedBy:    model.Role(*pendingBy),
			RequestedAt:    *pendingAt,
		}
	}
	// Время хранится как timestamptz; приводим к UTC для единообразия
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	return s, nil
}

func pendingFields(s *model.Session) (start, end, at *time.Time, by *string) {
	if s.PendingReschedule == nil {
		return nil, nil, nil, nil
	}
	p := s.PendingReschedule
	role := string(p.RequestedBy)
	return &p.RequestedStart, &p.RequestedEnd, &p.RequestedAt, &role
}

// Create создаёт новое занятие
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (recurring_schedule_id, teacher_id, student_id, title, start_time, end_time, local_date, status, pending_start, pending_end, pending_by, pending_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	pendingStart, pendingEnd, pendingAt, pendingBy := pendingFields(session)
	err := r.DB(ctx).QueryRow(
		ctx,
		query,
		session.RecurringScheduleID,
		session.TeacherID,
		session.StudentID,
		session.Title,
		session.StartTime,
		session.EndTime,
		session.LocalDate,
		session.Status,
		pendingStart,
		pendingEnd,
		pendingBy,
		pendingAt,
		session.Notes,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID. Возвращает nil, nil если занятия нет.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.DB(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) queryMany(ctx context.Context, query string, args ...any) ([]*model.Session, error) {
	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// GetByTeacherInRange получает занятия учителя, пересекающие [from, to)
func (r *SessionRepository) GetByTeacherInRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE teacher_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`

	sessions, err := r.queryMany(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get sessions by teacher in range: %w", err)
	}
	return sessions, nil
}

// GetOccupiedByTeacherInRange получает занятия учителя в занимающих
// статусах (scheduled, reschedule_pending), пересекающие [from, to).
// Именно они участвуют в проверке пересечений.
func (r *SessionRepository) GetOccupiedByTeacherInRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE teacher_id = $1
		  AND status IN ('scheduled', 'reschedule_pending')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`

	sessions, err := r.queryMany(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get occupied sessions by teacher in range: %w", err)
	}
	return sessions, nil
}

// ExistsForScheduleDate проверяет, существует ли занятие шаблона
// на указанную календарную дату (в зоне шаблона). Опора идемпотентности
// материализации: повторные запуски не создают дубликатов.
func (r *SessionRepository) ExistsForScheduleDate(ctx context.Context, scheduleID int64, localDate string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM sessions WHERE recurring_schedule_id = $1 AND local_date = $2)`

	var exists bool
	err := r.DB(ctx).QueryRow(ctx, query, scheduleID, localDate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session existence: %w", err)
	}

	return exists, nil
}

// CountNonTerminalBySchedule возвращает количество живых (не завершённых
// и не отменённых) занятий, ссылающихся на шаблон
func (r *SessionRepository) CountNonTerminalBySchedule(ctx context.Context, scheduleID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM sessions
		WHERE recurring_schedule_id = $1 AND status NOT IN ('completed', 'cancelled')
	`

	var count int
	err := r.DB(ctx).QueryRow(ctx, query, scheduleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count non-terminal sessions by schedule: %w", err)
	}

	return count, nil
}

// Update обновляет изменяемые поля занятия
func (r *SessionRepository) Update(ctx context.Context, session *model.Session) error {
	query := `
		UPDATE sessions
		SET title = $2, start_time = $3, end_time = $4, status = $5,
		    pending_start = $6, pending_end = $7, pending_by = $8, pending_at = $9,
		    notes = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	pendingStart, pendingEnd, pendingAt, pendingBy := pendingFields(session)
	err := r.DB(ctx).QueryRow(
		ctx,
		query,
		session.ID,
		session.Title,
		session.StartTime,
		session.EndTime,
		session.Status,
		pendingStart,
		pendingEnd,
		pendingBy,
		pendingAt,
		session.Notes,
	).Scan(&session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	return nil
}
