package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RecurringScheduleRepository управляет шаблонами расписаний в базе данных
type RecurringScheduleRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewRecurringScheduleRepository создаёт новый репозиторий
func NewRecurringScheduleRepository(pool *pgxpool.Pool, logger *zap.Logger) *RecurringScheduleRepository {
	return &RecurringScheduleRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

const scheduleColumns = `id, teacher_id, student_id, day_of_week, start_minute, duration_minutes,
	timezone, is_active, ext_dtstart, ext_rrule, ext_tzid, created_at, updated_at`

func scanSchedule(row pgx.Row) (*model.RecurringSchedule, error) {
	s := &model.RecurringSchedule{}
	var dtstart, rrule, tzid *string
	err := row.Scan(
		&s.ID,
		&s.TeacherID,
		&s.StudentID,
		&s.DayOfWeek,
		&s.StartMinute,
		&s.DurationMinutes,
		&s.Timezone,
		&s.IsActive,
		&dtstart,
		&rrule,
		&tzid,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dtstart != nil || rrule != nil || tzid != nil {
		s.ExternalRef = &model.ExternalRef{}
		if dtstart != nil {
			s.ExternalRef.DTStart = *dtstart
		}
		if rrule != nil {
			s.ExternalRef.RRule = *rrule
		}
		if tzid != nil {
			s.ExternalRef.TZID = *tzid
		}
	}
	return s, nil
}

func extRefFields(s *model.RecurringSchedule) (dtstart, rrule, tzid *string) {
	if s.ExternalRef == nil {
		return nil, nil, nil
	}
	if s.ExternalRef.DTStart != "" {
		dtstart = &s.ExternalRef.DTStart
	}
	if s.ExternalRef.RRule != "" {
		rrule = &s.ExternalRef.RRule
	}
	if s.ExternalRef.TZID != "" {
		tzid = &s.ExternalRef.TZID
	}
	return dtstart, rrule, tzid
}

// Create создаёт новый шаблон расписания
func (r *RecurringScheduleRepository) Create(ctx context.Context, schedule *model.RecurringSchedule) error {
	query := `
		INSERT INTO recurring_schedules (teacher_id, student_id, day_of_week, start_minute, duration_minutes, timezone, is_active, ext_dtstart, ext_rrule, ext_tzid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	dtstart, rrule, tzid := extRefFields(schedule)
	err := r.DB(ctx).QueryRow(
		ctx,
		query,
		schedule.TeacherID,
		schedule.StudentID,
		schedule.DayOfWeek,
		schedule.StartMinute,
		schedule.DurationMinutes,
		schedule.Timezone,
		schedule.IsActive,
		dtstart,
		rrule,
		tzid,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurring schedule: %w", err)
	}

	return nil
}

// GetByID получает шаблон по ID. Возвращает nil, nil если шаблона нет.
func (r *RecurringScheduleRepository) GetByID(ctx context.Context, id int64) (*model.RecurringSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_schedules WHERE id = $1`

	schedule, err := scanSchedule(r.DB(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring schedule by id: %w", err)
	}

	return schedule, nil
}

func (r *RecurringScheduleRepository) queryMany(ctx context.Context, query string, args ...any) ([]*model.RecurringSchedule, error) {
	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*model.RecurringSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// GetByTeacherID получает все шаблоны учителя
func (r *RecurringScheduleRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM recurring_schedules
		WHERE teacher_id = $1
		ORDER BY day_of_week, start_minute
	`

	schedules, err := r.queryMany(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get recurring schedules by teacher: %w", err)
	}
	return schedules, nil
}

// GetActiveByTeacherID получает активные шаблоны учителя.
// Неактивные исключаются и из материализации, и из проверок пересечений.
func (r *RecurringScheduleRepository) GetActiveByTeacherID(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM recurring_schedules
		WHERE teacher_id = $1 AND is_active = true
		ORDER BY day_of_week, start_minute
	`

	schedules, err := r.queryMany(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get active recurring schedules by teacher: %w", err)
	}
	return schedules, nil
}

// ListActiveTeacherIDs возвращает учителей, у которых есть активные шаблоны.
// Используется фоновой задачей материализации.
func (r *RecurringScheduleRepository) ListActiveTeacherIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT teacher_id FROM recurring_schedules WHERE is_active = true`

	rows, err := r.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active teacher ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan teacher id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Update обновляет шаблон расписания
func (r *RecurringScheduleRepository) Update(ctx context.Context, schedule *model.RecurringSchedule) error {
	query := `
		UPDATE recurring_schedules
		SET day_of_week = $2, start_minute = $3, duration_minutes = $4, timezone = $5,
		    is_active = $6, ext_dtstart = $7, ext_rrule = $8, ext_tzid = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	dtstart, rrule, tzid := extRefFields(schedule)
	err := r.DB(ctx).QueryRow(
		ctx,
		query,
		schedule.ID,
		schedule.DayOfWeek,
		schedule.StartMinute,
		schedule.DurationMinutes,
		schedule.Timezone,
		schedule.IsActive,
		dtstart,
		rrule,
		tzid,
	).Scan(&schedule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("update recurring schedule: %w", err)
	}

	return nil
}

// Deactivate мягко отключает шаблон, история занятий сохраняется
func (r *RecurringScheduleRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE recurring_schedules SET is_active = false, updated_at = now() WHERE id = $1`

	_, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring schedule: %w", err)
	}

	return nil
}

// Delete удаляет шаблон. Проверка на живые занятия — обязанность сервиса.
func (r *RecurringScheduleRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM recurring_schedules WHERE id = $1`

	_, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete recurring schedule: %w", err)
	}

	return nil
}
