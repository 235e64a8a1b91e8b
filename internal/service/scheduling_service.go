package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/conflict"
	"github.com/Freeeeeet/lesson_scheduler/internal/ical"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/notify"
	"github.com/Freeeeeet/lesson_scheduler/internal/scherr"
	"github.com/Freeeeeet/lesson_scheduler/internal/timeutil"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// SchedulingService — фасад движка расписаний. Композирует детектор
// пересечений, материализацию шаблонов и машину состояний занятий
// поверх внедрённых хранилищ. Никакого межзапросного состояния
// сервис не держит.
type SchedulingService struct {
	scheduleRepo ScheduleRepo
	sessionRepo  SessionRepo
	locker       TeacherLocker
	tenants      TenantResolver
	notifier     notify.Notifier
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewSchedulingService(
	scheduleRepo ScheduleRepo,
	sessionRepo SessionRepo,
	locker TeacherLocker,
	tenants TenantResolver,
	notifier notify.Notifier,
	logger *zap.Logger,
) *SchedulingService {
	return &SchedulingService{
		scheduleRepo: scheduleRepo,
		sessionRepo:  sessionRepo,
		locker:       locker,
		tenants:      tenants,
		notifier:     notifier,
		validate:     newValidator(),
		logger:       logger,
	}
}

// CreateRecurringSchedule создаёт шаблон еженедельного занятия.
// Окно шаблона проверяется на пересечения с остальными активными
// шаблонами того же учителя под его блокировкой.
func (s *SchedulingService) CreateRecurringSchedule(ctx context.Context, in CreateScheduleInput) (*model.RecurringSchedule, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if err := validateSameDay(in.StartMinute, in.DurationMinutes); err != nil {
		return nil, err
	}

	if err := s.checkTenant(ctx, in.TeacherID, in.StudentID); err != nil {
		return nil, err
	}

	schedule := &model.RecurringSchedule{
		TeacherID:       in.TeacherID,
		StudentID:       in.StudentID,
		DayOfWeek:       in.DayOfWeek,
		StartMinute:     in.StartMinute,
		DurationMinutes: in.DurationMinutes,
		Timezone:        in.Timezone,
		IsActive:        true,
		ExternalRef:     in.ExternalRef,
	}

	err := s.locker.WithTeacherLock(ctx, in.TeacherID, func(ctx context.Context) error {
		if err := s.checkScheduleConflicts(ctx, schedule, 0); err != nil {
			return err
		}
		return s.scheduleRepo.Create(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recurring schedule created",
		zap.Int64("schedule_id", schedule.ID),
		zap.Int64("teacher_id", schedule.TeacherID),
		zap.Int64("student_id", schedule.StudentID),
		zap.String("day", schedule.DayOfWeek.String()),
		zap.String("start", schedule.StartClock()),
	)

	return schedule, nil
}

// UpdateRecurringSchedule применяет частичное обновление шаблона
// и заново проверяет результат на пересечения
func (s *SchedulingService) UpdateRecurringSchedule(ctx context.Context, id int64, patch UpdateScheduleInput) (*model.RecurringSchedule, error) {
	existing, err := s.getSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *model.RecurringSchedule
	err = s.locker.WithTeacherLock(ctx, existing.TeacherID, func(ctx context.Context) error {
		// Перечитываем под блокировкой: снимок до неё мог устареть
		schedule, err := s.getSchedule(ctx, id)
		if err != nil {
			return err
		}

		applyPatch(schedule, patch)

		if err := s.validateStruct(CreateScheduleInput{
			TeacherID:       schedule.TeacherID,
			StudentID:       schedule.StudentID,
			DayOfWeek:       schedule.DayOfWeek,
			StartMinute:     schedule.StartMinute,
			DurationMinutes: schedule.DurationMinutes,
			Timezone:        schedule.Timezone,
		}); err != nil {
			return err
		}
		if err := validateSameDay(schedule.StartMinute, schedule.DurationMinutes); err != nil {
			return err
		}

		// Неактивный шаблон не участвует в пересечениях
		if schedule.IsActive {
			if err := s.checkScheduleConflicts(ctx, schedule, schedule.ID); err != nil {
				return err
			}
		}

		if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
			return err
		}
		updated = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recurring schedule updated",
		zap.Int64("schedule_id", updated.ID),
		zap.Int64("teacher_id", updated.TeacherID),
	)

	return updated, nil
}

// DeactivateRecurringSchedule мягко отключает шаблон. Уже созданные
// занятия остаются, новые не материализуются.
func (s *SchedulingService) DeactivateRecurringSchedule(ctx context.Context, id int64) error {
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return err
	}

	if err := s.scheduleRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Recurring schedule deactivated",
		zap.Int64("schedule_id", id),
		zap.Int64("teacher_id", schedule.TeacherID),
	)

	return nil
}

// DeleteRecurringSchedule окончательно удаляет шаблон. Отказывает,
// пока на шаблон ссылаются живые занятия: для них предназначена
// деактивация, сохраняющая историю.
func (s *SchedulingService) DeleteRecurringSchedule(ctx context.Context, id int64) error {
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return err
	}

	live, err := s.sessionRepo.CountNonTerminalBySchedule(ctx, id)
	if err != nil {
		return err
	}
	if live > 0 {
		return &scherr.StateError{
			Entity:    "recurring schedule",
			Current:   fmt.Sprintf("referenced by %d live sessions", live),
			Attempted: "delete",
		}
	}

	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Recurring schedule deleted",
		zap.Int64("schedule_id", id),
		zap.Int64("teacher_id", schedule.TeacherID),
	)

	return nil
}

// GetRecurringSchedule возвращает шаблон по ID
func (s *SchedulingService) GetRecurringSchedule(ctx context.Context, id int64) (*model.RecurringSchedule, error) {
	return s.getSchedule(ctx, id)
}

// GetTeacherSchedules возвращает все шаблоны учителя
func (s *SchedulingService) GetTeacherSchedules(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error) {
	return s.scheduleRepo.GetByTeacherID(ctx, teacherID)
}

// ExportScheduleICal рендерит iCal-представление шаблона.
// anchorFrom — дата, от которой ищется первое вхождение для DTSTART.
func (s *SchedulingService) ExportScheduleICal(ctx context.Context, id int64, anchorFrom timeutil.CivilDate) (ical.Event, error) {
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return ical.Event{}, err
	}

	loc, err := timeutil.LoadLocation(schedule.Timezone)
	if err != nil {
		return ical.Event{}, scherr.NewValidation("Timezone", err.Error())
	}

	anchor := anchorFrom
	for timeutil.WeekdayOf(anchor, loc) != schedule.DayOfWeek {
		anchor = anchor.AddDays(1)
	}

	return ical.EventOf(schedule, anchor), nil
}

// getSchedule достаёт шаблон и переводит отсутствие в NotFoundError
func (s *SchedulingService) getSchedule(ctx context.Context, id int64) (*model.RecurringSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, &scherr.NotFoundError{Entity: "recurring schedule", ID: id}
	}
	return schedule, nil
}

// checkScheduleConflicts сверяет окно шаблона с остальными активными
// шаблонами учителя. excludeID исключает сам обновляемый шаблон.
// Вызывается только под блокировкой учителя.
func (s *SchedulingService) checkScheduleConflicts(ctx context.Context, schedule *model.RecurringSchedule, excludeID int64) error {
	active, err := s.scheduleRepo.GetActiveByTeacherID(ctx, schedule.TeacherID)
	if err != nil {
		return err
	}

	existing := make([]conflict.Window, 0, len(active))
	for _, other := range active {
		if other.ID == excludeID {
			continue
		}
		existing = append(existing, conflict.WindowOf(other))
	}

	conflicts := conflict.FindConflicts(conflict.WindowOf(schedule), existing)
	if len(conflicts) > 0 {
		ids := make([]int64, len(conflicts))
		for i, w := range conflicts {
			ids[i] = w.ID
		}
		return &scherr.ConflictError{ScheduleIDs: ids}
	}

	return nil
}

func (s *SchedulingService) checkTenant(ctx context.Context, teacherID, studentID int64) error {
	same, err := s.tenants.SameSchool(ctx, teacherID, studentID)
	if err != nil {
		return fmt.Errorf("resolve tenant: %w", err)
	}
	if !same {
		return scherr.NewValidation("StudentID", "teacher and student belong to different schools")
	}
	return nil
}

func applyPatch(schedule *model.RecurringSchedule, patch UpdateScheduleInput) {
	if patch.DayOfWeek != nil {
		schedule.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartMinute != nil {
		schedule.StartMinute = *patch.StartMinute
	}
	if patch.DurationMinutes != nil {
		schedule.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Timezone != nil {
		schedule.Timezone = *patch.Timezone
	}
	if patch.IsActive != nil {
		schedule.IsActive = *patch.IsActive
	}
	if patch.ExternalRef != nil {
		schedule.ExternalRef = patch.ExternalRef
	}
}
