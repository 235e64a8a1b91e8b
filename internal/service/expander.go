package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/scherr"
	"github.com/Freeeeeet/lesson_scheduler/internal/timeutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxExpandDays ограничивает диапазон одной материализации,
// чтобы батч оставался обозримым
const maxExpandDays = 370

// expandConcurrency — потолок параллельных учителей в батче
const expandConcurrency = 4

// ExpandSessions материализует занятия всех активных шаблонов учителя
// на диапазон дат [rangeStart, rangeEnd] включительно. Возвращает только
// новые занятия: для дат, на которые занятие шаблона уже существует,
// ничего не создаётся, поэтому повторные вызовы по пересекающимся
// диапазонам безопасны.
//
// Пересечения на этом шаге не проверяются: активные шаблоны одного
// учителя уже не пересекаются по построению, значит и их вхождения
// пересечься не могут. Ad hoc занятия проверяются при своём создании.
func (s *SchedulingService) ExpandSessions(ctx context.Context, teacherID int64, rangeStart, rangeEnd timeutil.CivilDate) ([]*model.Session, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, scherr.NewValidation("rangeEnd", "must not be before range start")
	}
	if timeutil.DaysBetween(rangeStart, rangeEnd) > maxExpandDays {
		return nil, scherr.NewValidation("rangeEnd", "range too wide")
	}

	var created []*model.Session
	err := s.locker.WithTeacherLock(ctx, teacherID, func(ctx context.Context) error {
		schedules, err := s.scheduleRepo.GetActiveByTeacherID(ctx, teacherID)
		if err != nil {
			return err
		}

		for _, schedule := range schedules {
			sessions, err := s.expandSchedule(ctx, schedule, rangeStart, rangeEnd)
			if err != nil {
				return err
			}
			created = append(created, sessions...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sessions expanded",
		zap.Int64("teacher_id", teacherID),
		zap.String("range_start", rangeStart.String()),
		zap.String("range_end", rangeEnd.String()),
		zap.Int("created", len(created)),
	)

	return created, nil
}

// expandSchedule идёт по календарным датам диапазона в зоне шаблона
// и создаёт отсутствующие занятия
func (s *SchedulingService) expandSchedule(ctx context.Context, schedule *model.RecurringSchedule, rangeStart, rangeEnd timeutil.CivilDate) ([]*model.Session, error) {
	if !schedule.IsActive {
		return nil, nil
	}

	loc, err := timeutil.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, scherr.NewValidation("Timezone", err.Error())
	}

	var created []*model.Session
	for d := rangeStart; !d.After(rangeEnd); d = d.AddDays(1) {
		if timeutil.WeekdayOf(d, loc) != schedule.DayOfWeek {
			continue
		}

		localDate := d.String()
		exists, err := s.sessionRepo.ExistsForScheduleDate(ctx, schedule.ID, localDate)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		// Абсолютные инстанты считаются один раз, при материализации,
		// со смещением зоны именно этой даты
		start := timeutil.LocalToUTC(d, schedule.StartMinute, loc)
		end := start.Add(time.Duration(schedule.DurationMinutes) * time.Minute)

		scheduleID := schedule.ID
		session := &model.Session{
			RecurringScheduleID: &scheduleID,
			TeacherID:           schedule.TeacherID,
			StudentID:           schedule.StudentID,
			StartTime:           start,
			EndTime:             end,
			LocalDate:           localDate,
			Status:              model.SessionStatusScheduled,
		}

		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return nil, err
		}
		created = append(created, session)
	}

	return created, nil
}

// ExpandAllTeachers материализует занятия всех учителей с активными
// шаблонами на daysAhead дней вперёд от from. Учителя независимы,
// поэтому идут параллельно; отказ одного логируется и не роняет батч.
// Возвращает количество созданных занятий.
func (s *SchedulingService) ExpandAllTeachers(ctx context.Context, from timeutil.CivilDate, daysAhead int) (int, error) {
	if daysAhead < 1 || daysAhead > maxExpandDays {
		return 0, scherr.NewValidation("daysAhead", "out of bounds")
	}

	teacherIDs, err := s.scheduleRepo.ListActiveTeacherIDs(ctx)
	if err != nil {
		return 0, err
	}

	rangeEnd := from.AddDays(daysAhead)

	var g errgroup.Group
	g.SetLimit(expandConcurrency)

	counts := make(chan int, len(teacherIDs))
	for _, teacherID := range teacherIDs {
		g.Go(func() error {
			created, err := s.ExpandSessions(ctx, teacherID, from, rangeEnd)
			if err != nil {
				s.logger.Error("Failed to expand sessions for teacher",
					zap.Int64("teacher_id", teacherID),
					zap.Error(err))
				return nil
			}
			counts <- len(created)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(counts)

	total := 0
	for n := range counts {
		total += n
	}

	s.logger.Info("Expanded sessions for all teachers",
		zap.Int("teachers", len(teacherIDs)),
		zap.Int("total_created", total),
	)

	return total, nil
}
