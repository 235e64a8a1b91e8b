package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/Freeeeeet/lesson_scheduler/internal/timeutil"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler управляет фоновой материализацией занятий по cron-расписанию
type Scheduler struct {
	scheduling *service.SchedulingService
	cron       *cron.Cron
	spec       string
	daysAhead  int
	logger     *zap.Logger
}

// NewScheduler создаёт планировщик. spec — cron-выражение запуска,
// daysAhead — горизонт материализации в днях.
func NewScheduler(scheduling *service.SchedulingService, spec string, daysAhead int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduling: scheduling,
		cron:       cron.New(),
		spec:       spec,
		daysAhead:  daysAhead,
		logger:     logger,
	}
}

// Start запускает фоновые задачи. Первый прогон выполняется сразу,
// чтобы после старта занятия были материализованы на весь горизонт.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting background scheduler",
		zap.String("cron", s.spec),
		zap.Int("days_ahead", s.daysAhead))

	_, err := s.cron.AddFunc(s.spec, func() { s.expand(ctx) })
	if err != nil {
		return err
	}

	go s.expand(ctx)
	s.cron.Start()
	return nil
}

// Stop останавливает фоновые задачи и дожидается завершения текущей
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

// expand материализует занятия всех учителей на горизонт вперёд.
// Прогоны идемпотентны: существующее вхождение не создаётся повторно,
// поэтому упавший батч безопасно повторяется целиком.
func (s *Scheduler) expand(ctx context.Context) {
	s.logger.Info("Starting session expansion run")

	from := timeutil.CivilDateOf(time.Now(), time.UTC)
	total, err := s.scheduling.ExpandAllTeachers(ctx, from, s.daysAhead)
	if err != nil {
		s.logger.Error("Session expansion run failed", zap.Error(err))
		return
	}

	s.logger.Info("Session expansion run completed", zap.Int("created", total))
}
