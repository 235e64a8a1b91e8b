package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// ScheduleRepo — хранилище шаблонов расписаний
type ScheduleRepo interface {
	Create(ctx context.Context, schedule *model.RecurringSchedule) error
	GetByID(ctx context.Context, id int64) (*model.RecurringSchedule, error)
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error)
	GetActiveByTeacherID(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error)
	ListActiveTeacherIDs(ctx context.Context) ([]int64, error)
	Update(ctx context.Context, schedule *model.RecurringSchedule) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// SessionRepo — хранилище занятий
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetByTeacherInRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error)
	GetOccupiedByTeacherInRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error)
	ExistsForScheduleDate(ctx context.Context, scheduleID int64, localDate string) (bool, error)
	CountNonTerminalBySchedule(ctx context.Context, scheduleID int64) (int, error)
	Update(ctx context.Context, session *model.Session) error
}

// TeacherLocker сериализует конфликт-чувствительные мутации одного учителя.
// Чтение существующих окон, проверка пересечений и запись выполняются
// как один атомарный шаг под блокировкой; без этого два конкурентных
// запроса могут пройти проверку по устаревшему снимку и оба закоммититься.
type TeacherLocker interface {
	WithTeacherLock(ctx context.Context, teacherID int64, fn func(ctx context.Context) error) error
}

// TenantResolver отвечает принадлежат ли учитель и ученик одной школе.
// Само разрешение тенантов — обязанность внешнего слоя.
type TenantResolver interface {
	SameSchool(ctx context.Context, teacherID, studentID int64) (bool, error)
}

// AllowAllTenants — разрешает любые пары. Для однотенантных инсталляций
// и тестов.
type AllowAllTenants struct{}

func (AllowAllTenants) SameSchool(ctx context.Context, teacherID, studentID int64) (bool, error) {
	return true, nil
}
