package service

import (
	"errors"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/scherr"
	"github.com/go-playground/validator/v10"
)

// Типизированные входные структуры операций. Каждая операция получает
// свою структуру с тегами валидации вместо одного свободного объекта.

// CreateScheduleInput — создание шаблона расписания
type CreateScheduleInput struct {
	TeacherID       int64              `validate:"required,gt=0"`
	StudentID       int64              `validate:"required,gt=0"`
	DayOfWeek       model.DayOfWeek    `validate:"required,min=1,max=7"`
	StartMinute     int                `validate:"min=0,max=1439"`
	DurationMinutes int                `validate:"required,min=1,max=480"`
	Timezone        string             `validate:"required,timezone"`
	ExternalRef     *model.ExternalRef `validate:"-"`
}

// UpdateScheduleInput — частичное обновление шаблона.
// nil-поле означает "не менять". Результат слияния проходит ту же
// валидацию и проверку пересечений, что и создание.
type UpdateScheduleInput struct {
	DayOfWeek       *model.DayOfWeek
	StartMinute     *int
	DurationMinutes *int
	Timezone        *string
	IsActive        *bool
	ExternalRef     *model.ExternalRef
}

// CreateAdHocSessionInput — создание разового занятия вне шаблона
type CreateAdHocSessionInput struct {
	TeacherID int64     `validate:"required,gt=0"`
	StudentID int64     `validate:"required,gt=0"`
	Title     string    `validate:"max=200"`
	StartTime time.Time `validate:"required"`
	EndTime   time.Time `validate:"required"`
	Notes     string    `validate:"max=2000"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateStruct прогоняет структуру через validator и переводит
// первую ошибку в ValidationError движка
func (s *SchedulingService) validateStruct(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return scherr.NewValidation(verrs[0].Field(), "failed rule "+verrs[0].Tag())
	}

	return scherr.NewValidation("", err.Error())
}

// validateInterval проверяет абсолютный интервал занятия:
// начало строго раньше конца, длительность в пределах границ.
func validateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return scherr.NewValidation("EndTime", "must be after start time")
	}
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < 1 || minutes > model.MaxDurationMinutes {
		return scherr.NewValidation("EndTime", "duration out of bounds")
	}
	return nil
}

// validateSameDay проверяет что окно шаблона не пересекает полночь
func validateSameDay(startMinute, durationMinutes int) error {
	if startMinute+durationMinutes > 24*60 {
		return scherr.NewValidation("DurationMinutes", "schedule must not cross midnight")
	}
	return nil
}
