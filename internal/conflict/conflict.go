// Package conflict реализует поиск пересечений временных окон.
// Интервалы полуоткрытые [start, end): соприкасающиеся границы
// (end одного == start другого) пересечением не считаются,
// занятия впритык разрешены.
package conflict

import (
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Window — недельное окно в минутах с полуночи в зоне ресурса.
// Окна не пересекают полночь, сравниваются только в пределах одного дня.
type Window struct {
	ID          int64
	Day         model.DayOfWeek
	StartMinute int
	EndMinute   int
}

// Overlaps сообщает пересекаются ли два полуоткрытых интервала в минутах
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// FindConflicts возвращает окна из existing, пересекающиеся с candidate.
// Сравниваются только окна того же дня недели.
func FindConflicts(candidate Window, existing []Window) []Window {
	var conflicts []Window
	for _, w := range existing {
		if w.Day != candidate.Day {
			continue
		}
		if Overlaps(candidate.StartMinute, candidate.EndMinute, w.StartMinute, w.EndMinute) {
			conflicts = append(conflicts, w)
		}
	}
	return conflicts
}

// WindowOf строит недельное окно из шаблона расписания
func WindowOf(s *model.RecurringSchedule) Window {
	return Window{
		ID:          s.ID,
		Day:         s.DayOfWeek,
		StartMinute: s.StartMinute,
		EndMinute:   s.EndMinute(),
	}
}

// InstantsOverlap сообщает пересекаются ли два полуоткрытых интервала инстантов
func InstantsOverlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// OverlappingSessions возвращает занятия, чьё время пересекается с [start, end).
// Учитываются только занятия в занимающих статусах; занятие с id skipID
// (само проверяемое) пропускается.
func OverlappingSessions(start, end time.Time, sessions []*model.Session, skipID int64) []*model.Session {
	var conflicts []*model.Session
	for _, s := range sessions {
		if s.ID == skipID {
			continue
		}
		if !s.Status.Occupies() {
			continue
		}
		if InstantsOverlap(start, end, s.StartTime, s.EndTime) {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts
}
