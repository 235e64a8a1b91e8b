// Package ical — граница интеропа с iCalendar. Здесь живут все
// конвертеры внешних кодировок; внутри движка день недели существует
// только как канонический model.DayOfWeek.
package ical

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/timeutil"
	"github.com/google/uuid"
)

var byDayCodes = map[model.DayOfWeek]string{
	model.Monday:    "MO",
	model.Tuesday:   "TU",
	model.Wednesday: "WE",
	model.Thursday:  "TH",
	model.Friday:    "FR",
	model.Saturday:  "SA",
	model.Sunday:    "SU",
}

// ByDayCode возвращает двухбуквенный код дня недели для RRULE
func ByDayCode(d model.DayOfWeek) string {
	return byDayCodes[d]
}

// ParseByDay разбирает двухбуквенный код BYDAY
func ParseByDay(code string) (model.DayOfWeek, error) {
	for d, c := range byDayCodes {
		if c == strings.ToUpper(strings.TrimSpace(code)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown BYDAY code: %q", code)
}

// Event — сериализованное iCal-представление шаблона расписания
type Event struct {
	UID     string
	DTStart string // "DTSTART;TZID=Europe/Amsterdam:20240108T160000"
	RRule   string // "FREQ=WEEKLY;BYDAY=MO"
	TZID    string
}

// EventOf рендерит iCal-представление шаблона. Сохранённые сквозные
// поля ExternalRef имеют приоритет над рендерингом: они пришли из
// внешней системы и возвращаются как есть.
// anchor — дата первого вхождения, используемая для DTSTART.
func EventOf(s *model.RecurringSchedule, anchor timeutil.CivilDate) Event {
	ev := Event{
		UID:     uuid.New().String(),
		TZID:    s.Timezone,
		DTStart: renderDTStart(s, anchor),
		RRule:   fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s", ByDayCode(s.DayOfWeek)),
	}

	if s.ExternalRef != nil {
		if s.ExternalRef.DTStart != "" {
			ev.DTStart = s.ExternalRef.DTStart
		}
		if s.ExternalRef.RRule != "" {
			ev.RRule = s.ExternalRef.RRule
		}
		if s.ExternalRef.TZID != "" {
			ev.TZID = s.ExternalRef.TZID
		}
	}

	return ev
}

func renderDTStart(s *model.RecurringSchedule, anchor timeutil.CivilDate) string {
	return fmt.Sprintf("DTSTART;TZID=%s:%04d%02d%02dT%02d%02d00",
		s.Timezone,
		anchor.Year, anchor.Month, anchor.Day,
		s.StartMinute/60, s.StartMinute%60)
}
