// Package timeutil содержит чистые функции работы с календарными датами,
// минутами с полуночи и конвертацией локального времени в UTC.
package timeutil

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// CivilDate — календарная дата без времени и зоны
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// CivilDateOf возвращает календарную дату инстанта в указанной зоне
func CivilDateOf(t time.Time, loc *time.Location) CivilDate {
	y, m, d := t.In(loc).Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate разбирает дату из "2006-01-02"
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("parse civil date: %w", err)
	}
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}, nil
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays сдвигает дату на n календарных дней.
// Арифметика идёт через UTC, чтобы переходы DST не влияли на счёт дней.
func (d CivilDate) AddDays(n int) CivilDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	y, m, dd := t.Date()
	return CivilDate{Year: y, Month: m, Day: dd}
}

// Before сообщает предшествует ли дата other
func (d CivilDate) Before(other CivilDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After сообщает следует ли дата за other
func (d CivilDate) After(other CivilDate) bool {
	return other.Before(d)
}

// DaysBetween возвращает количество дней от d до other (other - d)
func DaysBetween(d, other CivilDate) int {
	a := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.Year, other.Month, other.Day, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// LoadLocation загружает зону IANA по имени.
// Пустое имя не принимается: расписание обязано объявить свою зону явно.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone is empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// WeekdayOf возвращает ISO-день недели календарной даты в указанной зоне
func WeekdayOf(d CivilDate, loc *time.Location) model.DayOfWeek {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	return model.DayOfWeekFromTime(t.Weekday())
}

// LocalToUTC собирает календарную дату и локальное время (минуты с полуночи)
// в абсолютный инстант UTC. Смещение зоны берётся для конкретной даты,
// поэтому занятие в 16:00 остаётся в 16:00 по стене с обеих сторон
// перехода на летнее время, хотя его смещение от UTC меняется.
func LocalToUTC(d CivilDate, minuteOfDay int, loc *time.Location) time.Time {
	t := time.Date(d.Year, d.Month, d.Day, minuteOfDay/60, minuteOfDay%60, 0, 0, loc)
	return t.UTC()
}

// MinuteOfDay возвращает минуты с полуночи инстанта в указанной зоне
func MinuteOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}
