package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayOfWeek — канонический день недели по ISO-8601: 1 = Monday, 7 = Sunday.
// Все внешние кодировки (двухбуквенные коды iCal, текстовые названия,
// числовые индексы с воскресеньем в нуле) приводятся к этому типу на границе.
type DayOfWeek int

const (
	Monday    DayOfWeek = 1
	Tuesday   DayOfWeek = 2
	Wednesday DayOfWeek = 3
	Thursday  DayOfWeek = 4
	Friday    DayOfWeek = 5
	Saturday  DayOfWeek = 6
	Sunday    DayOfWeek = 7
)

var dayNames = map[DayOfWeek]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// Valid проверяет что значение находится в диапазоне 1..7
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d DayOfWeek) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DayOfWeek(%d)", int(d))
}

// Weekday конвертирует в time.Weekday (0 = Sunday)
func (d DayOfWeek) Weekday() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(d)
}

// DayOfWeekFromTime конвертирует time.Weekday (0 = Sunday) в ISO-день
func DayOfWeekFromTime(wd time.Weekday) DayOfWeek {
	if wd == time.Sunday {
		return Sunday
	}
	return DayOfWeek(wd)
}

// ParseDayOfWeek разбирает день недели из внешнего представления.
// Принимает ISO-число ("1".."7"), название ("monday", "Monday")
// и двухбуквенный код iCal ("MO".."SU").
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	v := strings.TrimSpace(s)

	if n, err := strconv.Atoi(v); err == nil {
		d := DayOfWeek(n)
		if !d.Valid() {
			return 0, fmt.Errorf("day of week out of range: %d", n)
		}
		return d, nil
	}

	switch strings.ToLower(v) {
	case "mo", "mon", "monday":
		return Monday, nil
	case "tu", "tue", "tuesday":
		return Tuesday, nil
	case "we", "wed", "wednesday":
		return Wednesday, nil
	case "th", "thu", "thursday":
		return Thursday, nil
	case "fr", "fri", "friday":
		return Friday, nil
	case "sa", "sat", "saturday":
		return Saturday, nil
	case "su", "sun", "sunday":
		return Sunday, nil
	}

	return 0, fmt.Errorf("unknown day of week: %q", s)
}

// DayOfWeekFromLegacyIndex разбирает числовой индекс старой схемы,
// где 0 = Sunday, 6 = Saturday.
func DayOfWeekFromLegacyIndex(n int) (DayOfWeek, error) {
	if n < 0 || n > 6 {
		return 0, fmt.Errorf("legacy weekday index out of range: %d", n)
	}
	return DayOfWeekFromTime(time.Weekday(n)), nil
}
