package timeutil

import (
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestLoadLocation(t *testing.T) {
	if _, err := LoadLocation("Europe/Amsterdam"); err != nil {
		t.Errorf("valid zone rejected: %v", err)
	}
	if _, err := LoadLocation("Mars/Olympus_Mons"); err == nil {
		t.Error("invalid zone accepted")
	}
	if _, err := LoadLocation(""); err == nil {
		t.Error("empty zone accepted")
	}
}

func TestWeekdayOf(t *testing.T) {
	ams := mustLocation(t, "Europe/Amsterdam")

	// 2024-01-01 — понедельник
	if got := WeekdayOf(CivilDate{2024, time.January, 1}, ams); got != model.Monday {
		t.Errorf("2024-01-01 in Amsterdam: got %v, want Monday", got)
	}
	// 2024-03-31 — воскресенье (день перехода на летнее время)
	if got := WeekdayOf(CivilDate{2024, time.March, 31}, ams); got != model.Sunday {
		t.Errorf("2024-03-31 in Amsterdam: got %v, want Sunday", got)
	}
}

func TestLocalToUTCPreservesWallClockAcrossDST(t *testing.T) {
	ams := mustLocation(t, "Europe/Amsterdam")

	// Понедельники по обе стороны перехода 2024-03-31
	before := LocalToUTC(CivilDate{2024, time.March, 25}, 16*60, ams)
	after := LocalToUTC(CivilDate{2024, time.April, 1}, 16*60, ams)

	// По стене — 16:00 в обоих случаях
	if got := MinuteOfDay(before, ams); got != 16*60 {
		t.Errorf("before DST: local minute = %d, want %d", got, 16*60)
	}
	if got := MinuteOfDay(after, ams); got != 16*60 {
		t.Errorf("after DST: local minute = %d, want %d", got, 16*60)
	}

	// По UTC смещение разное: CET = UTC+1, CEST = UTC+2
	if before.Hour() != 15 {
		t.Errorf("before DST: UTC hour = %d, want 15", before.Hour())
	}
	if after.Hour() != 14 {
		t.Errorf("after DST: UTC hour = %d, want 14", after.Hour())
	}
}

func TestCivilDateArithmetic(t *testing.T) {
	d := CivilDate{2024, time.January, 31}

	next := d.AddDays(1)
	if next != (CivilDate{2024, time.February, 1}) {
		t.Errorf("AddDays(1) over month boundary: got %v", next)
	}

	if DaysBetween(d, next) != 1 {
		t.Errorf("DaysBetween: got %d, want 1", DaysBetween(d, next))
	}

	if !d.Before(next) || next.Before(d) || !next.After(d) {
		t.Error("Before/After ordering broken")
	}

	if d.String() != "2024-01-31" {
		t.Errorf("String: got %s", d.String())
	}

	parsed, err := ParseCivilDate("2024-01-31")
	if err != nil || parsed != d {
		t.Errorf("ParseCivilDate: got %v, %v", parsed, err)
	}
	if _, err := ParseCivilDate("31.01.2024"); err == nil {
		t.Error("ParseCivilDate accepted wrong format")
	}
}
