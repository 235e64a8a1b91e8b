package conflict

import (
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

func TestFindConflicts(t *testing.T) {
	monday1600 := Window{ID: 1, Day: model.Monday, StartMinute: 16 * 60, EndMinute: 16*60 + 45}

	t.Run("overlapping window on same day conflicts", func(t *testing.T) {
		candidate := Window{Day: model.Monday, StartMinute: 16*60 + 30, EndMinute: 17*60 + 15}
		got := FindConflicts(candidate, []Window{monday1600})
		if len(got) != 1 || got[0].ID != 1 {
			t.Fatalf("expected conflict with window 1, got %v", got)
		}
	})

	t.Run("touching boundary is not a conflict", func(t *testing.T) {
		// занятия впритык разрешены: [16:00,16:45) и [16:45,17:30)
		candidate := Window{Day: model.Monday, StartMinute: 16*60 + 45, EndMinute: 17*60 + 30}
		if got := FindConflicts(candidate, []Window{monday1600}); len(got) != 0 {
			t.Fatalf("touching boundary reported as conflict: %v", got)
		}
	})

	t.Run("same time on another day does not conflict", func(t *testing.T) {
		candidate := Window{Day: model.Tuesday, StartMinute: 16 * 60, EndMinute: 16*60 + 45}
		if got := FindConflicts(candidate, []Window{monday1600}); len(got) != 0 {
			t.Fatalf("different weekday reported as conflict: %v", got)
		}
	})

	t.Run("containment conflicts", func(t *testing.T) {
		candidate := Window{Day: model.Monday, StartMinute: 15 * 60, EndMinute: 18 * 60}
		if got := FindConflicts(candidate, []Window{monday1600}); len(got) != 1 {
			t.Fatalf("containing window not reported: %v", got)
		}
	})

	t.Run("multiple conflicts are all reported", func(t *testing.T) {
		existing := []Window{
			{ID: 1, Day: model.Monday, StartMinute: 16 * 60, EndMinute: 17 * 60},
			{ID: 2, Day: model.Monday, StartMinute: 17 * 60, EndMinute: 18 * 60},
			{ID: 3, Day: model.Monday, StartMinute: 19 * 60, EndMinute: 20 * 60},
		}
		candidate := Window{Day: model.Monday, StartMinute: 16*60 + 30, EndMinute: 17*60 + 30}
		got := FindConflicts(candidate, existing)
		if len(got) != 2 {
			t.Fatalf("expected 2 conflicts, got %v", got)
		}
	})
}

func TestOverlapsProperty(t *testing.T) {
	// симметрия и полуоткрытость на сетке коротких окон
	for s1 := 0; s1 < 120; s1 += 15 {
		for s2 := 0; s2 < 120; s2 += 15 {
			e1, e2 := s1+45, s2+45
			a, b := Overlaps(s1, e1, s2, e2), Overlaps(s2, e2, s1, e1)
			if a != b {
				t.Fatalf("overlap not symmetric for [%d,%d) [%d,%d)", s1, e1, s2, e2)
			}
			if s1 == e2 || s2 == e1 {
				if a {
					t.Fatalf("touching intervals [%d,%d) [%d,%d) overlap", s1, e1, s2, e2)
				}
			}
		}
	}
}

func TestOverlappingSessions(t *testing.T) {
	base := time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC)
	sessions := []*model.Session{
		{ID: 1, Status: model.SessionStatusScheduled, StartTime: base, EndTime: base.Add(45 * time.Minute)},
		{ID: 2, Status: model.SessionStatusCancelled, StartTime: base, EndTime: base.Add(45 * time.Minute)},
		{ID: 3, Status: model.SessionStatusReschedulePending, StartTime: base.Add(45 * time.Minute), EndTime: base.Add(90 * time.Minute)},
	}

	t.Run("cancelled sessions are ignored", func(t *testing.T) {
		got := OverlappingSessions(base, base.Add(30*time.Minute), sessions, 0)
		if len(got) != 1 || got[0].ID != 1 {
			t.Fatalf("expected only session 1, got %v", got)
		}
	})

	t.Run("back to back instants do not overlap", func(t *testing.T) {
		got := OverlappingSessions(base.Add(-45*time.Minute), base, sessions, 0)
		if len(got) != 0 {
			t.Fatalf("touching instants reported: %v", got)
		}
	})

	t.Run("session under check is skipped", func(t *testing.T) {
		got := OverlappingSessions(base, base.Add(30*time.Minute), sessions, 1)
		if len(got) != 0 {
			t.Fatalf("skip id ignored: %v", got)
		}
	})

	t.Run("pending sessions still occupy time", func(t *testing.T) {
		got := OverlappingSessions(base.Add(60*time.Minute), base.Add(75*time.Minute), sessions, 0)
		if len(got) != 1 || got[0].ID != 3 {
			t.Fatalf("expected session 3, got %v", got)
		}
	})
}
