package service

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/conflict"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"go.uber.org/zap"
)

// In-memory реализации зависимостей сервиса для тестов.
// Хранят копии, как сделала бы база: мутация возвращённого указателя
// не видна хранилищу до явного Update.

type mockScheduleRepo struct {
	mu        sync.Mutex
	schedules map[int64]*model.RecurringSchedule
	nextID    int64
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[int64]*model.RecurringSchedule), nextID: 1}
}

func copySchedule(s *model.RecurringSchedule) *model.RecurringSchedule {
	c := *s
	if s.ExternalRef != nil {
		ref := *s.ExternalRef
		c.ExternalRef = &ref
	}
	return &c
}

func (r *mockScheduleRepo) Create(ctx context.Context, s *model.RecurringSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.schedules[s.ID] = copySchedule(s)
	return nil
}

func (r *mockScheduleRepo) GetByID(ctx context.Context, id int64) (*model.RecurringSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, nil
	}
	return copySchedule(s), nil
}

func (r *mockScheduleRepo) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RecurringSchedule
	for _, s := range r.schedules {
		if s.TeacherID == teacherID {
			out = append(out, copySchedule(s))
		}
	}
	return out, nil
}

func (r *mockScheduleRepo) GetActiveByTeacherID(ctx context.Context, teacherID int64) ([]*model.RecurringSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RecurringSchedule
	for _, s := range r.schedules {
		if s.TeacherID == teacherID && s.IsActive {
			out = append(out, copySchedule(s))
		}
	}
	return out, nil
}

func (r *mockScheduleRepo) ListActiveTeacherIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]bool)
	var out []int64
	for _, s := range r.schedules {
		if s.IsActive && !seen[s.TeacherID] {
			seen[s.TeacherID] = true
			out = append(out, s.TeacherID)
		}
	}
	return out, nil
}

func (r *mockScheduleRepo) Update(ctx context.Context, s *model.RecurringSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now()
	r.schedules[s.ID] = copySchedule(s)
	return nil
}

func (r *mockScheduleRepo) Deactivate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schedules[id]; ok {
		s.IsActive = false
	}
	return nil
}

func (r *mockScheduleRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schedules, id)
	return nil
}

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session
	nextID   int64
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[int64]*model.Session), nextID: 1}
}

func copySession(s *model.Session) *model.Session {
	c := *s
	if s.RecurringScheduleID != nil {
		id := *s.RecurringScheduleID
		c.RecurringScheduleID = &id
	}
	if s.PendingReschedule != nil {
		p := *s.PendingReschedule
		c.PendingReschedule = &p
	}
	return &c
}

func (r *mockSessionRepo) Create(ctx context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.sessions[s.ID] = copySession(s)
	return nil
}

func (r *mockSessionRepo) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (r *mockSessionRepo) GetByTeacherInRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.TeacherID == teacherID && conflict.InstantsOverlap(from, to, s.StartTime, s.EndTime) {
			out = append(out, copySession(s))
		}
	}
	return out, nil
}

func (r *mockSessionRepo) GetOccupiedByTeacherInRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.TeacherID == teacherID && s.Status.Occupies() && conflict.InstantsOverlap(from, to, s.StartTime, s.EndTime) {
			out = append(out, copySession(s))
		}
	}
	return out, nil
}

func (r *mockSessionRepo) ExistsForScheduleDate(ctx context.Context, scheduleID int64, localDate string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RecurringScheduleID != nil && *s.RecurringScheduleID == scheduleID && s.LocalDate == localDate {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockSessionRepo) CountNonTerminalBySchedule(ctx context.Context, scheduleID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, s := range r.sessions {
		if s.RecurringScheduleID != nil && *s.RecurringScheduleID == scheduleID && !s.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (r *mockSessionRepo) Update(ctx context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now()
	r.sessions[s.ID] = copySession(s)
	return nil
}

// mockLocker сериализует всё одним мьютексом — для тестов достаточно
type mockLocker struct {
	mu sync.Mutex
}

func (l *mockLocker) WithTeacherLock(ctx context.Context, teacherID int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

// mockNotifier записывает доставки и сигналит в канал,
// чтобы тест мог дождаться асинхронной отправки
type mockNotifier struct {
	mu        sync.Mutex
	calls     []notifyCall
	delivered chan struct{}
}

type notifyCall struct {
	userID  int64
	message string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{delivered: make(chan struct{}, 16)}
}

func (n *mockNotifier) Notify(ctx context.Context, userID int64, message string) error {
	n.mu.Lock()
	n.calls = append(n.calls, notifyCall{userID: userID, message: message})
	n.mu.Unlock()
	n.delivered <- struct{}{}
	return nil
}

func (n *mockNotifier) waitForDelivery(timeout time.Duration) bool {
	select {
	case <-n.delivered:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (n *mockNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *mockNotifier) lastCall() notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[len(n.calls)-1]
}

type testEnv struct {
	svc       *SchedulingService
	schedules *mockScheduleRepo
	sessions  *mockSessionRepo
	notifier  *mockNotifier
}

func newTestEnv() *testEnv {
	schedules := newMockScheduleRepo()
	sessions := newMockSessionRepo()
	notifier := newMockNotifier()
	svc := NewSchedulingService(
		schedules,
		sessions,
		&mockLocker{},
		AllowAllTenants{},
		notifier,
		zap.NewNop(),
	)
	return &testEnv{svc: svc, schedules: schedules, sessions: sessions, notifier: notifier}
}
