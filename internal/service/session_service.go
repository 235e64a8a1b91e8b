package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/conflict"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/scherr"
	"go.uber.org/zap"
)

// Операции жизненного цикла занятия: scheduled → reschedule_pending →
// scheduled (одобрено или отклонено); cancelled и completed терминальны.

// CreateAdHocSession создаёт разовое занятие вне шаблона.
// В отличие от материализации шаблонов, разовое занятие проверяется
// на пересечения с остальными занятиями учителя при создании.
func (s *SchedulingService) CreateAdHocSession(ctx context.Context, in CreateAdHocSessionInput) (*model.Session, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if err := validateInterval(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	if err := s.checkTenant(ctx, in.TeacherID, in.StudentID); err != nil {
		return nil, err
	}

	session := &model.Session{
		TeacherID: in.TeacherID,
		StudentID: in.StudentID,
		Title:     in.Title,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Status:    model.SessionStatusScheduled,
		Notes:     in.Notes,
	}

	err := s.locker.WithTeacherLock(ctx, in.TeacherID, func(ctx context.Context) error {
		if err := s.checkSessionConflicts(ctx, in.TeacherID, session.StartTime, session.EndTime, 0); err != nil {
			return err
		}
		return s.sessionRepo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ad hoc session created",
		zap.Int64("session_id", session.ID),
		zap.Int64("teacher_id", session.TeacherID),
		zap.Time("start_time", session.StartTime),
	)

	return session, nil
}

// RequestReschedule фиксирует предложение нового времени занятия.
// Предложение хранится отдельно, само время занятия не меняется до
// одобрения. Пересечения на этом шаге не проверяются: предложение
// может быть отклонено. Если запрос делает сам учитель или владелец,
// запрос и одобрение схлопываются в один шаг.
func (s *SchedulingService) RequestReschedule(ctx context.Context, sessionID int64, newStart, newEnd time.Time, actor model.Actor) (*model.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !s.actorOnSession(actor, session) {
		return nil, &scherr.AuthorizationError{Role: actor.Role, Action: "request reschedule"}
	}

	if err := validateInterval(newStart, newEnd); err != nil {
		return nil, err
	}

	if session.Status != model.SessionStatusScheduled {
		return nil, scherr.NewSessionState(session.Status, "request reschedule")
	}

	session.PendingReschedule = &model.PendingReschedule{
		RequestedStart: newStart.UTC(),
		RequestedEnd:   newEnd.UTC(),
		RequestedBy:    actor.Role,
		RequestedAt:    time.Now().UTC(),
	}
	session.Status = model.SessionStatusReschedulePending

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Reschedule requested",
		zap.Int64("session_id", session.ID),
		zap.Int64("teacher_id", session.TeacherID),
		zap.String("requested_by", string(actor.Role)),
		zap.Time("requested_start", newStart),
	)

	// Учитель распоряжается своим расписанием напрямую: его запрос
	// сразу проходит одобрение. При конфликте занятие остаётся
	// в reschedule_pending, как и при обычном одобрении.
	if actor.ManagesTeacher(session.TeacherID) {
		return s.ApproveReschedule(ctx, sessionID, actor)
	}

	return session, nil
}

// ApproveReschedule одобряет предложенный перенос. Предложенный
// интервал заново проверяется на пересечения с остальными занятиями
// учителя под его блокировкой; при конфликте занятие остаётся
// в reschedule_pending без изменений.
func (s *SchedulingService) ApproveReschedule(ctx context.Context, sessionID int64, actor model.Actor) (*model.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !actor.ManagesTeacher(session.TeacherID) {
		return nil, &scherr.AuthorizationError{Role: actor.Role, Action: "approve reschedule"}
	}

	if session.Status != model.SessionStatusReschedulePending {
		return nil, scherr.NewSessionState(session.Status, "approve reschedule")
	}

	var approved *model.Session
	err = s.locker.WithTeacherLock(ctx, session.TeacherID, func(ctx context.Context) error {
		// Перечитываем под блокировкой
		session, err := s.getSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != model.SessionStatusReschedulePending {
			return scherr.NewSessionState(session.Status, "approve reschedule")
		}

		p := session.PendingReschedule
		if p == nil {
			return fmt.Errorf("session %d is pending without a proposal", session.ID)
		}

		if err := s.checkSessionConflicts(ctx, session.TeacherID, p.RequestedStart, p.RequestedEnd, session.ID); err != nil {
			return err
		}

		// LocalDate намеренно не трогаем: ключ идемпотентности
		// по-прежнему закрывает исходную дату вхождения, иначе
		// материализация создала бы дубль на освободившийся день.
		session.StartTime = p.RequestedStart
		session.EndTime = p.RequestedEnd
		session.PendingReschedule = nil
		session.Status = model.SessionStatusScheduled

		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return err
		}
		approved = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reschedule approved",
		zap.Int64("session_id", approved.ID),
		zap.Int64("teacher_id", approved.TeacherID),
		zap.Time("start_time", approved.StartTime),
	)

	return approved, nil
}

// DenyReschedule отклоняет предложенный перенос: предложение
// очищается, занятие возвращается в scheduled с прежним временем
func (s *SchedulingService) DenyReschedule(ctx context.Context, sessionID int64, actor model.Actor) (*model.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !actor.ManagesTeacher(session.TeacherID) {
		return nil, &scherr.AuthorizationError{Role: actor.Role, Action: "deny reschedule"}
	}

	if session.Status != model.SessionStatusReschedulePending {
		return nil, scherr.NewSessionState(session.Status, "deny reschedule")
	}

	session.PendingReschedule = nil
	session.Status = model.SessionStatusScheduled

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Reschedule denied",
		zap.Int64("session_id", session.ID),
		zap.Int64("teacher_id", session.TeacherID),
	)

	return session, nil
}

// CancelSession переводит занятие в терминальный статус cancelled.
// Повторная отмена — ошибка, не no-op. Если отменяет ученик, учителю
// уходит best-effort уведомление уже после фиксации отмены: отказ
// доставки логируется и не откатывает отмену.
func (s *SchedulingService) CancelSession(ctx context.Context, sessionID int64, actor model.Actor) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if !s.actorOnSession(actor, session) {
		return &scherr.AuthorizationError{Role: actor.Role, Action: "cancel session"}
	}

	if session.Status != model.SessionStatusScheduled && session.Status != model.SessionStatusReschedulePending {
		return scherr.NewSessionState(session.Status, "cancel")
	}

	session.PendingReschedule = nil
	session.Status = model.SessionStatusCancelled

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return err
	}

	s.logger.Info("Session cancelled",
		zap.Int64("session_id", session.ID),
		zap.Int64("teacher_id", session.TeacherID),
		zap.String("cancelled_by", string(actor.Role)),
	)

	if actor.Role == model.RoleStudent {
		s.notifyCancellation(ctx, session)
	}

	return nil
}

// MarkSessionCompleted переводит занятие в терминальный статус
// completed. Сам момент "занятие прошло" движок не отслеживает,
// переход инициируется снаружи и легален только из scheduled.
func (s *SchedulingService) MarkSessionCompleted(ctx context.Context, sessionID int64, actor model.Actor) (*model.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !actor.ManagesTeacher(session.TeacherID) {
		return nil, &scherr.AuthorizationError{Role: actor.Role, Action: "complete session"}
	}

	if session.Status != model.SessionStatusScheduled {
		return nil, scherr.NewSessionState(session.Status, "complete")
	}

	session.Status = model.SessionStatusCompleted

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// GetSession возвращает занятие по ID
func (s *SchedulingService) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	return s.getSession(ctx, id)
}

// GetTeacherSessions возвращает занятия учителя, пересекающие [from, to)
func (s *SchedulingService) GetTeacherSessions(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Session, error) {
	return s.sessionRepo.GetByTeacherInRange(ctx, teacherID, from, to)
}

// getSession достаёт занятие и переводит отсутствие в NotFoundError
func (s *SchedulingService) getSession(ctx context.Context, id int64) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &scherr.NotFoundError{Entity: "session", ID: id}
	}
	return session, nil
}

// checkSessionConflicts сверяет интервал с занимающими занятиями
// учителя. skipID исключает само проверяемое занятие.
// Вызывается только под блокировкой учителя.
func (s *SchedulingService) checkSessionConflicts(ctx context.Context, teacherID int64, start, end time.Time, skipID int64) error {
	occupied, err := s.sessionRepo.GetOccupiedByTeacherInRange(ctx, teacherID, start, end)
	if err != nil {
		return err
	}

	conflicts := conflict.OverlappingSessions(start, end, occupied, skipID)
	if len(conflicts) > 0 {
		ids := make([]int64, len(conflicts))
		for i, c := range conflicts {
			ids[i] = c.ID
		}
		return &scherr.ConflictError{SessionIDs: ids}
	}

	return nil
}

// actorOnSession сообщает причастен ли актор к занятию:
// его ученик либо распоряжающийся учителем
func (s *SchedulingService) actorOnSession(actor model.Actor, session *model.Session) bool {
	if actor.Role == model.RoleStudent {
		return actor.UserID == session.StudentID
	}
	return actor.ManagesTeacher(session.TeacherID)
}

// notifyCancellation отправляет учителю уведомление об отмене.
// Fire-and-forget: уходит в горутину вне транзакции, контекст
// отвязывается от запроса, ошибка только логируется.
func (s *SchedulingService) notifyCancellation(ctx context.Context, session *model.Session) {
	title := session.Title
	if title == "" {
		title = "Lesson"
	}
	message := fmt.Sprintf("%s on %s at %s was cancelled by the student.",
		title,
		session.StartTime.Format("2006-01-02"),
		session.StartTime.Format("15:04"),
	)

	teacherID := session.TeacherID
	sessionID := session.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := s.notifier.Notify(ctx, teacherID, message); err != nil {
			s.logger.Warn("Failed to deliver cancellation notice",
				zap.Int64("session_id", sessionID),
				zap.Int64("teacher_id", teacherID),
				zap.Error(err))
		}
	}()
}
