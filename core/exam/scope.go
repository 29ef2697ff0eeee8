package exam

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/curriculum"
	"github.com/platedhq/plated/core/student"
)

// resolveScope resolves the focus object and the set of lessons under it
// that match the student's grade and the currently active semester.
// The active semester is resolved fresh on every call (see
// curriculum.Service.CurrentSemester). No side effects.
func (svc *Service) resolveScope(ctx context.Context, st student.Student, kind FocusKind, focusID string) (Scope, []curriculum.Lesson, error) {
	sem, err := svc.curriculum.CurrentSemester(ctx, st.CurriculumID, time.Now().UTC())
	if err != nil {
		if errors.Cause(err) == curriculum.ErrNoActiveSemester {
			return Scope{}, nil, ErrScopeUnavailable
		}
		return Scope{}, nil, errors.Wrap(err, "resolving current semester")
	}

	var scope Scope
	filter := curriculum.LessonFilter{GradeID: st.GradeID, SemesterID: sem.ID}

	switch kind {
	case FocusLesson:
		// trivial scope: the lesson itself, if available to the student
		lesson, err := svc.curriculum.GetLesson(ctx, focusID)
		if err != nil {
			return Scope{}, nil, errors.Wrap(err, "getting focus lesson")
		}
		if lesson.GradeID != st.GradeID || !lesson.InTerm(sem.ID) {
			return Scope{}, nil, ErrScopeUnavailable
		}
		scope.Lesson = &lesson
		return scope, []curriculum.Lesson{lesson}, nil

	case FocusChapter:
		chapter, err := svc.curriculum.GetChapter(ctx, focusID)
		if err != nil {
			return Scope{}, nil, errors.Wrap(err, "getting focus chapter")
		}
		scope.Chapter = &chapter
		filter.ChapterID = chapter.ID

	case FocusUnit:
		unit, err := svc.curriculum.GetUnit(ctx, focusID)
		if err != nil {
			return Scope{}, nil, errors.Wrap(err, "getting focus unit")
		}
		scope.Unit = &unit
		filter.UnitID = unit.ID

	case FocusSubject:
		subject, err := svc.curriculum.GetSubject(ctx, focusID)
		if err != nil {
			return Scope{}, nil, errors.Wrap(err, "getting focus subject")
		}
		scope.Subject = &subject
		filter.SubjectID = subject.ID

	default:
		return Scope{}, nil, core.NewValidationError(errUnknownFocus, core.FieldError{Field: "focus", Error: errUnknownFocus.Error()})
	}

	lessons, err := svc.curriculum.QueryLessons(ctx, filter)
	if err != nil {
		return Scope{}, nil, errors.Wrap(err, "querying scoped lessons")
	}
	return scope, lessons, nil
}
