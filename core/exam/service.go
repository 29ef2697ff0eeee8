package exam

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/curriculum"
	"github.com/platedhq/plated/core/student"
)

var (
	// errors
	ErrNotFound         = errors.New("exam not found")
	ErrExamSolved       = errors.New("exam has already been solved")
	ErrExamNotSolved    = errors.New("exam has not been solved yet")
	ErrScopeUnavailable = errors.New("this focus is not available for examination right now")

	errBadSubmission = errors.New("submitted answers do not match the exam")
)

type (
	Repository interface {
		// CreateExam persists the exam and its fixed question set atomically;
		// a partially created exam is never observable.
		CreateExam(ctx context.Context, ex Exam) (Exam, error)
		// GetExam returns the exam with its question set (choices preloaded)
		// in presentation order.
		GetExam(ctx context.Context, id string) (Exam, error)
		// QueryExams lists a student's exams, newest first (ties broken by
		// id), windowed by `page`. Returns the total match count. Questions
		// are not loaded; QuestionCount is.
		QueryExams(ctx context.Context, studentID string, filter *QueryFilter, page core.Pagination) ([]Exam, int, error)
		// GradeExam persists the answers and transitions the exam to solved
		// in one atomic step. The transition is a storage-level
		// check-and-set on solved_at: if the exam is already solved, nothing
		// is persisted and ErrExamSolved is returned. Re-inserting an
		// identical answer row never creates a duplicate.
		GradeExam(ctx context.Context, examID string, answers []StudentAnswer, score int, solvedAt time.Time) error
		QueryAnswers(ctx context.Context, examID, studentID string) ([]StudentAnswer, error)
		// DeleteExam removes the exam, cascading its question links and
		// answers.
		DeleteExam(ctx context.Context, id string) error
	}

	// CurriculumService is the content-hierarchy collaborator the exam core
	// consumes. *curriculum.Service satisfies it.
	CurriculumService interface {
		CurrentSemester(ctx context.Context, curriculumID string, day time.Time) (curriculum.Semester, error)
		GetSubject(ctx context.Context, id string) (curriculum.Subject, error)
		GetUnit(ctx context.Context, id string) (curriculum.Unit, error)
		GetChapter(ctx context.Context, id string) (curriculum.Chapter, error)
		GetLesson(ctx context.Context, id string) (curriculum.Lesson, error)
		QueryLessons(ctx context.Context, filter curriculum.LessonFilter) ([]curriculum.Lesson, error)
		QueryQuestions(ctx context.Context, lessonIDs []string) ([]curriculum.Question, error)
		ScopeOptions(ctx context.Context, kind, gradeID, semesterID string) ([]curriculum.ScopeOption, error)
	}

	Service struct {
		repo       Repository
		curriculum CurriculumService
		sampler    Sampler
		mailSvc    core.EmailService
		logger     core.Logger
	}
)

func NewService(repo Repository, curriculumSvc CurriculumService, sampler Sampler, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		curriculum: curriculumSvc,
		sampler:    sampler,
		mailSvc:    mailSvc,
		logger:     logger,
	}
}

// Generate builds a new exam for the student: resolve the scoped lessons,
// sample a bounded question set and persist the exam atomically.
// Returns (nil, nil) when the scope holds no questions; that is a normal
// outcome ("nothing to examine"), not an error.
func (svc *Service) Generate(ctx context.Context, st student.Student, kind FocusKind, focusID string) (*Exam, error) {
	scope, lessons, err := svc.resolveScope(ctx, st, kind, focusID)
	if err != nil {
		return nil, err
	}

	lessonIDs := make([]string, 0, len(lessons))
	for _, l := range lessons {
		lessonIDs = append(lessonIDs, l.ID)
	}
	pool, err := svc.curriculum.QueryQuestions(ctx, lessonIDs)
	if err != nil {
		return nil, errors.Wrap(err, "gathering question pool")
	}

	questions := svc.sampler.Sample(pool, kind.SampleSize())
	if len(questions) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	ex := Exam{
		StudentID:     st.ID,
		Duration:      kind.ExamDuration(),
		CreatedAt:     now,
		UpdatedAt:     now,
		QuestionCount: len(questions),
		Questions:     questions,
	}
	scope.apply(&ex)

	ex, err = svc.repo.CreateExam(ctx, ex)
	if err != nil {
		return nil, errors.Wrap(err, "creating exam")
	}
	return &ex, nil
}

// Get returns the student's exam. Another student's exam is reported as not
// found rather than forbidden so exam ids cannot be probed.
func (svc *Service) Get(ctx context.Context, studentID, id string) (Exam, error) {
	ex, err := svc.repo.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if ex.StudentID != studentID {
		return Exam{}, ErrNotFound
	}
	return ex, nil
}

// Grade scores the submission and transitions the exam to solved, exactly
// once. Omitted questions count as incorrect; a choice that does not belong
// to its question rejects the whole submission with no partial persistence.
func (svc *Service) Grade(ctx context.Context, st student.Student, examID string, sub Submission) (Exam, ScoreResult, error) {
	ex, err := svc.Get(ctx, st.ID, examID)
	if err != nil {
		return Exam{}, ScoreResult{}, err
	}
	if ex.Solved() {
		return Exam{}, ScoreResult{}, ErrExamSolved
	}

	var score int
	var fldErrs []core.FieldError
	answers := make([]StudentAnswer, 0, len(sub.Answers))
	for qid, cid := range sub.Answers {
		q, ok := ex.Question(qid)
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: qid, Error: "question does not belong to this exam"})
			continue
		}
		choice, ok := q.Choice(cid)
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: qid, Error: "choice does not belong to this question"})
			continue
		}
		if choice.IsCorrect {
			score++
		}
		answers = append(answers, StudentAnswer{
			ExamID:     ex.ID,
			StudentID:  st.ID,
			QuestionID: qid,
			ChoiceID:   cid,
		})
	}
	if len(fldErrs) > 0 {
		return Exam{}, ScoreResult{}, core.NewValidationError(errBadSubmission, fldErrs...)
	}

	now := time.Now().UTC()
	if err := svc.repo.GradeExam(ctx, ex.ID, answers, score, now); err != nil {
		return Exam{}, ScoreResult{}, errors.Wrap(err, "grading exam")
	}

	ex.Score = null.IntFrom(score)
	ex.SolvedAt = null.TimeFrom(now)
	ex.UpdatedAt = now
	res := ScoreResult{Score: score, MaxScore: ex.MaxScore(), Percentage: ex.ScorePercentage()}

	svc.notifyGraded(ctx, st, ex, res)
	return ex, res, nil
}

// Review returns the per-question breakdown of a solved exam: each question,
// the choice the student picked (if any) and whether it was correct.
func (svc *Service) Review(ctx context.Context, st student.Student, examID string) (Exam, []QuestionReview, error) {
	ex, err := svc.Get(ctx, st.ID, examID)
	if err != nil {
		return Exam{}, nil, err
	}
	if !ex.Solved() {
		return Exam{}, nil, ErrExamNotSolved
	}

	answers, err := svc.repo.QueryAnswers(ctx, ex.ID, st.ID)
	if err != nil {
		return Exam{}, nil, errors.Wrap(err, "querying answers")
	}
	chosen := make(map[string]string, len(answers))
	for _, a := range answers {
		chosen[a.QuestionID] = a.ChoiceID
	}

	reviews := make([]QuestionReview, 0, len(ex.Questions))
	for _, q := range ex.Questions {
		review := QuestionReview{Question: q}
		if cid, ok := chosen[q.ID]; ok {
			if choice, ok := q.Choice(cid); ok {
				review.Chosen = &choice
				review.Correct = choice.IsCorrect
			}
		}
		reviews = append(reviews, review)
	}
	return ex, reviews, nil
}

func (svc *Service) Query(ctx context.Context, studentID string, filter *QueryFilter, page core.Pagination) ([]Exam, int, error) {
	if page.PageSize <= 0 {
		page.PageSize = PageSize
	}
	return svc.repo.QueryExams(ctx, studentID, filter, page)
}

func (svc *Service) Delete(ctx context.Context, studentID, examID string) error {
	if _, err := svc.Get(ctx, studentID, examID); err != nil {
		return err
	}
	return svc.repo.DeleteExam(ctx, examID)
}

// ScopeOptions lists the focus objects of the given kind the student can
// currently generate an exam for.
func (svc *Service) ScopeOptions(ctx context.Context, st student.Student, kind FocusKind) ([]curriculum.ScopeOption, error) {
	sem, err := svc.curriculum.CurrentSemester(ctx, st.CurriculumID, time.Now().UTC())
	if err != nil {
		if errors.Cause(err) == curriculum.ErrNoActiveSemester {
			return nil, ErrScopeUnavailable
		}
		return nil, errors.Wrap(err, "resolving current semester")
	}
	return svc.curriculum.ScopeOptions(ctx, string(kind), st.GradeID, sem.ID)
}

// Title returns a display title for the exam, e.g. "Exam for Algebra by Jane Doe".
func (svc *Service) Title(ctx context.Context, st student.Student, ex Exam) (string, error) {
	var title string
	switch ex.FocusKind() {
	case FocusSubject:
		subject, err := svc.curriculum.GetSubject(ctx, ex.SubjectID.String)
		if err != nil {
			return "", errors.Wrap(err, "getting exam subject")
		}
		title = subject.Title
	case FocusUnit:
		unit, err := svc.curriculum.GetUnit(ctx, ex.UnitID.String)
		if err != nil {
			return "", errors.Wrap(err, "getting exam unit")
		}
		title = unit.Title
	case FocusChapter:
		chapter, err := svc.curriculum.GetChapter(ctx, ex.ChapterID.String)
		if err != nil {
			return "", errors.Wrap(err, "getting exam chapter")
		}
		title = chapter.Title
	case FocusLesson:
		lesson, err := svc.curriculum.GetLesson(ctx, ex.LessonID.String)
		if err != nil {
			return "", errors.Wrap(err, "getting exam lesson")
		}
		title = lesson.Title
	default:
		return "", errors.New("exam has no scope reference")
	}
	return fmt.Sprintf("Exam for %s by %s", title, st.Name), nil
}

func (svc *Service) notifyGraded(ctx context.Context, st student.Student, ex Exam, res ScoreResult) {
	if svc.mailSvc == nil || st.Email == "" {
		return
	}
	title, err := svc.Title(ctx, st, ex)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Error(fmt.Sprintf("building exam title for notification: %v", err), err)
		}
		title = "your exam"
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject: "Your exam has been graded",
		Body: fmt.Sprintf(
			"Hi %s,\n\n%s has been graded: you scored %d out of %d (%.1f%%).",
			st.Name, title, res.Score, res.MaxScore, res.Percentage,
		),
	})
}
