package exam

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/curriculum"
)

// PageSize is the fixed page size of exam listings.
const PageSize = 12

var (
	errUnknownFocus = errors.New("unknown focus kind")
	errBadFilterID  = errors.New("filter_id is not a valid id")
)

// FocusKind is the curricular level an exam is generated for.
type FocusKind string

const (
	FocusSubject FocusKind = "subject"
	FocusUnit    FocusKind = "unit"
	FocusChapter FocusKind = "chapter"
	FocusLesson  FocusKind = "lesson"
)

func ParseFocusKind(s string) (FocusKind, error) {
	switch k := FocusKind(core.CleanString(s, true /* lower */)); k {
	case FocusSubject, FocusUnit, FocusChapter, FocusLesson:
		return k, nil
	default:
		return "", core.NewValidationError(errUnknownFocus, core.FieldError{Field: "focus", Error: errUnknownFocus.Error()})
	}
}

// SampleSize returns how many questions an exam of this focus holds at most.
func (k FocusKind) SampleSize() int {
	switch k {
	case FocusSubject:
		return 50
	case FocusUnit:
		return 40
	case FocusChapter:
		return 25
	case FocusLesson:
		return 10
	}
	return 0
}

// ExamDuration returns the fixed duration of an exam of this focus.
func (k FocusKind) ExamDuration() time.Duration {
	switch k {
	case FocusSubject:
		return 120 * time.Minute
	case FocusUnit:
		return 90 * time.Minute
	case FocusChapter:
		return 60 * time.Minute
	case FocusLesson:
		return 30 * time.Minute
	}
	return 0
}

// Scope is the resolved focus object an exam is built for.
// Exactly one field is set.
type Scope struct {
	Subject *curriculum.Subject
	Unit    *curriculum.Unit
	Chapter *curriculum.Chapter
	Lesson  *curriculum.Lesson
}

func (s Scope) Kind() FocusKind {
	switch {
	case s.Subject != nil:
		return FocusSubject
	case s.Unit != nil:
		return FocusUnit
	case s.Chapter != nil:
		return FocusChapter
	case s.Lesson != nil:
		return FocusLesson
	}
	return ""
}

func (s Scope) ID() string {
	switch {
	case s.Subject != nil:
		return s.Subject.ID
	case s.Unit != nil:
		return s.Unit.ID
	case s.Chapter != nil:
		return s.Chapter.ID
	case s.Lesson != nil:
		return s.Lesson.ID
	}
	return ""
}

func (s Scope) Title() string {
	switch {
	case s.Subject != nil:
		return s.Subject.Title
	case s.Unit != nil:
		return s.Unit.Title
	case s.Chapter != nil:
		return s.Chapter.Title
	case s.Lesson != nil:
		return s.Lesson.Title
	}
	return ""
}

// apply sets the exam's single scope reference.
func (s Scope) apply(ex *Exam) {
	switch s.Kind() {
	case FocusSubject:
		ex.SubjectID = null.StringFrom(s.Subject.ID)
	case FocusUnit:
		ex.UnitID = null.StringFrom(s.Unit.ID)
	case FocusChapter:
		ex.ChapterID = null.StringFrom(s.Chapter.ID)
	case FocusLesson:
		ex.LessonID = null.StringFrom(s.Lesson.ID)
	}
}

// Exam is a bounded random selection of questions for one curricular focus,
// owned by one student. Its question set is fixed at creation; it is graded
// at most once (solved_at / score set exactly once).
type Exam struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	SubjectID null.String   `db:"subject_id" json:"subject_id"`
	UnitID    null.String   `db:"unit_id" json:"unit_id"`
	ChapterID null.String   `db:"chapter_id" json:"chapter_id"`
	LessonID  null.String   `db:"lesson_id" json:"lesson_id"`
	Duration  time.Duration `db:"duration" json:"duration"`
	Score     null.Int      `db:"score" json:"score"`
	SolvedAt  null.Time     `db:"solved_at" json:"solved_at"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"` // UTC

	// QuestionCount is the size of the fixed question set; always populated
	// by repositories, even when Questions is not loaded (listings).
	QuestionCount int `db:"question_count" json:"max_score"`

	// Questions is the fixed question set in presentation order,
	// choices preloaded. Loaded on retrieval, not on listings.
	Questions []curriculum.Question `db:"-" json:"-"`
}

func (e *Exam) Solved() bool {
	return e.SolvedAt.Valid
}

// FocusKind returns the kind of the exam's single scope reference.
func (e *Exam) FocusKind() FocusKind {
	switch {
	case e.SubjectID.Valid:
		return FocusSubject
	case e.UnitID.Valid:
		return FocusUnit
	case e.ChapterID.Valid:
		return FocusChapter
	case e.LessonID.Valid:
		return FocusLesson
	}
	return ""
}

func (e *Exam) FocusID() string {
	switch {
	case e.SubjectID.Valid:
		return e.SubjectID.String
	case e.UnitID.Valid:
		return e.UnitID.String
	case e.ChapterID.Valid:
		return e.ChapterID.String
	case e.LessonID.Valid:
		return e.LessonID.String
	}
	return ""
}

// Question returns the exam question with the given ID.
func (e *Exam) Question(id string) (curriculum.Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return curriculum.Question{}, false
}

// MaxScore is the number of questions attached to the exam,
// not the number answered.
func (e *Exam) MaxScore() int {
	if len(e.Questions) > 0 {
		return len(e.Questions)
	}
	return e.QuestionCount
}

func (e *Exam) ScorePercentage() float64 {
	max := e.MaxScore()
	if max == 0 || !e.Score.Valid {
		return 0
	}
	return float64(e.Score.Int) / float64(max) * 100
}

// StudentAnswer records the choice a student picked for one exam question.
// At most one answer exists per (exam, student, question).
type StudentAnswer struct {
	ID         string    `db:"id" json:"id"`
	ExamID     string    `db:"exam_id" json:"exam_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	QuestionID string    `db:"question_id" json:"question_id"`
	ChoiceID   string    `db:"choice_id" json:"choice_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"` // UTC
}

type ScoreResult struct {
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"score_percentage"`
}

// QuestionReview is the per-question breakdown of a solved exam.
type QuestionReview struct {
	Question curriculum.Question
	Chosen   *curriculum.Choice // nil if the question was not answered
	Correct  bool
}

// GenerateExam contains information needed to generate a new Exam.
type GenerateExam struct {
	Focus   string `json:"focus" validate:"required,oneof=subject unit chapter lesson"`
	FocusID string `json:"focus_id" validate:"required,uuid4"`
}

func (ge *GenerateExam) Validate(validate *validator.Validate) error {
	ge.Focus = core.CleanString(ge.Focus, true /* lower */)
	ge.FocusID = core.CleanString(ge.FocusID, true /* lower */)
	return validate.Struct(ge)
}

// Submission maps each answered question ID to the chosen choice ID.
// Questions may be omitted; omitted questions are scored as incorrect.
type Submission struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}

// QueryFilter narrows a student's exam listing.
type QueryFilter struct {
	Focus    string `query:"focus"`
	FocusID  string `query:"filter_id"`
	IsSolved *bool  `query:"is_solved"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Focus == "" && qf.FocusID == "" && qf.IsSolved == nil
}

func (qf *QueryFilter) Clean() error {
	qf.FocusID = core.CleanString(qf.FocusID, true /* lower */)
	if qf.FocusID != "" {
		if _, err := uuid.Parse(qf.FocusID); err != nil {
			return core.NewValidationError(errBadFilterID, core.FieldError{Field: "filter_id", Error: errBadFilterID.Error()})
		}
	}
	if qf.Focus == "" {
		return nil
	}
	kind, err := ParseFocusKind(qf.Focus)
	if err != nil {
		return err
	}
	qf.Focus = string(kind)
	return nil
}

// FocusKind returns the parsed focus filter, if any. Clean must have been
// called first.
func (qf *QueryFilter) FocusKind() (FocusKind, bool) {
	if qf.Focus == "" {
		return "", false
	}
	return FocusKind(qf.Focus), true
}
