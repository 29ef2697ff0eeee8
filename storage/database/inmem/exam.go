package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/exam"
)

type examRepository struct {
	db *DB
}

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(_ context.Context, ex exam.Exam) (exam.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ex.ID = pk(ex.ID)
	ex.QuestionCount = len(ex.Questions)
	repo.db.exams[ex.ID] = &ex
	return ex, nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ex, ok := repo.db.exams[id]; ok {
		return *ex, nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) QueryExams(_ context.Context, studentID string, filter *exam.QueryFilter, page core.Pagination) ([]exam.Exam, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var matches []exam.Exam
	for _, ex := range repo.db.exams {
		if ex.StudentID != studentID || !matchesFilter(ex, filter) {
			continue
		}
		listed := *ex
		listed.Questions = nil // listings carry QuestionCount only
		matches = append(matches, listed)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	count := len(matches)
	lo := page.Offset()
	if lo > count {
		lo = count
	}
	hi := lo + page.Limit()
	if hi > count {
		hi = count
	}
	return matches[lo:hi], count, nil
}

func matchesFilter(ex *exam.Exam, filter *exam.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if kind, ok := filter.FocusKind(); ok {
		if ex.FocusKind() != kind {
			return false
		}
		if filter.FocusID != "" && ex.FocusID() != filter.FocusID {
			return false
		}
	}
	if filter.IsSolved != nil && ex.Solved() != *filter.IsSolved {
		return false
	}
	return true
}

func (repo *examRepository) GradeExam(_ context.Context, examID string, answers []exam.StudentAnswer, score int, solvedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ex, ok := repo.db.exams[examID]
	if !ok {
		return exam.ErrNotFound
	}
	if ex.Solved() {
		return exam.ErrExamSolved
	}

	for _, ans := range answers {
		ans := ans
		key := answerKey{examID: ans.ExamID, studentID: ans.StudentID, questionID: ans.QuestionID}
		if _, exists := repo.db.answers[key]; exists {
			continue
		}
		ans.ID = pk(ans.ID)
		ans.CreatedAt = solvedAt
		repo.db.answers[key] = &ans
	}

	ex.Score = null.IntFrom(score)
	ex.SolvedAt = null.TimeFrom(solvedAt)
	ex.UpdatedAt = solvedAt
	return nil
}

func (repo *examRepository) QueryAnswers(_ context.Context, examID, studentID string) ([]exam.StudentAnswer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var answers []exam.StudentAnswer
	for key, ans := range repo.db.answers {
		if key.examID == examID && key.studentID == studentID {
			answers = append(answers, *ans)
		}
	}
	return answers, nil
}

func (repo *examRepository) DeleteExam(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.exams[id]; !ok {
		return exam.ErrNotFound
	}
	delete(repo.db.exams, id)
	for key := range repo.db.answers {
		if key.examID == id {
			delete(repo.db.answers, key)
		}
	}
	return nil
}
