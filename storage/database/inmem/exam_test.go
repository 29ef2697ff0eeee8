package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/platedhq/plated/core/exam"
)

func TestExamRepository_GradeExam_persistsEachAnswer(t *testing.T) {
	db := NewDB()
	repo := NewExamRepository(db)
	ctx := context.Background()

	ex, err := repo.CreateExam(ctx, exam.Exam{StudentID: "student-1"})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}

	answers := []exam.StudentAnswer{
		{ExamID: ex.ID, StudentID: "student-1", QuestionID: "q1", ChoiceID: "c1"},
		{ExamID: ex.ID, StudentID: "student-1", QuestionID: "q2", ChoiceID: "c2"},
		{ExamID: ex.ID, StudentID: "student-1", QuestionID: "q3", ChoiceID: "c3"},
	}
	if err := repo.GradeExam(ctx, ex.ID, answers, 2, time.Now().UTC()); err != nil {
		t.Fatalf("GradeExam() failed: %v", err)
	}

	got, err := repo.QueryAnswers(ctx, ex.ID, "student-1")
	if err != nil {
		t.Fatalf("QueryAnswers() failed: %v", err)
	}
	if len(got) != len(answers) {
		t.Fatalf("QueryAnswers() returned %d answers, want %d", len(got), len(answers))
	}

	byQuestion := make(map[string]string, len(got))
	for _, ans := range got {
		byQuestion[ans.QuestionID] = ans.ChoiceID
	}
	if len(byQuestion) != len(answers) {
		t.Fatalf("stored answers collapsed to %d distinct questions: %v", len(byQuestion), byQuestion)
	}
	for _, want := range answers {
		if byQuestion[want.QuestionID] != want.ChoiceID {
			t.Errorf("answer for %s = %q, want %q", want.QuestionID, byQuestion[want.QuestionID], want.ChoiceID)
		}
	}
}
