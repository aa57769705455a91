package http

import (
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswersRequest maps question id to the submitted answer.
type SubmitAnswersRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

// LogActivityRequest is a ledger increment. Omitted fields are zero and an
// omitted date means today (UTC).
type LogActivityRequest struct {
	Date                 string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	HoursSpent           float64 `json:"hours_spent" validate:"gte=0"`
	LessonsCompleted     int     `json:"lessons_completed" validate:"gte=0"`
	AssignmentsCompleted int     `json:"assignments_completed" validate:"gte=0"`
	ExamsTaken           int     `json:"exams_taken" validate:"gte=0"`
}

// Delta converts the request into a ledger delta.
func (r LogActivityRequest) Delta() activity.Delta {
	return activity.Delta{
		HoursSpent:           r.HoursSpent,
		LessonsCompleted:     r.LessonsCompleted,
		AssignmentsCompleted: r.AssignmentsCompleted,
		ExamsTaken:           r.ExamsTaken,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// AttemptResponse is an exam attempt. Score and total_points are null
// until the attempt is submitted.
type AttemptResponse struct {
	ID          string           `json:"id"`
	ExamID      string           `json:"exam_id"`
	StudentID   string           `json:"student_id"`
	Status      string           `json:"status"`
	Score       *float64         `json:"score"`
	TotalPoints *int             `json:"total_points"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Answers     []AnswerResponse `json:"answers,omitempty"`
}

// AnswerResponse is one graded answer.
type AnswerResponse struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
}

func toAttemptResponse(a *exam.Attempt) AttemptResponse {
	resp := AttemptResponse{
		ID:          a.ID,
		ExamID:      a.ExamID,
		StudentID:   a.StudentID,
		Status:      string(a.Status()),
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
	for _, ans := range a.Answers {
		resp.Answers = append(resp.Answers, AnswerResponse{
			QuestionID: ans.QuestionID,
			Answer:     ans.Answer,
			IsCorrect:  ans.IsCorrect,
		})
	}
	return resp
}

// ActivityRecordResponse is one ledger day.
type ActivityRecordResponse struct {
	Date                 string  `json:"date"`
	HoursSpent           float64 `json:"hours_spent"`
	LessonsCompleted     int     `json:"lessons_completed"`
	AssignmentsCompleted int     `json:"assignments_completed"`
	ExamsTaken           int     `json:"exams_taken"`
}

func toActivityRecordResponse(r *activity.Record) ActivityRecordResponse {
	return ActivityRecordResponse{
		Date:                 timeutil.FormatDate(r.Date),
		HoursSpent:           r.HoursSpent,
		LessonsCompleted:     r.LessonsCompleted,
		AssignmentsCompleted: r.AssignmentsCompleted,
		ExamsTaken:           r.ExamsTaken,
	}
}

// AchievementResponse is a definition with the caller's state.
type AchievementResponse struct {
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Icon             string     `json:"icon"`
	Color            string     `json:"color"`
	RequirementType  string     `json:"requirement_type"`
	RequirementValue int        `json:"requirement_value"`
	Unlocked         bool       `json:"unlocked"`
	UnlockedAt       *time.Time `json:"unlocked_at"`
	Progress         int        `json:"progress"`
}

func toAchievementResponse(v achievement.View) AchievementResponse {
	return AchievementResponse{
		Type:             v.Type,
		Title:            v.Title,
		Description:      v.Description,
		Icon:             v.Icon,
		Color:            v.Color,
		RequirementType:  string(v.RequirementType),
		RequirementValue: v.RequirementValue,
		Unlocked:         v.Unlocked,
		UnlockedAt:       v.UnlockedAt,
		Progress:         v.Progress,
	}
}

// StudentStatsResponse is the student dashboard.
type StudentStatsResponse struct {
	CompletedCourses  int     `json:"completed_courses"`
	InProgressCourses int     `json:"in_progress_courses"`
	TotalHours        float64 `json:"total_hours"`
	AverageProgress   int     `json:"average_progress"`
}

// TeacherStatsResponse is the teacher dashboard.
type TeacherStatsResponse struct {
	TotalStudents      int `json:"total_students"`
	TotalCourses       int `json:"total_courses"`
	PendingSubmissions int `json:"pending_submissions"`
	GradedSubmissions  int `json:"graded_submissions"`
}

func toStudentStatsResponse(s progress.StudentStats) StudentStatsResponse {
	return StudentStatsResponse(s)
}

func toTeacherStatsResponse(s progress.TeacherStats) TeacherStatsResponse {
	return TeacherStatsResponse(s)
}
