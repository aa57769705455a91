// Package progress contains the read models owned by the course collaborator
// (courses, enrollments, submissions) and the stateless aggregations built
// on top of them for student and teacher dashboards.
package progress

import (
	"math"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// CompletedProgress is the enrollment progress at which a course counts as completed.
const CompletedProgress = 100

// Course is the minimal course projection this core reads.
type Course struct {
	ID        string
	Title     string
	TeacherID shared.UserID
}

// Enrollment links a student to a course with a completion percentage (0-100).
type Enrollment struct {
	StudentID  shared.UserID
	CourseID   string
	Progress   int
	EnrolledAt time.Time
}

// IsCompleted returns true if the course is finished.
func (e Enrollment) IsCompleted() bool {
	return e.Progress >= CompletedProgress
}

// SubmissionStatus is the grading state of an assignment submission.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionGraded  SubmissionStatus = "graded"
)

// Submission is an assignment submission as stored by the course collaborator.
type Submission struct {
	ID           string
	AssignmentID string
	CourseID     string
	StudentID    shared.UserID
	Status       SubmissionStatus
	SubmittedAt  time.Time
}

// StudentStats is the student dashboard aggregate.
type StudentStats struct {
	CompletedCourses  int
	InProgressCourses int
	TotalHours        float64
	AverageProgress   int
}

// ComputeStudentStats derives the student dashboard from enrollments and
// the ledger's total hours.
func ComputeStudentStats(enrollments []Enrollment, totalHours float64) StudentStats {
	stats := StudentStats{TotalHours: RoundTo(totalHours, 1)}
	if len(enrollments) == 0 {
		return stats
	}

	sum := 0
	for _, e := range enrollments {
		if e.IsCompleted() {
			stats.CompletedCourses++
		} else {
			stats.InProgressCourses++
		}
		sum += e.Progress
	}
	stats.AverageProgress = int(math.Round(float64(sum) / float64(len(enrollments))))
	return stats
}

// TeacherStats is the teacher dashboard aggregate over owned courses.
type TeacherStats struct {
	TotalStudents      int
	TotalCourses       int
	PendingSubmissions int
	GradedSubmissions  int
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
