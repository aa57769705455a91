package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStudentStats(t *testing.T) {
	enrollments := []Enrollment{
		{StudentID: "s1", CourseID: "c1", Progress: 100},
		{StudentID: "s1", CourseID: "c2", Progress: 40},
		{StudentID: "s1", CourseID: "c3", Progress: 0},
	}

	stats := ComputeStudentStats(enrollments, 12.345)
	assert.Equal(t, 1, stats.CompletedCourses)
	assert.Equal(t, 2, stats.InProgressCourses)
	assert.Equal(t, 12.3, stats.TotalHours)
	assert.Equal(t, 47, stats.AverageProgress)
}

func TestComputeStudentStats_NoEnrollments(t *testing.T) {
	stats := ComputeStudentStats(nil, 0)
	assert.Equal(t, StudentStats{}, stats)

	stats = ComputeStudentStats(nil, 2.25)
	assert.Equal(t, 0, stats.AverageProgress)
	assert.InDelta(t, 2.3, stats.TotalHours, 0.0001)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.5, RoundTo(1.46, 1))
	assert.Equal(t, 2.0, RoundTo(1.96, 1))
	assert.Equal(t, 3.0, RoundTo(3.4, 0))
}
