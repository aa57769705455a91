package http

import (
	"net/http"

	"github.com/alem-hub/study-progress-core/internal/application/command"
	"github.com/alem-hub/study-progress-core/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"status":  "healthy",
			"uptime":  s.Uptime().String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleReady handles the readiness check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness check.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleStartAttempt handles POST /api/v1/exams/{examID}/attempts
func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	attempt, err := s.deps.StartAttempt.Handle(r.Context(), command.StartAttemptCommand{
		ExamID:    r.PathValue("examID"),
		StudentID: id.UserID.String(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toAttemptResponse(attempt))
}

// handleListAttempts handles GET /api/v1/exams/{examID}/attempts
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	attempts, err := s.deps.Attempts.List(r.Context(), r.PathValue("examID"), id.UserID.String())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, toAttemptResponse(a))
	}
	writeJSONWithMeta(w, r, http.StatusOK, resp, &ResponseMeta{TotalCount: len(resp)})
}

// handleSubmitAnswers handles POST /api/v1/attempts/{attemptID}/submit
func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnswersRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := identityFrom(r.Context())
	attempt, err := s.deps.SubmitAnswers.Handle(r.Context(), command.SubmitAnswersCommand{
		AttemptID: r.PathValue("attemptID"),
		StudentID: id.UserID.String(),
		Answers:   req.Answers,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAttemptResponse(attempt))
}

// handleGetAttempt handles GET /api/v1/attempts/{attemptID}
func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	attempt, err := s.deps.Attempts.Get(r.Context(), r.PathValue("attemptID"), id.UserID.String())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAttemptResponse(attempt))
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY & ACHIEVEMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleLogActivity handles POST /api/v1/activity
func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	var req LogActivityRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := identityFrom(r.Context())
	record, err := s.deps.LogActivity.Handle(r.Context(), command.LogActivityCommand{
		UserID: id.UserID.String(),
		Date:   req.Date,
		Delta:  req.Delta(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toActivityRecordResponse(record))
}

// handleListActivity handles GET /api/v1/activity?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	records, err := s.deps.ListActivity.Handle(r.Context(), query.ListActivityQuery{
		UserID: id.UserID.String(),
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]ActivityRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toActivityRecordResponse(rec))
	}
	writeJSONWithMeta(w, r, http.StatusOK, resp, &ResponseMeta{TotalCount: len(resp)})
}

// handleGetAchievements handles GET /api/v1/achievements
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	views, err := s.deps.GetAchievements.Handle(r.Context(), query.GetAchievementsQuery{UserID: id.UserID.String()})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]AchievementResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toAchievementResponse(v))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleStudentStats handles GET /api/v1/stats/student
func (s *Server) handleStudentStats(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	stats, err := s.deps.StudentStats.Handle(r.Context(), id.UserID.String())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStudentStatsResponse(stats))
}

// handleTeacherStats handles GET /api/v1/stats/teacher
func (s *Server) handleTeacherStats(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	stats, err := s.deps.TeacherStats.Handle(r.Context(), id.UserID.String())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTeacherStatsResponse(stats))
}
