package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	contestservice "github.com/code-arena-club/arena-backend/app/modules/contest/application"
	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	"github.com/code-arena-club/arena-backend/internal/attr"
)

func (s *Server) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input contestservice.CreateContestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.contests.CreateContest(ctx, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "Create contest failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, result.Failure)
		return
	}

	s.writeJSON(w, http.StatusCreated, result.Success)
}

func (s *Server) handleGetContest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.contests.GetContest(ctx, contestID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Get contest failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusNotFound, result.Failure)
		return
	}

	s.writeJSON(w, http.StatusOK, result.Success)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.leaderboard.GetLeaderboard(ctx, contestID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Get leaderboard failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusNotFound, result.Failure)
		return
	}

	s.writeJSON(w, http.StatusOK, result.Success)
}

// scoreRequest is one evaluated submission from the grading pipeline.
type scoreRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	ProblemKey string    `json:"problem_key"`
	ProblemID  uuid.UUID `json:"problem_id"`
	Score      int       `json:"score"`
}

func (s *Server) handleApplyScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == uuid.Nil || req.ProblemKey == "" || req.Score < 0 {
		http.Error(w, "user_id, problem_key and a non-negative score are required", http.StatusBadRequest)
		return
	}

	contest, ok := s.loadContest(w, r, contestID)
	if !ok {
		return
	}
	if err := contestdomain.CheckPhase(contest, contestdomain.DuringContest, time.Now()); err != nil {
		s.writeJSON(w, http.StatusConflict, err.Error())
		return
	}

	result, err := s.leaderboard.ApplyScore(ctx, contestID, req.UserID, req.ProblemKey, req.ProblemID, req.Score)
	if err != nil {
		s.logger.ErrorContext(ctx, "Apply score failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusConflict, result.Failure)
		return
	}

	s.writeJSON(w, http.StatusOK, result.Success)
}

type statusRequest struct {
	Status contestdomain.LeaderboardStatus `json:"status"`
}

func (s *Server) handleSetLeaderboardStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.leaderboard.SetLeaderboardStatus(ctx, contestID, req.Status)
	if err != nil {
		s.logger.ErrorContext(ctx, "Set leaderboard status failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, result.Failure)
		return
	}

	s.writeJSON(w, http.StatusOK, result.Success)
}

func (s *Server) handleLeaderboardChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	board, ok := s.loadBoard(w, r, contestID)
	if !ok {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	png, err := leaderboardservice.GenerateStandingsChart(board.Rows, limit, leaderboardservice.DefaultChartPalette)
	if err != nil {
		s.logger.ErrorContext(ctx, "Chart rendering failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleLeaderboardExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	board, ok := s.loadBoard(w, r, contestID)
	if !ok {
		return
	}

	xlsx, err := leaderboardservice.ExportStandingsXLSX(*board)
	if err != nil {
		s.logger.ErrorContext(ctx, "Standings export failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "standings-"+contestID.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(xlsx)
}

type healthzResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthzResponse{Status: "ok"}
	status := http.StatusOK
	for _, check := range s.healthChecks {
		if resp.Components == nil {
			resp.Components = make(map[string]string, len(s.healthChecks))
		}
		if err := check.Check(ctx); err != nil {
			s.logger.WarnContext(ctx, "Health check failed",
				attr.String("component", check.Name), attr.Error(err))
			resp.Components[check.Name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			resp.Components[check.Name] = "ok"
		}
	}

	s.writeJSON(w, status, resp)
}

// loadContest resolves the contest document for phase-guarded handlers,
// writing the error response itself on failure.
func (s *Server) loadContest(w http.ResponseWriter, r *http.Request, contestID uuid.UUID) (*contestdomain.Contest, bool) {
	ctx := r.Context()

	result, err := s.contests.GetContest(ctx, contestID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Get contest failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusNotFound, result.Failure)
		return nil, false
	}

	contest, ok := result.Success.(*contestdomain.Contest)
	if !ok {
		s.logger.ErrorContext(ctx, "Unexpected contest payload type")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return contest, true
}

// loadBoard resolves the current leaderboard for the chart and export
// handlers, writing the error response itself on failure.
func (s *Server) loadBoard(w http.ResponseWriter, r *http.Request, contestID uuid.UUID) (*leaderboarddomain.Leaderboard, bool) {
	ctx := r.Context()

	result, err := s.leaderboard.GetLeaderboard(ctx, contestID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Get leaderboard failed", attr.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	if result.Failure != nil {
		s.writeJSON(w, http.StatusNotFound, result.Failure)
		return nil, false
	}

	board, ok := result.Success.(leaderboarddomain.Leaderboard)
	if !ok {
		s.logger.ErrorContext(ctx, "Unexpected leaderboard payload type")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return &board, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response body", attr.Error(err))
	}
}

func contestIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "contestID")
	contestID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid contest id %q", raw)
	}
	return contestID, nil
}
