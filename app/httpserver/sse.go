package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/code-arena-club/arena-backend/internal/attr"
)

// handleLeaderboardStream is the SSE endpoint for live leaderboard updates.
// The first event on every connection is the current snapshot; after that
// the client receives row updates plus out-of-band status and phase changes.
func (s *Server) handleLeaderboardStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contestID, err := contestIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	sub := s.hub.Subscribe(ctx, contestID)
	defer sub.Close()

	s.logger.InfoContext(ctx, "SSE connection established",
		attr.ContestID("contest_id", contestID),
		attr.String("subscription_id", sub.ID.String()))
	defer s.logger.InfoContext(ctx, "SSE connection closed",
		attr.ContestID("contest_id", contestID),
		attr.String("subscription_id", sub.ID.String()))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}

			data, err := json.Marshal(event.Data)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to marshal SSE event",
					attr.String("event_type", event.Type),
					attr.Error(err))
				continue
			}

			fmt.Fprintf(w, "event: %s\n", event.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
