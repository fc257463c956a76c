package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/resume"
)

type streamSnapshot struct {
	Connections []api.ATSConnection `json:"connections"`
	ResumeTasks []*resume.Task      `json:"resume_tasks"`
	Session     string              `json:"session,omitempty"`
	Time        time.Time           `json:"time"`
}

// handleStream pushes the gateway's live state over SSE: the ATS
// connection list, the resume retry queue and the session state.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func() bool {
		snapshot := streamSnapshot{
			Connections: s.connections.Connections(),
			ResumeTasks: s.queue.List(),
			Time:        time.Now().UTC(),
		}
		if s.session != nil {
			snapshot.Session = s.session.State().String()
		}
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
