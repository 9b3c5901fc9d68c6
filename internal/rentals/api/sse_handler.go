package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"rental-location/internal/live"
	"rental-location/internal/models"
	"rental-location/internal/stats"
	"time"
)

const keepAliveInterval = 25 * time.Second

type snapshotEvent struct {
	WorkDate string             `json:"workDate"`
	Logs     []models.RentalLog `json:"logs"`
	Stats    stats.DailyStats   `json:"stats"`
}

// StreamByDate pushes the full log list and stats of ?date= whenever they change
func (h *Handler) StreamByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := requestDate(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	setupSSEHeaders(w)
	ctx := r.Context()

	// Holds only the newest snapshot, older ones are superseded
	updates := make(chan []models.RentalLog, 1)
	sub := live.NewSubscription(h.Hub)
	sub.Start(ctx, date, func(logs []models.RentalLog) {
		select {
		case <-updates:
		default:
		}
		updates <- logs
	})
	defer sub.Stop()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"workDate\":\"%s\"}\n\n", date)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to rental log stream for %s", date))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case logs := <-updates:
			jsonData, err := json.Marshal(snapshotEvent{
				WorkDate: date,
				Logs:     logs,
				Stats:    stats.ComputeStats(logs),
			})
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize snapshot: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from rental log stream for %s", date))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
