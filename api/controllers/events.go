package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jrivera-dev/platefleet-backend/api/responses"
	"github.com/jrivera-dev/platefleet-backend/internal/broadcast"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

// OrderEvents streams order lifecycle events over SSE, scoped to the caller's identity.
func OrderEvents(hub *broadcast.Hub, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event hub unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		sub := hub.Subscribe(broadcast.Identity{
			UserID:       actor.UserID,
			Role:         actor.Role,
			RestaurantID: actor.RestaurantID,
		})
		defer hub.Unsubscribe(sub.ID)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		if heartbeat <= 0 {
			heartbeat = 25 * time.Second
		}
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), actor.UserID.String()), "event stream opened")
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case event, open := <-sub.Events:
				if !open {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event broadcast.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.EventID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
	return err
}
