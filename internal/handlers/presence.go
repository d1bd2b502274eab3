package handlers

import (
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	redisc "github.com/pulsechat/backend/internal/redis"
)

// OnlineConnections reports the Redis presence mirror.
func OnlineConnections(client *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := redisc.GetOnlineConnections(client)
		if err != nil {
			slog.Error("failed to read presence mirror", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"online": ids,
			"count":  len(ids),
		})
	}
}
