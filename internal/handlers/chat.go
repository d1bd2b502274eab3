package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pulsechat/backend/internal/auth"
	"github.com/pulsechat/backend/internal/database"
)

// StartChat finds or creates the direct conversation between the caller and
// another user. Starting a chat with yourself is rejected.
func StartChat(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)

		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if req.UserID == userID {
			writeError(w, http.StatusBadRequest, "cannot start a chat with yourself")
			return
		}

		other, err := database.GetUserByID(db, req.UserID)
		if err != nil || other == nil {
			writeError(w, http.StatusBadRequest, "user not found")
			return
		}

		conv, err := database.FindOrCreateDirectConversation(db, userID, req.UserID)
		if err != nil {
			slog.Error("failed to start chat", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, conv)
	}
}

// SendMessage appends a message to a conversation the caller participates in.
func SendMessage(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)

		var req struct {
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
			Type           string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ConversationID == "" || req.Content == "" {
			writeError(w, http.StatusBadRequest, "conversation_id and content are required")
			return
		}

		isParticipant, err := database.IsParticipant(db, req.ConversationID, userID)
		if err != nil {
			slog.Error("failed to check participant", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !isParticipant {
			writeError(w, http.StatusBadRequest, "conversation id is invalid")
			return
		}

		msg, err := database.AppendMessage(db, req.ConversationID, userID, req.Content, req.Type)
		if err != nil {
			slog.Error("failed to send message", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

// GetMessages returns the messages of the caller's direct conversation with
// another user, oldest first.
func GetMessages(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)

		otherID := r.URL.Query().Get("userId")
		if otherID == "" {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}

		other, err := database.GetUserByID(db, otherID)
		if err != nil || other == nil {
			writeError(w, http.StatusBadRequest, "user not found")
			return
		}

		conv, err := database.GetDirectConversation(db, userID, otherID)
		if err != nil {
			slog.Error("failed to get conversation", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if conv == nil {
			writeJSON(w, http.StatusOK, []interface{}{})
			return
		}

		messages, err := database.ListMessages(db, conv.ID)
		if err != nil {
			slog.Error("failed to list messages", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, messages)
	}
}

// ListConversations returns the caller's conversations with the other
// participants resolved.
func ListConversations(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)

		summaries, err := database.ListConversationsForUser(db, userID)
		if err != nil {
			slog.Error("failed to list conversations", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, summaries)
	}
}
