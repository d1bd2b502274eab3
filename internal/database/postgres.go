package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/pulsechat/backend/internal/models"
)

func InitDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// --- Users ---

func CreateUser(db *sql.DB, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := db.QueryRow(
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func GetUserByUsername(db *sql.DB, username string) (*models.User, error) {
	var u models.User
	err := db.QueryRow(
		`SELECT id, username, email, password, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func GetUserByID(db *sql.DB, id string) (*models.User, error) {
	var u models.User
	err := db.QueryRow(
		`SELECT id, username, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// --- Conversations ---

// FindOrCreateDirectConversation returns the direct conversation between the
// two users, creating it (with both participants) on first contact.
func FindOrCreateDirectConversation(db *sql.DB, userA, userB string) (*models.Conversation, error) {
	var c models.Conversation
	err := db.QueryRow(`
		SELECT c.id, c.type, c.created_at
		FROM conversations c
		JOIN conversation_participants pa ON pa.conversation_id = c.id AND pa.user_id = $1
		JOIN conversation_participants pb ON pb.conversation_id = c.id AND pb.user_id = $2
		WHERE c.type = 'direct'
		LIMIT 1
	`, userA, userB).Scan(&c.ID, &c.Type, &c.CreatedAt)
	if err == nil {
		c.Participants = []string{userA, userB}
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO conversations (type) VALUES ('direct') RETURNING id, type, created_at`,
	).Scan(&c.ID, &c.Type, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2), ($1, $3)`,
		c.ID, userA, userB,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add participants: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit conversation: %w", err)
	}

	c.Participants = []string{userA, userB}
	return &c, nil
}

func GetDirectConversation(db *sql.DB, userA, userB string) (*models.Conversation, error) {
	var c models.Conversation
	err := db.QueryRow(`
		SELECT c.id, c.type, c.created_at
		FROM conversations c
		JOIN conversation_participants pa ON pa.conversation_id = c.id AND pa.user_id = $1
		JOIN conversation_participants pb ON pb.conversation_id = c.id AND pb.user_id = $2
		WHERE c.type = 'direct'
		LIMIT 1
	`, userA, userB).Scan(&c.ID, &c.Type, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

func IsParticipant(db *sql.DB, conversationID, userID string) (bool, error) {
	var exists bool
	err := db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID,
	).Scan(&exists)
	return exists, err
}

func ListConversationsForUser(db *sql.DB, userID string) ([]models.ConversationSummary, error) {
	rows, err := db.Query(`
		SELECT c.id, u.id, u.username, u.email, u.created_at,
		       COALESCE(m.last_message, ''), m.last_message_at
		FROM conversation_participants cp
		JOIN conversations c ON c.id = cp.conversation_id
		JOIN conversation_participants other ON other.conversation_id = c.id AND other.user_id != $1
		JOIN users u ON u.id = other.user_id
		LEFT JOIN conversation_meta m ON m.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY COALESCE(m.last_message_at, c.created_at) DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	byConversation := make(map[string]int)
	var summaries []models.ConversationSummary
	for rows.Next() {
		var convID string
		var u models.User
		var lastMessage string
		var lastMessageAt *time.Time
		if err := rows.Scan(&convID, &u.ID, &u.Username, &u.Email, &u.CreatedAt,
			&lastMessage, &lastMessageAt); err != nil {
			return nil, err
		}
		idx, ok := byConversation[convID]
		if !ok {
			summaries = append(summaries, models.ConversationSummary{
				ConversationID: convID,
				LastMessage:    lastMessage,
				LastMessageAt:  lastMessageAt,
			})
			idx = len(summaries) - 1
			byConversation[convID] = idx
		}
		summaries[idx].Users = append(summaries[idx].Users, u)
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	return summaries, nil
}

// --- Messages ---

func AppendMessage(db *sql.DB, conversationID, senderID, content, msgType string) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	var m models.Message
	err := db.QueryRow(`
		INSERT INTO messages (conversation_id, sender_id, content, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, sender_id, content, type, created_at
	`, conversationID, senderID, content, msgType,
	).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	if err := upsertConversationMeta(db, conversationID, senderID, content, m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func upsertConversationMeta(db *sql.DB, conversationID, senderID, content string, at time.Time) error {
	_, err := db.Exec(`
		INSERT INTO conversation_meta (conversation_id, last_message, last_message_at, last_sender_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (conversation_id) DO UPDATE
		SET last_message = $2, last_message_at = $3, last_sender_id = $4
	`, conversationID, content, at, senderID)
	if err != nil {
		return fmt.Errorf("failed to update conversation meta: %w", err)
	}
	return nil
}

func ListMessages(db *sql.DB, conversationID string) ([]models.Message, error) {
	rows, err := db.Query(`
		SELECT id, conversation_id, sender_id, content, type, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
