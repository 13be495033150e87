package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"askflow/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	query := "INSERT INTO conversations (id, user_id, space_id, title, mode, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, conv.ID, conv.UserID, conv.SpaceID, conv.Title, string(conv.Mode), conv.CreatedAt.UTC(), conv.UpdatedAt.UTC())
	return err
}

const conversationColumns = "id, user_id, space_id, title, mode, created_at, updated_at"

func scanConversation(row interface{ Scan(...any) error }) (*model.Conversation, error) {
	var conv model.Conversation
	var spaceID sql.NullString
	var mode string
	if err := row.Scan(&conv.ID, &conv.UserID, &spaceID, &conv.Title, &mode, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	if spaceID.Valid {
		conv.SpaceID = &spaceID.String
	}
	conv.Mode = model.Mode(mode)
	return &conv, nil
}

func (r *sqliteRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	query := "SELECT " + conversationColumns + " FROM conversations WHERE id = ?"
	conv, err := scanConversation(r.db.QueryRowContext(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (r *sqliteRepository) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	query := "SELECT " + conversationColumns + " FROM conversations WHERE user_id = ? ORDER BY updated_at DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *sqliteRepository) UpdateConversationTitle(ctx context.Context, conversationID, newTitle string) error {
	query := "UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, newTitle, time.Now().UTC(), conversationID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *sqliteRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	query := "DELETE FROM conversations WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, conversationID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// AddMessage inserts the message and bumps the conversation's updated_at in one transaction.
func (r *sqliteRepository) AddMessage(ctx context.Context, message *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var metadata sql.NullString
	if len(message.Metadata) > 0 && string(message.Metadata) != "null" {
		metadata.String = string(message.Metadata)
		metadata.Valid = true
	}

	insertMsgQuery := `
		INSERT INTO messages (id, conversation_id, role, content, model, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertMsgQuery,
		message.ID,
		message.ConversationID,
		message.Role,
		message.Content,
		message.Model,
		message.Timestamp.UTC(),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}

	updateQuery := "UPDATE conversations SET updated_at = ? WHERE id = ?"
	if _, err = tx.ExecContext(ctx, updateQuery, time.Now().UTC(), message.ConversationID); err != nil {
		return fmt.Errorf("could not update conversation timestamp: %w", err)
	}

	return tx.Commit()
}

const messageColumns = "id, conversation_id, role, content, model, timestamp, metadata"

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var msg model.Message
		var metadata sql.NullString
		var modelName sql.NullString

		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &modelName, &msg.Timestamp, &metadata); err != nil {
			return nil, err
		}
		if modelName.Valid {
			msg.Model = &modelName.String
		}
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *sqliteRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC, rowid ASC"
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (r *sqliteRepository) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE conversation_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func (r *sqliteRepository) CreateSpace(ctx context.Context, space *model.Space) error {
	query := "INSERT INTO spaces (id, user_id, name, instruction, created_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, space.ID, space.UserID, space.Name, space.Instruction, space.CreatedAt.UTC())
	return err
}

func (r *sqliteRepository) GetSpace(ctx context.Context, spaceID string) (*model.Space, error) {
	query := "SELECT id, user_id, name, instruction, created_at FROM spaces WHERE id = ?"
	var s model.Space
	err := r.db.QueryRowContext(ctx, query, spaceID).Scan(&s.ID, &s.UserID, &s.Name, &s.Instruction, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *sqliteRepository) ListSpaces(ctx context.Context, userID string) ([]*model.Space, error) {
	query := "SELECT id, user_id, name, instruction, created_at FROM spaces WHERE user_id = ? ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []*model.Space
	for rows.Next() {
		var s model.Space
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Instruction, &s.CreatedAt); err != nil {
			return nil, err
		}
		spaces = append(spaces, &s)
	}
	return spaces, rows.Err()
}

func (r *sqliteRepository) AddSearchHistory(ctx context.Context, entry *model.SearchHistoryEntry) error {
	query := "INSERT INTO search_history (id, user_id, query, mode, created_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.UserID, entry.Query, string(entry.Mode), entry.CreatedAt.UTC())
	return err
}

func (r *sqliteRepository) ListSearchHistory(ctx context.Context, userID string, limit int) ([]*model.SearchHistoryEntry, error) {
	query := "SELECT id, user_id, query, mode, created_at FROM search_history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.SearchHistoryEntry
	for rows.Next() {
		var e model.SearchHistoryEntry
		var mode string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &mode, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Mode = model.Mode(mode)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
