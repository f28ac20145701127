package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	ListInbox(ctx context.Context, userID string, limit, offset int) ([]model.Message, int, error)
	ListOutbox(ctx context.Context, userID string, limit, offset int) ([]model.Message, int, error)
	MarkInboxRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type pgMessageRepository struct {
	db *sql.DB
}

func NewPgMessageRepository(db *sql.DB) MessageRepository {
	return &pgMessageRepository{db: db}
}

func (r *pgMessageRepository) Create(ctx context.Context, m *model.Message) error {
	query := `INSERT INTO messages (id, text, from_user_id, to_user_id)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Text, m.FromUserID, m.ToUserID)
	if err != nil {
		return fmt.Errorf("pgMessageRepository.Create: %w", err)
	}
	return nil
}

const messageSelect = `
    SELECT m.id, m.text, m.from_user_id, m.to_user_id,
           fu.username AS from_username, tu.username AS to_username,
           m.read, m.sent_at
    FROM messages m
    LEFT JOIN users fu ON m.from_user_id = fu.id
    LEFT JOIN users tu ON m.to_user_id = tu.id`

func (r *pgMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	message := &model.Message{}
	err := r.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = $1`, id).Scan(
		&message.ID, &message.Text, &message.FromUserID, &message.ToUserID,
		&message.FromUsername, &message.ToUsername, &message.Read, &message.SentAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMessageRepository.FindByID: %w", err)
	}
	return message, nil
}

func (r *pgMessageRepository) ListInbox(ctx context.Context, userID string, limit, offset int) ([]model.Message, int, error) {
	return r.list(ctx, "m.to_user_id", userID, limit, offset)
}

func (r *pgMessageRepository) ListOutbox(ctx context.Context, userID string, limit, offset int) ([]model.Message, int, error) {
	return r.list(ctx, "m.from_user_id", userID, limit, offset)
}

func (r *pgMessageRepository) list(ctx context.Context, column, userID string, limit, offset int) ([]model.Message, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM messages m WHERE ` + column + ` = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgMessageRepository.list count: %w", err)
	}

	query := messageSelect + ` WHERE ` + column + ` = $1 ORDER BY m.sent_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgMessageRepository.list: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID, &m.Text, &m.FromUserID, &m.ToUserID,
			&m.FromUsername, &m.ToUsername, &m.Read, &m.SentAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgMessageRepository.list scan: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

func (r *pgMessageRepository) MarkInboxRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET read = TRUE WHERE to_user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("pgMessageRepository.MarkInboxRead: %w", err)
	}
	return nil
}

func (r *pgMessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE to_user_id = $1 AND read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pgMessageRepository.CountUnread: %w", err)
	}
	return count, nil
}
