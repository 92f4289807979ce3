package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type CreateQuoteInput struct {
	ConversationID string
	ProfessionalID string
	Currency       string
	Items          []models.QuoteItem
	Total          float64
	ImagePath      *string
}

type QuoteRepository struct {
	db DBTX
}

func NewQuoteRepository(db DBTX) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, input CreateQuoteInput) (*models.Quote, error) {
	items, err := json.Marshal(input.Items)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO quotes (id, conversation_id, professional_id, currency, items, total, image_path, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'sent')
		RETURNING id, conversation_id, professional_id, currency, items, total, image_path, status, created_at
	`

	return r.scanQuote(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.ConversationID,
		input.ProfessionalID,
		input.Currency,
		items,
		input.Total,
		input.ImagePath,
	))
}

func (r *QuoteRepository) GetByID(ctx context.Context, quoteID string) (*models.Quote, error) {
	query := `
		SELECT id, conversation_id, professional_id, currency, items, total, image_path, status, created_at
		FROM quotes
		WHERE id = $1
	`
	return r.scanQuote(r.db.QueryRow(ctx, query, quoteID))
}

func (r *QuoteRepository) ListByConversation(ctx context.Context, conversationID string) ([]models.Quote, error) {
	query := `
		SELECT id, conversation_id, professional_id, currency, items, total, image_path, status, created_at
		FROM quotes
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]models.Quote, 0)
	for rows.Next() {
		quote, err := r.scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *quote)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quotes, nil
}

func (r *QuoteRepository) scanQuote(row interface{ Scan(dest ...any) error }) (*models.Quote, error) {
	var quote models.Quote
	var items []byte
	err := row.Scan(
		&quote.ID,
		&quote.ConversationID,
		&quote.ProfessionalID,
		&quote.Currency,
		&items,
		&quote.Total,
		&quote.ImagePath,
		&quote.Status,
		&quote.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &quote.Items); err != nil {
			return nil, err
		}
	}
	return &quote, nil
}
