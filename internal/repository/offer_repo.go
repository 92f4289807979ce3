package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type CreateOfferInput struct {
	ConversationID string
	RequestID      *string
	ProfessionalID string
	ClientID       string
	Title          string
	Description    *string
	Amount         float64
	Currency       string
}

type OfferRepository struct {
	db DBTX
}

func NewOfferRepository(db DBTX) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, conversation_id, request_id, professional_id, client_id,
	title, description, amount, currency, status, reject_reason, created_at, updated_at`

func (r *OfferRepository) scanOffer(row interface{ Scan(dest ...any) error }) (*models.Offer, error) {
	var offer models.Offer
	err := row.Scan(
		&offer.ID,
		&offer.ConversationID,
		&offer.RequestID,
		&offer.ProfessionalID,
		&offer.ClientID,
		&offer.Title,
		&offer.Description,
		&offer.Amount,
		&offer.Currency,
		&offer.Status,
		&offer.RejectReason,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *OfferRepository) Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	query := `
		INSERT INTO offers (id, conversation_id, request_id, professional_id, client_id,
			title, description, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'sent')
		RETURNING ` + offerColumns

	return r.scanOffer(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.ConversationID,
		input.RequestID,
		input.ProfessionalID,
		input.ClientID,
		input.Title,
		input.Description,
		input.Amount,
		input.Currency,
	))
}

func (r *OfferRepository) GetByID(ctx context.Context, offerID string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return r.scanOffer(r.db.QueryRow(ctx, query, offerID))
}

// RejectIfSent performs the reject transition with a compound predicate so a
// concurrent transition loses the race as pgx.ErrNoRows instead of clobbering
// a terminal status.
func (r *OfferRepository) RejectIfSent(
	ctx context.Context,
	offerID string,
	professionalID string,
	reason *string,
) (*models.Offer, error) {
	query := `
		UPDATE offers
		SET status = 'rejected', reject_reason = $3, updated_at = NOW()
		WHERE id = $1 AND professional_id = $2 AND status = 'sent'
		RETURNING ` + offerColumns

	return r.scanOffer(r.db.QueryRow(ctx, query, offerID, professionalID, reason))
}

func (r *OfferRepository) AcceptIfSent(
	ctx context.Context,
	offerID string,
	clientID string,
) (*models.Offer, error) {
	query := `
		UPDATE offers
		SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND client_id = $2 AND status = 'sent'
		RETURNING ` + offerColumns

	return r.scanOffer(r.db.QueryRow(ctx, query, offerID, clientID))
}

func (r *OfferRepository) MarkPaidIfAccepted(ctx context.Context, offerID string) (*models.Offer, error) {
	query := `
		UPDATE offers
		SET status = 'paid', updated_at = NOW()
		WHERE id = $1 AND status = 'accepted'
		RETURNING ` + offerColumns

	return r.scanOffer(r.db.QueryRow(ctx, query, offerID))
}

func (r *OfferRepository) List(ctx context.Context, limit int, offset int) ([]models.Offer, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + offerColumns + `
		FROM offers
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	offers := make([]models.Offer, 0)
	for rows.Next() {
		offer, err := r.scanOffer(rows)
		if err != nil {
			return nil, 0, err
		}
		offers = append(offers, *offer)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return offers, total, nil
}
