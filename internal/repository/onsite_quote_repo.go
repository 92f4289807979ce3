package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type CreateOnsiteQuoteInput struct {
	ConversationID string
	ProfessionalID string
	ClientID       string
	DepositAmount  float64
}

type OnsiteQuoteRepository struct {
	db DBTX
}

func NewOnsiteQuoteRepository(db DBTX) *OnsiteQuoteRepository {
	return &OnsiteQuoteRepository{db: db}
}

const onsiteQuoteColumns = `id, conversation_id, professional_id, client_id, status,
	reject_reason, deposit_amount, deposit_checkout_url, deposit_paid_at, created_at, updated_at`

func (r *OnsiteQuoteRepository) scanRequest(row interface{ Scan(dest ...any) error }) (*models.OnsiteQuoteRequest, error) {
	var request models.OnsiteQuoteRequest
	err := row.Scan(
		&request.ID,
		&request.ConversationID,
		&request.ProfessionalID,
		&request.ClientID,
		&request.Status,
		&request.RejectReason,
		&request.DepositAmount,
		&request.DepositCheckoutURL,
		&request.DepositPaidAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *OnsiteQuoteRepository) Create(ctx context.Context, input CreateOnsiteQuoteInput) (*models.OnsiteQuoteRequest, error) {
	query := `
		INSERT INTO onsite_quote_requests (id, conversation_id, professional_id, client_id, status, deposit_amount)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING ` + onsiteQuoteColumns

	return r.scanRequest(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.ConversationID,
		input.ProfessionalID,
		input.ClientID,
		input.DepositAmount,
	))
}

func (r *OnsiteQuoteRepository) GetByID(ctx context.Context, requestID string) (*models.OnsiteQuoteRequest, error) {
	query := `SELECT ` + onsiteQuoteColumns + ` FROM onsite_quote_requests WHERE id = $1`
	return r.scanRequest(r.db.QueryRow(ctx, query, requestID))
}

// UpdateStatusIfPending applies accept/reject with the same compound-predicate
// pattern used for offers, so concurrent transitions surface as pgx.ErrNoRows.
func (r *OnsiteQuoteRepository) UpdateStatusIfPending(
	ctx context.Context,
	requestID string,
	professionalID string,
	nextStatus string,
	rejectReason *string,
) (*models.OnsiteQuoteRequest, error) {
	query := `
		UPDATE onsite_quote_requests
		SET status = $3, reject_reason = $4, updated_at = NOW()
		WHERE id = $1 AND professional_id = $2 AND status = 'pending'
		RETURNING ` + onsiteQuoteColumns

	return r.scanRequest(r.db.QueryRow(ctx, query, requestID, professionalID, nextStatus, rejectReason))
}

// MarkDepositPaidIfUnpaid records the deposit payment exactly once; repeated
// webhook deliveries after the first report pgx.ErrNoRows.
func (r *OnsiteQuoteRepository) MarkDepositPaidIfUnpaid(ctx context.Context, requestID string) (*models.OnsiteQuoteRequest, error) {
	query := `
		UPDATE onsite_quote_requests
		SET deposit_paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deposit_paid_at IS NULL
		RETURNING ` + onsiteQuoteColumns

	return r.scanRequest(r.db.QueryRow(ctx, query, requestID))
}

// SetCheckoutURLIfEmpty caches the checkout URL exactly once; a concurrent
// writer that already stored a URL wins and this call reports pgx.ErrNoRows.
func (r *OnsiteQuoteRepository) SetCheckoutURLIfEmpty(
	ctx context.Context,
	requestID string,
	url string,
) (*models.OnsiteQuoteRequest, error) {
	query := `
		UPDATE onsite_quote_requests
		SET deposit_checkout_url = $2, updated_at = NOW()
		WHERE id = $1 AND deposit_checkout_url IS NULL
		RETURNING ` + onsiteQuoteColumns

	return r.scanRequest(r.db.QueryRow(ctx, query, requestID, url))
}
