package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type CreateAgreementInput struct {
	RequestID      string
	ClientID       string
	ProfessionalID string
	Amount         float64
	Status         string
}

type AgreementRepository struct {
	db DBTX
}

func NewAgreementRepository(db DBTX) *AgreementRepository {
	return &AgreementRepository{db: db}
}

const agreementColumns = `id, request_id, client_id, professional_id, amount, status, created_at, updated_at`

func (r *AgreementRepository) scanAgreement(row interface{ Scan(dest ...any) error }) (*models.Agreement, error) {
	var agreement models.Agreement
	err := row.Scan(
		&agreement.ID,
		&agreement.RequestID,
		&agreement.ClientID,
		&agreement.ProfessionalID,
		&agreement.Amount,
		&agreement.Status,
		&agreement.CreatedAt,
		&agreement.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *AgreementRepository) GetByRequestAndPro(
	ctx context.Context,
	requestID string,
	professionalID string,
) (*models.Agreement, error) {
	query := `
		SELECT ` + agreementColumns + `
		FROM agreements
		WHERE request_id = $1 AND professional_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanAgreement(r.db.QueryRow(ctx, query, requestID, professionalID))
}

func (r *AgreementRepository) Create(ctx context.Context, input CreateAgreementInput) (*models.Agreement, error) {
	query := `
		INSERT INTO agreements (id, request_id, client_id, professional_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + agreementColumns

	return r.scanAgreement(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.RequestID,
		input.ClientID,
		input.ProfessionalID,
		input.Amount,
		input.Status,
	))
}

// UpdateStatus updates the agreement status in place. Amount is only touched
// when a positive value is supplied.
func (r *AgreementRepository) UpdateStatus(
	ctx context.Context,
	agreementID string,
	status string,
	amount *float64,
) (*models.Agreement, error) {
	query := `
		UPDATE agreements
		SET status = $2,
		    amount = COALESCE($3, amount),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + agreementColumns

	return r.scanAgreement(r.db.QueryRow(ctx, query, agreementID, status, amount))
}
