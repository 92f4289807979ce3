package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type CreateServiceRequestInput struct {
	ClientID    string
	Category    string
	Title       string
	Description *string
	City        *string
}

type ServiceRequestRepository struct {
	db DBTX
}

func NewServiceRequestRepository(db DBTX) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

const serviceRequestColumns = `id, client_id, category, title, description, city, status, created_at, updated_at`

func (r *ServiceRequestRepository) scanRequest(row interface{ Scan(dest ...any) error }) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	err := row.Scan(
		&request.ID,
		&request.ClientID,
		&request.Category,
		&request.Title,
		&request.Description,
		&request.City,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *ServiceRequestRepository) Create(ctx context.Context, input CreateServiceRequestInput) (*models.ServiceRequest, error) {
	query := `
		INSERT INTO requests (id, client_id, category, title, description, city, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'open')
		RETURNING ` + serviceRequestColumns

	return r.scanRequest(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.ClientID,
		input.Category,
		input.Title,
		input.Description,
		input.City,
	))
}

func (r *ServiceRequestRepository) GetByID(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM requests WHERE id = $1`
	return r.scanRequest(r.db.QueryRow(ctx, query, requestID))
}

func (r *ServiceRequestRepository) ListByClient(ctx context.Context, clientID string) ([]models.ServiceRequest, error) {
	query := `
		SELECT ` + serviceRequestColumns + `
		FROM requests
		WHERE client_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.ServiceRequest, 0)
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}
