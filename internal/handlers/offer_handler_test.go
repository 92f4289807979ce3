package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/contactguard"
	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/services"
)

type stubOfferService struct {
	createResult *models.Offer
	createErr    error
	getResult    *models.Offer
	getErr       error
	acceptResult *models.Offer
	acceptErr    error
	rejectResult *models.Offer
	rejectErr    error

	lastActorID     string
	lastOfferID     string
	lastCreateInput services.CreateOfferInput
	lastReason      *string
}

func (s *stubOfferService) CreateOffer(_ context.Context, actorID string, input services.CreateOfferInput) (*models.Offer, error) {
	s.lastActorID = actorID
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubOfferService) GetOffer(_ context.Context, actorID string, offerID string) (*models.Offer, error) {
	s.lastActorID = actorID
	s.lastOfferID = offerID
	return s.getResult, s.getErr
}

func (s *stubOfferService) AcceptOffer(_ context.Context, actorID string, offerID string) (*models.Offer, error) {
	s.lastActorID = actorID
	s.lastOfferID = offerID
	return s.acceptResult, s.acceptErr
}

func (s *stubOfferService) RejectOffer(_ context.Context, actorID string, offerID string, reason *string) (*models.Offer, error) {
	s.lastActorID = actorID
	s.lastOfferID = offerID
	s.lastReason = reason
	return s.rejectResult, s.rejectErr
}

func newOfferApp(service *stubOfferService, userID, role string) *fiber.App {
	handler := NewOfferHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Post("/api/v1/offers", handler.CreateOffer)
	app.Get("/api/v1/offers/:id", handler.GetOffer)
	app.Post("/api/v1/offers/:id/accept", handler.AcceptOffer)
	app.Post("/api/v1/offers/:id/reject", handler.RejectOffer)
	return app
}

func TestCreateOfferReturnsCreatedOffer(t *testing.T) {
	service := &stubOfferService{
		createResult: &models.Offer{
			ID:             "off-1",
			ConversationID: "conv-1",
			ProfessionalID: "pro-1",
			ClientID:       "cli-1",
			Title:          "Instalación de boiler",
			Amount:         800,
			Currency:       "MXN",
			Status:         models.OfferStatusSent,
		},
	}
	app := newOfferApp(service, "pro-1", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(`{
		"conversation_id": "conv-1",
		"title": "Instalación de boiler",
		"amount": 800,
		"currency": "mxn"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != "pro-1" {
		t.Fatalf("expected actor pro-1, got %q", service.lastActorID)
	}
	if service.lastCreateInput.ConversationID != "conv-1" {
		t.Fatalf("expected conversation conv-1, got %q", service.lastCreateInput.ConversationID)
	}

	var body struct {
		OK    bool         `json:"ok"`
		Offer models.Offer `json:"offer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.OK {
		t.Fatalf("expected ok true")
	}
	if body.Offer.Status != models.OfferStatusSent {
		t.Fatalf("expected sent status, got %q", body.Offer.Status)
	}
}

func TestCreateOfferBlockedByContactPolicy(t *testing.T) {
	service := &stubOfferService{
		createErr: &services.ContactBlockedError{
			Message: "Por seguridad, no compartas datos de contacto antes de aceptar una oferta.",
			Findings: []contactguard.Finding{
				{Field: "description", Kind: "phone", Match: "55 1234 5678"},
			},
		},
	}
	app := newOfferApp(service, "pro-1", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(`{
		"conversation_id": "conv-1",
		"title": "Plomería",
		"description": "llámame al 55 1234 5678",
		"amount": 500
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.OK {
		t.Fatalf("expected ok false")
	}
	if body.Error != "CONTACT_BLOCKED" {
		t.Fatalf("expected CONTACT_BLOCKED, got %q", body.Error)
	}
}

func TestGetOfferReturnsNotFound(t *testing.T) {
	service := &stubOfferService{getErr: services.ErrNotFound}
	app := newOfferApp(service, "cli-1", "client")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers/off-999", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Error != "OFFER_NOT_FOUND" {
		t.Fatalf("expected OFFER_NOT_FOUND, got %q", body.Error)
	}
}

func TestAcceptOfferReturnsConflictOnLostRace(t *testing.T) {
	service := &stubOfferService{acceptErr: services.ErrUpdateConflict}
	app := newOfferApp(service, "cli-1", "client")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/off-1/accept", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Error != "OFFER_UPDATE_FAILED" {
		t.Fatalf("expected OFFER_UPDATE_FAILED, got %q", body.Error)
	}
}

func TestRejectOfferReturnsRejectedOffer(t *testing.T) {
	reason := "too far"
	service := &stubOfferService{
		rejectResult: &models.Offer{
			ID:           "off-1",
			Status:       models.OfferStatusRejected,
			RejectReason: &reason,
		},
	}
	app := newOfferApp(service, "pro-1", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/off-1/reject", strings.NewReader(`{"reason":"too far"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastReason == nil || *service.lastReason != "too far" {
		t.Fatalf("expected forwarded reason, got %v", service.lastReason)
	}

	var body struct {
		OK    bool         `json:"ok"`
		Offer models.Offer `json:"offer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Offer.Status != models.OfferStatusRejected {
		t.Fatalf("expected rejected status, got %q", body.Offer.Status)
	}
	if body.Offer.RejectReason == nil || *body.Offer.RejectReason != "too far" {
		t.Fatalf("expected reject reason persisted, got %v", body.Offer.RejectReason)
	}
}

func TestRejectOfferByOutsiderReturnsForbidden(t *testing.T) {
	service := &stubOfferService{rejectErr: services.ErrForbidden}
	app := newOfferApp(service, "pro-2", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/off-1/reject", strings.NewReader(`{"reason":"not mine"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.OK || body.Error != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN envelope, got %+v", body)
	}
}

func TestRejectOfferWithoutBodyForwardsNilReason(t *testing.T) {
	service := &stubOfferService{rejectResult: &models.Offer{ID: "off-1", Status: models.OfferStatusRejected}}
	app := newOfferApp(service, "pro-1", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/off-1/reject", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastReason != nil {
		t.Fatalf("expected nil reason, got %v", service.lastReason)
	}
}

func TestMapServiceErrorDefaultsToInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapServiceError(c, errors.New("boom"), "OFFER_NOT_FOUND", "OFFER_UPDATE_FAILED")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
