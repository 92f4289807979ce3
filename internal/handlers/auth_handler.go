package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
	"github.com/hlira-mx/ChambaAppBack/pkg/utils"
)

type AuthHandler struct {
	userRepo  *repository.UserRepository
	jwtSecret string
}

func NewAuthHandler(userRepo *repository.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	FullName *string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type fcmTokenRequest struct {
	Token *string `json:"token"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_EMAIL")
	}
	req.Email = strings.ToLower(parsedEmail.Address)
	if len(req.Password) < 8 {
		return respondError(c, fiber.StatusBadRequest, "PASSWORD_TOO_SHORT")
	}
	if req.Role != "client" && req.Role != "pro" {
		return respondError(c, fiber.StatusBadRequest, "INVALID_ROLE")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
		FullName:     req.FullName,
	}
	if err := h.userRepo.CreateUser(c.Context(), user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return respondError(c, fiber.StatusConflict, "EMAIL_ALREADY_EXISTS")
		}
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, h.jwtSecret)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondCreated(c, fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_EMAIL")
	}
	req.Email = strings.ToLower(parsedEmail.Address)

	user, err := h.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return respondError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS")
		}
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return respondError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, h.jwtSecret)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return respondError(c, fiber.StatusNotFound, "USER_NOT_FOUND")
		}
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{"user": publicUser(user)})
}

// UpdateFCMToken registers or clears the device token used for push delivery.
func (h *AuthHandler) UpdateFCMToken(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req fcmTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	if err := h.userRepo.UpdateFCMToken(c.Context(), userID, req.Token); err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{})
}

func publicUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"role":      user.Role,
		"full_name": user.FullName,
	}
}
