package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/service"
)

// AuthHandler exposes the signup, login, session and password endpoints.
type AuthHandler struct {
	signup   *service.SignupService
	sessions *service.SessionService
	resets   *service.PasswordResetService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(signup *service.SignupService, sessions *service.SessionService, resets *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{signup: signup, sessions: sessions, resets: resets}
}

// SignupInitiate handles POST /auth/signup/initiate.
func (h *AuthHandler) SignupInitiate(c *fiber.Ctx) error {
	var req dto.SignupInitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Identity == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, identity, password required")
	}

	result, err := h.signup.Initiate(c.Context(), req.Name, req.Identity, req.Password)
	if err != nil {
		return err
	}

	data := fiber.Map{"user_id": result.User.ID}
	if result.OTPHint != "" {
		data["otp_hint"] = result.OTPHint
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": data})
}

// SignupVerify handles POST /auth/signup/verify.
func (h *AuthHandler) SignupVerify(c *fiber.Ctx) error {
	var req dto.SignupVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.UserID == "" || req.OTP == "" {
		return fiber.NewError(http.StatusBadRequest, "user_id and otp required")
	}

	user, pair, err := h.signup.Confirm(c.Context(), req.UserID, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"user": userResponse(user),
		"auth": tokenPairResponse(pair),
	}})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Identity == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "identity and password required")
	}

	user, pair, err := h.sessions.Login(c.Context(), req.Identity, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"user": userResponse(user),
		"auth": tokenPairResponse(pair),
	}})
}

// Renew handles POST /auth/token/renew.
func (h *AuthHandler) Renew(c *fiber.Ctx) error {
	var req dto.RenewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.RefreshToken == "" {
		return fiber.NewError(http.StatusBadRequest, "refresh_token required")
	}

	user, pair, err := h.sessions.Renew(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"user": userResponse(user),
		"auth": tokenPairResponse(pair),
	}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.sessions.Logout(c.Context(), principal.User.ID, req.RefreshToken, req.AllDevices); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Sessions handles GET /auth/sessions.
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	tokens, err := h.sessions.ActiveSessions(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}

	sessions := make([]dto.SessionResponse, 0, len(tokens))
	for _, token := range tokens {
		sessions = append(sessions, dto.SessionResponse{
			JTI:       token.JTI,
			IssuedAt:  token.IssuedAt,
			ExpiresAt: token.ExpiresAt,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sessions": sessions}})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The
// response is identical whether or not the identity exists.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Identity == "" {
		return fiber.NewError(http.StatusBadRequest, "identity required")
	}

	if err := h.resets.Request(c.Context(), req.Identity); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "reset_requested"}})
}

// ConsumePasswordReset handles POST /auth/password/reset/consume.
func (h *AuthHandler) ConsumePasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConsumeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "token and new password required")
	}

	if err := h.resets.Consume(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "current and new password required")
	}

	if err := h.resets.ChangePassword(c.Context(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Role:     string(user.Role),
		Verified: user.OTPVerified,
	}
}

func tokenPairResponse(pair *service.TokenPair) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
		RefreshToken:    pair.RefreshToken,
	}
}
