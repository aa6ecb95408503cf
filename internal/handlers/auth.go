package handlers

import (
	"log"

	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles account registration and sign-in endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignupRequest is the request body for registration
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailRequest carries only an email address
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest confirms a registration code
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// SigninRequest is the request body for user and admin sign-in
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest sets a new password with a reset code
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Signup creates a pending user and sends a registration code
// POST /user/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.authService.Signup(c.UserContext(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ User registered: %s", user.Email)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful. Check your email for the verification code.",
		"user":    user.ToResponse(),
	})
}

// VerifyOTP activates a pending account
// POST /user/verify-otp
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.authService.VerifyOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Account verified",
		"user":    user.ToResponse(),
	})
}

// ResendOTP issues a fresh registration code
// POST /user/resend-otp
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.ResendOTP(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Verification code sent",
	})
}

// Signin authenticates a verified user
// POST /user/signin
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.authService.Signin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("🚫 Sign-in rejected for %s", req.Email)
		return respondError(c, err)
	}

	return c.JSON(result)
}

// ForgotPassword sends a password reset code
// POST /user/forgot-password
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password reset code sent",
	})
}

// ResetPassword replaces the password using a reset code
// POST /user/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.OTP, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated",
	})
}

// AdminSignin authenticates an admin
// POST /admin/signin
func (h *AuthHandler) AdminSignin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.authService.AdminSignin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("🚫 Admin sign-in rejected for %s", req.Email)
		return respondError(c, err)
	}

	return c.JSON(result)
}
