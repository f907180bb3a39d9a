package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *AuthController) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := h.auth.Register(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary Log in with username or email
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.TokenPair
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	pair, err := h.auth.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

// Token is the form-encoded login used by OAuth2 password clients.
func (h *AuthController) Token(c *fiber.Ctx) error {
	pair, err := h.auth.Login(c.UserContext(), c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

func (h *AuthController) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	pair, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

func (h *AuthController) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.auth.Me(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *AuthController) UpdateMe(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var in services.UpdateUserInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := h.auth.UpdateMe(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Logout is stateless; clients drop their tokens.
func (h *AuthController) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"detail": "Logged out"})
}
