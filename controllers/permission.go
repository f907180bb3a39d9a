package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/services"
)

type PermissionController struct {
	permissions *services.PermissionService
}

func NewPermissionController(permissions *services.PermissionService) *PermissionController {
	return &PermissionController{permissions: permissions}
}

type revokeRequest struct {
	ConsultantUserID uint `json:"consultant_user_id"`
}

// Grant godoc
// @Summary Grant a consultant access to health data
// @Tags permissions
// @Accept json
// @Produce json
// @Param body body services.GrantInput true "Grant"
// @Success 200 {object} models.Permission
// @Failure 400 {object} map[string]string
// @Router /api/permissions/me/grant [post]
func (h *PermissionController) Grant(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var in services.GrantInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	perm, err := h.permissions.Grant(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(perm)
}

func (h *PermissionController) Revoke(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var req revokeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	n, err := h.permissions.Revoke(c.UserContext(), p, req.ConsultantUserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"revoked": n})
}

func (h *PermissionController) ListMine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	perms, err := h.permissions.ListMine(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(perms)
}
