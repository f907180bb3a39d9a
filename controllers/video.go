package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/services"
)

type VideoController struct {
	video *services.VideoService
}

func NewVideoController(video *services.VideoService) *VideoController {
	return &VideoController{video: video}
}

// Join godoc
// @Summary Get a video token for an active session
// @Tags video
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} utils.VideoGrant
// @Failure 403 {object} map[string]string
// @Router /api/video/appointments/{id}/join [post]
func (h *VideoController) Join(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	grant, err := h.video.Join(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(grant)
}
