package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/services"
	"go.uber.org/zap"
)

const sseHeartbeat = 15 * time.Second

type SessionController struct {
	sessions    *services.SessionService
	permissions *services.PermissionService
	clientData  *services.ClientDataService
}

func NewSessionController(sessions *services.SessionService, permissions *services.PermissionService, clientData *services.ClientDataService) *SessionController {
	return &SessionController{sessions: sessions, permissions: permissions, clientData: clientData}
}

type messageRequest struct {
	Message string `json:"message"`
}

type noteRequest struct {
	Note            string `json:"note"`
	IsVisibleToUser bool   `json:"is_visible_to_user"`
}

type sessionGrantRequest struct {
	Scope     string   `json:"scope"`
	Resources []string `json:"resources"`
}

// Start godoc
// @Summary Start the session of an appointment
// @Tags sessions
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} models.SessionRoom
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/sessions/appointments/{id}/start [post]
func (h *SessionController) Start(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	room, err := h.sessions.Start(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}

// End godoc
// @Summary End an active session
// @Tags sessions
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} models.SessionRoom
// @Failure 409 {object} map[string]string
// @Router /api/sessions/appointments/{id}/end [post]
func (h *SessionController) End(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	room, err := h.sessions.End(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}

func (h *SessionController) ListMessages(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	roomID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	afterID, err := queryID(c, "after_id")
	if err != nil {
		return respondError(c, err)
	}
	var after uint
	if afterID != nil {
		after = *afterID
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return respondError(c, fiber.NewError(fiber.StatusBadRequest, "Invalid limit"))
	}
	msgs, err := h.sessions.ListMessages(c.UserContext(), p, roomID, after, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}

func (h *SessionController) PostMessage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	roomID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req messageRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	msg, err := h.sessions.PostMessage(c.UserContext(), p, roomID, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// Events streams room events as server-sent events until the client goes away.
func (h *SessionController) Events(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	roomID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := h.sessions.Follow(ctx, p, roomID)
	if err != nil {
		cancel()
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(sseHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					logger.Log.Error("Failed to encode room event", zap.Uint("room_id", roomID), zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				logger.Log.Debug("Event stream closed", zap.Uint("room_id", roomID), zap.Error(err))
				return
			}
		}
	})
	return nil
}

func (h *SessionController) GetNote(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	note, err := h.sessions.GetNote(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(note)
}

func (h *SessionController) PutNote(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req noteRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	note, err := h.sessions.UpsertNote(c.UserContext(), p, id, req.Note, req.IsVisibleToUser)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(note)
}

func (h *SessionController) Permissions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	perms, err := h.permissions.SessionPermissions(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(perms)
}

// GrantPermissions lets the appointment's user grant its consultant access.
func (h *SessionController) GrantPermissions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req sessionGrantRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	perm, err := h.permissions.GrantForSession(c.UserContext(), p, id, req.Scope, req.Resources)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(perm)
}

func (h *SessionController) ClientHealth(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.clientData.SessionClientHealth(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
