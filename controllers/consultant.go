package controllers

import (
	"context"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/meinhoongagan/healthcoach-api/services"
)

type ConsultantController struct {
	consultants *services.ConsultantService
}

func NewConsultantController(consultants *services.ConsultantService) *ConsultantController {
	return &ConsultantController{consultants: consultants}
}

// Search godoc
// @Summary Search the consultant directory
// @Tags consultants
// @Produce json
// @Param q query string false "Name filter"
// @Param verified_only query bool false "Only verified consultants"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.ConsultantPublic
// @Router /api/consultants [get]
func (h *ConsultantController) Search(c *fiber.Ctx) error {
	q := repositories.ConsultantSearch{
		Query:        c.Query("q"),
		VerifiedOnly: c.QueryBool("verified_only", false),
		Limit:        c.QueryInt("limit", 0),
		Offset:       c.QueryInt("offset", 0),
	}
	if q.Limit < 0 || q.Offset < 0 {
		return respondError(c, fiber.NewError(fiber.StatusBadRequest, "limit and offset must not be negative"))
	}
	list, err := h.consultants.Search(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *ConsultantController) PublicProfile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.consultants.PublicProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *ConsultantController) MyProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.consultants.MyProfile(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *ConsultantController) PutProfile(c *fiber.Ctx) error {
	return h.writeProfile(c, h.consultants.PutProfile)
}

func (h *ConsultantController) PatchProfile(c *fiber.Ctx) error {
	return h.writeProfile(c, h.consultants.PatchProfile)
}

func (h *ConsultantController) writeProfile(c *fiber.Ctx, write func(ctx context.Context, p models.Principal, in models.ConsultantProfileInput) (*models.ConsultantProfile, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.ConsultantProfileInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	profile, err := write(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func optionalForm(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

func optionalDate(c *fiber.Ctx, key string) (*models.Date, error) {
	raw := optionalForm(c, key)
	if raw == nil {
		return nil, nil
	}
	d, err := models.ParseDate(*raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+": "+err.Error())
	}
	return &d, nil
}

// UploadDocument godoc
// @Summary Upload a credential PDF
// @Tags consultants
// @Accept multipart/form-data
// @Produce json
// @Param doc_type formData string true "degree, certificate, license, internship or experience"
// @Param file formData file true "PDF file"
// @Success 201 {object} models.ConsultantDocument
// @Failure 400 {object} map[string]string
// @Router /api/consultants/me/documents [post]
func (h *ConsultantController) UploadDocument(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, fiber.NewError(fiber.StatusBadRequest, "file is required"))
	}

	upload := services.DocumentUpload{
		DocType:     models.DocumentType(strings.TrimSpace(c.FormValue("doc_type"))),
		Title:       optionalForm(c, "title"),
		Issuer:      optionalForm(c, "issuer"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
	}
	if upload.IssueDate, err = optionalDate(c, "issue_date"); err != nil {
		return respondError(c, err)
	}
	if upload.ExpiresAt, err = optionalDate(c, "expires_at"); err != nil {
		return respondError(c, err)
	}

	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()
	// One byte past the cap is enough for the service to reject it.
	upload.Data, err = io.ReadAll(io.LimitReader(f, services.MaxDocumentBytes+1))
	if err != nil {
		return respondError(c, err)
	}

	doc, err := h.consultants.UploadDocument(c.UserContext(), p, upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *ConsultantController) ListDocuments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	docs, err := h.consultants.ListDocuments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(docs)
}

func (h *ConsultantController) DeleteDocument(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.consultants.DeleteDocument(c.UserContext(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
