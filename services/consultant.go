package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/meinhoongagan/healthcoach-api/utils"
	"go.uber.org/zap"
)

const (
	MaxDocumentBytes   = 10 << 20
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type ConsultantService struct {
	consultants repositories.IConsultantRepository
	store       utils.DocumentStore
	folder      string
}

func NewConsultantService(consultants repositories.IConsultantRepository, store utils.DocumentStore, folder string) *ConsultantService {
	return &ConsultantService{consultants: consultants, store: store, folder: folder}
}

func (s *ConsultantService) Search(ctx context.Context, q repositories.ConsultantSearch) ([]models.ConsultantPublic, error) {
	if q.Limit <= 0 {
		q.Limit = defaultSearchLimit
	}
	if q.Limit > maxSearchLimit {
		q.Limit = maxSearchLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Query = strings.TrimSpace(q.Query)

	profiles, err := s.consultants.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConsultantPublic, 0, len(profiles))
	for i := range profiles {
		out = append(out, profiles[i].Public())
	}
	return out, nil
}

func (s *ConsultantService) PublicProfile(ctx context.Context, profileID uint) (*models.ConsultantPublic, error) {
	p, err := s.consultants.FindProfileByID(ctx, profileID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Consultant profile not found")
	}
	if err != nil {
		return nil, err
	}
	pub := p.Public()
	return &pub, nil
}

func (s *ConsultantService) MyProfile(ctx context.Context, p models.Principal) (*models.ConsultantProfile, error) {
	return s.ownProfile(ctx, p, "Consultant profile not found")
}

// PutProfile creates the caller's profile or replaces its editable fields.
func (s *ConsultantService) PutProfile(ctx context.Context, p models.Principal, in models.ConsultantProfileInput) (*models.ConsultantProfile, error) {
	if err := requireConsultant(p); err != nil {
		return nil, err
	}
	if err := in.Validate(true); err != nil {
		return nil, validation("%s", err.Error())
	}
	profile, err := s.consultants.FindProfileByUserID(ctx, p.UserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		profile = &models.ConsultantProfile{UserID: p.UserID}
	case err != nil:
		return nil, err
	}
	in.Apply(profile)
	if err := s.consultants.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ConsultantService) PatchProfile(ctx context.Context, p models.Principal, in models.ConsultantProfileInput) (*models.ConsultantProfile, error) {
	if err := in.Validate(false); err != nil {
		return nil, validation("%s", err.Error())
	}
	profile, err := s.ownProfile(ctx, p, "Consultant profile not found. Create it first.")
	if err != nil {
		return nil, err
	}
	in.Apply(profile)
	if err := s.consultants.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ConsultantService) ownProfile(ctx context.Context, p models.Principal, missing string) (*models.ConsultantProfile, error) {
	if err := requireConsultant(p); err != nil {
		return nil, err
	}
	profile, err := s.consultants.FindProfileByUserID(ctx, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound(missing)
	}
	return profile, err
}

type DocumentUpload struct {
	DocType     models.DocumentType
	Title       *string
	Issuer      *string
	IssueDate   *models.Date
	ExpiresAt   *models.Date
	Filename    string
	ContentType string
	Data        []byte
}

func isPDF(u DocumentUpload) bool {
	declared := u.ContentType == "application/pdf" || strings.EqualFold(path.Ext(u.Filename), ".pdf")
	return declared && (len(u.Data) == 0 || bytes.HasPrefix(u.Data, []byte("%PDF-")))
}

// UploadDocument stores a credential PDF under docs/{profile_id}/{sha256}.
func (s *ConsultantService) UploadDocument(ctx context.Context, p models.Principal, in DocumentUpload) (*models.ConsultantDocument, error) {
	profile, err := s.ownProfile(ctx, p, "Consultant profile not found. Create it first.")
	if err != nil {
		return nil, err
	}
	if !in.DocType.Valid() {
		return nil, validation("doc_type must be one of [degree certificate license internship experience]")
	}
	if !isPDF(in) {
		return nil, validation("Only PDF files are allowed")
	}
	if len(in.Data) == 0 {
		return nil, validation("Empty file")
	}
	if len(in.Data) > MaxDocumentBytes {
		return nil, validation("File too large (max %d MB)", MaxDocumentBytes>>20)
	}

	sum := sha256.Sum256(in.Data)
	hash := hex.EncodeToString(sum[:])
	publicID := fmt.Sprintf("docs/%d/%s", profile.ID, hash)

	url, err := s.store.Upload(ctx, bytes.NewReader(in.Data), publicID, s.folder)
	if errors.Is(err, utils.ErrStorageDisabled) {
		return nil, unavailable("Document storage is not configured")
	}
	if err != nil {
		logger.Log.Error("ConsultantService.UploadDocument: upload failed",
			zap.Uint("profile_id", profile.ID), zap.Error(err))
		return nil, err
	}

	doc := &models.ConsultantDocument{
		ConsultantProfileID: profile.ID,
		DocType:             in.DocType,
		Title:               in.Title,
		Issuer:              in.Issuer,
		IssueDate:           in.IssueDate,
		ExpiresAt:           in.ExpiresAt,
		Bucket:              s.store.Bucket(),
		FilePath:            publicID,
		FileURL:             url,
		FileHash:            hash,
		FileSizeBytes:       int64(len(in.Data)),
		MimeType:            "application/pdf",
	}
	if err := s.consultants.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ConsultantService) ListDocuments(ctx context.Context, profileID uint) ([]models.ConsultantDocument, error) {
	if _, err := s.PublicProfile(ctx, profileID); err != nil {
		return nil, err
	}
	return s.consultants.ListDocuments(ctx, profileID)
}

func (s *ConsultantService) DeleteDocument(ctx context.Context, p models.Principal, documentID uint) error {
	profile, err := s.ownProfile(ctx, p, "Consultant profile not found")
	if err != nil {
		return err
	}
	doc, err := s.consultants.FindDocument(ctx, documentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("Document not found")
	}
	if err != nil {
		return err
	}
	if doc.ConsultantProfileID != profile.ID {
		return forbidden("Not your document")
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		logger.Log.Warn("ConsultantService.DeleteDocument: storage delete failed",
			zap.Uint("document_id", doc.ID), zap.Error(err))
	}
	return s.consultants.DeleteDocument(ctx, doc.ID)
}
