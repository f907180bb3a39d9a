package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullProfile(name string) models.ConsultantProfileInput {
	ct := models.ConsultantClinical
	return models.ConsultantProfileInput{
		DisplayName:          &name,
		ConsultantType:       &ct,
		HighestQualification: ptr("MSc Nutrition"),
	}
}

func TestConsultantProfile_PutPatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	coach := h.user(t, "coach", models.UserTypeConsultant)
	user := h.user(t, "alice", models.UserTypeUser)

	_, err := h.consultants.PatchProfile(ctx, coach, models.ConsultantProfileInput{Bio: ptr("hi")})
	assert.EqualError(t, err, "Consultant profile not found. Create it first.")

	_, err = h.consultants.PutProfile(ctx, user, fullProfile("Alice"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.consultants.PutProfile(ctx, coach, models.ConsultantProfileInput{Bio: ptr("partial")})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := h.consultants.PutProfile(ctx, coach, fullProfile("Dr. Coach"))
	require.NoError(t, err)

	patched, err := h.consultants.PatchProfile(ctx, coach, models.ConsultantProfileInput{SessionMinutes: ptr(45)})
	require.NoError(t, err)
	assert.Equal(t, created.ID, patched.ID)
	assert.Equal(t, "Dr. Coach", patched.DisplayName)
	require.NotNil(t, patched.SessionMinutes)
	assert.Equal(t, 45, *patched.SessionMinutes)

	pub, err := h.consultants.PublicProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Coach", pub.DisplayName)
}

func TestConsultantSearch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i, name := range []string{"Zed Fit", "Anna Diet", "Ben Diet"} {
		p := h.user(t, fmt.Sprintf("coach%d", i), models.UserTypeConsultant)
		_, err := h.consultants.PutProfile(ctx, p, fullProfile(name))
		require.NoError(t, err)
	}

	got, err := h.consultants.Search(ctx, repositories.ConsultantSearch{Query: " diet "})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Anna Diet", got[0].DisplayName)

	got, err = h.consultants.Search(ctx, repositories.ConsultantSearch{VerifiedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUploadDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	coach := h.user(t, "coach", models.UserTypeConsultant)
	pdf := []byte("%PDF-1.4 fake credential")

	upload := DocumentUpload{DocType: models.DocLicense, Filename: "license.pdf", ContentType: "application/pdf", Data: pdf}
	_, err := h.consultants.UploadDocument(ctx, coach, upload)
	assert.ErrorIs(t, err, ErrNotFound, "profile is required first")

	profile, err := h.consultants.PutProfile(ctx, coach, fullProfile("Dr. Coach"))
	require.NoError(t, err)

	bad := upload
	bad.Filename, bad.ContentType = "photo.png", "image/png"
	_, err = h.consultants.UploadDocument(ctx, coach, bad)
	assert.EqualError(t, err, "Only PDF files are allowed")

	empty := upload
	empty.Data = nil
	_, err = h.consultants.UploadDocument(ctx, coach, empty)
	assert.EqualError(t, err, "Empty file")

	disguised := upload
	disguised.Data = []byte("not a pdf")
	_, err = h.consultants.UploadDocument(ctx, coach, disguised)
	assert.EqualError(t, err, "Only PDF files are allowed")

	doc, err := h.consultants.UploadDocument(ctx, coach, upload)
	require.NoError(t, err)
	sum := sha256.Sum256(pdf)
	wantPath := fmt.Sprintf("docs/%d/%s", profile.ID, hex.EncodeToString(sum[:]))
	assert.Equal(t, wantPath, doc.FilePath)
	assert.Equal(t, hex.EncodeToString(sum[:]), doc.FileHash)
	assert.Equal(t, int64(len(pdf)), doc.FileSizeBytes)
	assert.Equal(t, "test-bucket", doc.Bucket)
	assert.Contains(t, h.docs.objects, wantPath)

	docs, err := h.consultants.ListDocuments(ctx, profile.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	other := h.user(t, "rival", models.UserTypeConsultant)
	_, err = h.consultants.PutProfile(ctx, other, fullProfile("Rival"))
	require.NoError(t, err)
	assert.ErrorIs(t, h.consultants.DeleteDocument(ctx, other, doc.ID), ErrForbidden)

	require.NoError(t, h.consultants.DeleteDocument(ctx, coach, doc.ID))
	assert.NotContains(t, h.docs.objects, wantPath)
	assert.ErrorIs(t, h.consultants.DeleteDocument(ctx, coach, doc.ID), ErrNotFound)
}
