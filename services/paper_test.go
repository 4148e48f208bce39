package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper-vault/models"
	"paper-vault/repository"
	"paper-vault/services"
)

func newTestService() *services.PaperService {
	return services.NewPaperService(repository.NewMemoryPaperRepository(), zap.NewNop())
}

func samplePaper(id string) *models.Paper {
	return &models.Paper{
		ID:        id,
		Title:     "T",
		Summary:   "S",
		Published: time.Date(2022, 10, 13, 13, 8, 54, 0, time.UTC),
		Updated:   time.Date(2023, 1, 9, 16, 33, 43, 0, time.UTC),
		PDFURL:    "http://arxiv.org/pdf/2210.06998v2",
	}
}

func TestCreateAndFindRoundTrip(t *testing.T) {
	svc := newTestService()
	paper := samplePaper("http://arxiv.org/abs/2210.06998v2")

	created, err := svc.Create(context.Background(), paper)
	require.NoError(t, err)
	require.Equal(t, paper, created)

	found, err := svc.Find(context.Background(), paper.ID)
	require.NoError(t, err)
	require.Equal(t, paper, found)
}

func TestCreateConflict(t *testing.T) {
	svc := newTestService()
	paper := samplePaper("http://arxiv.org/abs/2210.06998v2")

	_, err := svc.Create(context.Background(), paper)
	require.NoError(t, err)

	second := samplePaper(paper.ID)
	second.Title = "Other"
	_, err = svc.Create(context.Background(), second)
	require.ErrorIs(t, err, services.ErrAlreadyExists)

	// Der fehlgeschlagene zweite Create lässt das gespeicherte Paper unberührt.
	found, err := svc.Find(context.Background(), paper.ID)
	require.NoError(t, err)
	require.Equal(t, "T", found.Title)
}

func TestFindNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.Find(context.Background(), "http://arxiv.org/abs/missing")
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateMissingPaper(t *testing.T) {
	svc := newTestService()
	title := "New"
	_, err := svc.Update(context.Background(), "http://arxiv.org/abs/missing", &models.PaperUpdate{Title: &title})
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateNotModified(t *testing.T) {
	svc := newTestService()
	paper := samplePaper("http://arxiv.org/abs/2210.06998v2")
	_, err := svc.Create(context.Background(), paper)
	require.NoError(t, err)

	// Leeres partielles Update ist ein No-Op.
	_, err = svc.Update(context.Background(), paper.ID, &models.PaperUpdate{})
	require.ErrorIs(t, err, services.ErrNotModified)

	// Identische Werte ändern ebenfalls nichts.
	sameTitle := "T"
	_, err = svc.Update(context.Background(), paper.ID, &models.PaperUpdate{Title: &sameTitle})
	require.ErrorIs(t, err, services.ErrNotModified)

	found, err := svc.Find(context.Background(), paper.ID)
	require.NoError(t, err)
	require.Equal(t, paper, found)
}

func TestUpdatePartial(t *testing.T) {
	svc := newTestService()
	paper := samplePaper("http://arxiv.org/abs/2210.06998v2")
	_, err := svc.Create(context.Background(), paper)
	require.NoError(t, err)

	title := "New Title"
	updated, err := svc.Update(context.Background(), paper.ID, &models.PaperUpdate{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "New Title", updated.Title)
	require.Equal(t, paper.Summary, updated.Summary)
	require.True(t, paper.Published.Equal(updated.Published))
	require.Equal(t, paper.PDFURL, updated.PDFURL)
	require.Nil(t, updated.DownloadPath)

	found, err := svc.Find(context.Background(), paper.ID)
	require.NoError(t, err)
	require.Equal(t, updated, found)
}

func TestUpdateOptionalFields(t *testing.T) {
	svc := newTestService()
	paper := samplePaper("http://arxiv.org/abs/2210.06998v2")
	_, err := svc.Create(context.Background(), paper)
	require.NoError(t, err)

	path := "s3://papers/arxiv.org_abs_2210.06998v2.pdf"
	doi := "10.1145/3576915.3616588"
	updated, err := svc.Update(context.Background(), paper.ID, &models.PaperUpdate{DownloadPath: &path, DOI: &doi})
	require.NoError(t, err)
	require.NotNil(t, updated.DownloadPath)
	require.Equal(t, path, *updated.DownloadPath)
	require.NotNil(t, updated.DOI)
	require.Equal(t, doi, *updated.DOI)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := newTestService()
	paper := samplePaper("http://arxiv.org/abs/2210.06998v2")
	_, err := svc.Create(context.Background(), paper)
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), paper.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = svc.Find(context.Background(), paper.ID)
	require.ErrorIs(t, err, services.ErrNotFound)

	// Löschen einer fehlenden ID ist kein Fehler, der Count ist 0.
	deleted, err = svc.Delete(context.Background(), paper.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)
}

func TestListRespectsLimit(t *testing.T) {
	svc := newTestService()
	ids := []string{
		"http://arxiv.org/abs/2210.06998v1",
		"http://arxiv.org/abs/2210.06998v2",
		"http://arxiv.org/abs/2210.06998v3",
	}
	for _, id := range ids {
		_, err := svc.Create(context.Background(), samplePaper(id))
		require.NoError(t, err)
	}

	papers, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	papers, err = svc.List(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, papers, 3)
}
