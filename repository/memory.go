package repository

import (
	"context"
	"sync"
	"time"

	"paper-vault/models"
)

// MemoryPaperRepository ist eine In-Memory-Implementierung für Tests und
// lokale Entwicklung. Sie bildet die Mongo-Semantik nach, insbesondere
// ModifiedCount 0 bei Updates ohne effektive Änderung.
type MemoryPaperRepository struct {
	mu     sync.RWMutex
	papers map[string]*models.Paper
}

// NewMemoryPaperRepository erstellt ein leeres In-Memory-Repository.
func NewMemoryPaperRepository() *MemoryPaperRepository {
	return &MemoryPaperRepository{papers: make(map[string]*models.Paper)}
}

func (r *MemoryPaperRepository) Create(_ context.Context, paper *models.Paper) (*models.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := clone(paper)
	r.papers[paper.ID] = stored
	return clone(stored), nil
}

func (r *MemoryPaperRepository) GetByID(_ context.Context, id string) (*models.Paper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paper, ok := r.papers[id]
	if !ok {
		return nil, nil
	}
	return clone(paper), nil
}

func (r *MemoryPaperRepository) List(_ context.Context, limit int64) ([]*models.Paper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	papers := make([]*models.Paper, 0, len(r.papers))
	for _, paper := range r.papers {
		if int64(len(papers)) >= limit {
			break
		}
		papers = append(papers, clone(paper))
	}
	return papers, nil
}

func (r *MemoryPaperRepository) Update(_ context.Context, id string, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.papers[id]
	if !ok {
		return 0, nil
	}
	changed := false
	for key, value := range fields {
		if applyField(paper, key, value) {
			changed = true
		}
	}
	if !changed {
		return 0, nil
	}
	return 1, nil
}

func (r *MemoryPaperRepository) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.papers[id]; !ok {
		return 0, nil
	}
	delete(r.papers, id)
	return 1, nil
}

// applyField setzt ein einzelnes Feld und meldet, ob sich der Wert geändert hat.
func applyField(p *models.Paper, key string, value interface{}) bool {
	switch key {
	case "title":
		return setString(&p.Title, value)
	case "summary":
		return setString(&p.Summary, value)
	case "pdf_url":
		return setString(&p.PDFURL, value)
	case "published":
		return setTime(&p.Published, value)
	case "updated":
		return setTime(&p.Updated, value)
	case "download_path":
		return setOptString(&p.DownloadPath, value)
	case "doi":
		return setOptString(&p.DOI, value)
	case "comment":
		return setOptString(&p.Comment, value)
	}
	return false
}

func setString(dst *string, value interface{}) bool {
	s, ok := value.(string)
	if !ok || *dst == s {
		return false
	}
	*dst = s
	return true
}

func setOptString(dst **string, value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	if *dst != nil && **dst == s {
		return false
	}
	*dst = &s
	return true
}

func setTime(dst *time.Time, value interface{}) bool {
	t, ok := value.(time.Time)
	if !ok || dst.Equal(t) {
		return false
	}
	*dst = t
	return true
}

func clone(p *models.Paper) *models.Paper {
	c := *p
	c.DownloadPath = cloneString(p.DownloadPath)
	c.DOI = cloneString(p.DOI)
	c.Comment = cloneString(p.Comment)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
