package arxiv

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-vault/models"
)

const defaultBaseURL = "http://export.arxiv.org/api/query"

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher implementiert das Provider-Interface für arXiv.
type Fetcher struct {
	BaseURL    string
	MaxResults int
	Logger     *zap.Logger
}

// NewFetcher erstellt einen neuen arXiv-Fetcher.
func NewFetcher(baseURL string, maxResults int, logger *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxResults <= 0 {
		maxResults = 25
	}
	return &Fetcher{BaseURL: baseURL, MaxResults: maxResults, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "arxiv"
}

// Search führt die Suche auf der arXiv Query-API aus.
func (f *Fetcher) Search(term string) ([]*models.Paper, error) {
	log := f.Logger.With(zap.String("term", term))
	log.Info("Starte Suche auf arXiv.")

	searchURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		f.BaseURL, url.QueryEscape(term), f.MaxResults)
	log.Debug("Rufe arXiv API auf", zap.String("url", searchURL))

	resp, err := httpClient.Get(searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv query failed with status: %d", resp.StatusCode)
	}

	var feed Feed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, err
	}

	var papers []*models.Paper
	for i := range feed.Entries {
		paper, err := mapEntryToModel(&feed.Entries[i])
		if err != nil {
			log.Warn("Konnte Atom-Entry nicht abbilden", zap.String("entry_id", feed.Entries[i].ID), zap.Error(err))
			continue
		}
		papers = append(papers, paper)
	}

	log.Info("Suche auf arXiv abgeschlossen", zap.Int("found_papers", len(papers)))
	return papers, nil
}

// mapEntryToModel konvertiert ein Atom-Entry in unser internes Paper-Modell.
func mapEntryToModel(entry *Entry) (*models.Paper, error) {
	published, err := time.Parse(time.RFC3339, entry.Published)
	if err != nil {
		return nil, fmt.Errorf("ungültiges published-Datum: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, entry.Updated)
	if err != nil {
		return nil, fmt.Errorf("ungültiges updated-Datum: %w", err)
	}

	paper := &models.Paper{
		ID:        entry.ID,
		Title:     strings.Join(strings.Fields(entry.Title), " "),
		Summary:   strings.TrimSpace(entry.Summary),
		Published: published.UTC(),
		Updated:   updated.UTC(),
	}

	// Finde den PDF-Link im Entry
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			paper.PDFURL = link.Href
			break
		}
	}
	// Fallback: arXiv spiegelt die Abstract-URL unter /pdf/
	if paper.PDFURL == "" {
		paper.PDFURL = strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
	}

	if doi := strings.TrimSpace(entry.DOI); doi != "" {
		paper.DOI = &doi
	}
	if comment := strings.TrimSpace(entry.Comment); comment != "" {
		paper.Comment = &comment
	}
	return paper, nil
}
