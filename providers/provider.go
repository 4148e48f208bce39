package providers

import "paper-vault/models"

// Provider ist das Interface, das jede Metadaten-Quelle (z.B. arXiv) implementieren muss.
type Provider interface {
	// Search führt eine Suche für einen gegebenen Term durch und gibt eine Liste von standardisierten Paper-Modellen zurück.
	Search(term string) ([]*models.Paper, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "arxiv").
	Name() string
}
