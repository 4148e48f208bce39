// Package repository abstrahiert die Persistenz der Paper-Collection.
package repository

import (
	"context"

	"paper-vault/models"
)

// PaperRepository ist der Persistenz-Vertrag für Paper-CRUD. "Nicht gefunden"
// wird als nil-Record gemeldet; Fehler bedeuten immer ein Storage-Problem.
type PaperRepository interface {
	// Create legt ein Paper an und gibt den persistierten Stand zurück.
	Create(ctx context.Context, paper *models.Paper) (*models.Paper, error)

	// GetByID holt ein Paper anhand seiner ID, nil wenn es nicht existiert.
	GetByID(ctx context.Context, id string) (*models.Paper, error)

	// List gibt bis zu limit Paper zurück.
	List(ctx context.Context, limit int64) ([]*models.Paper, error)

	// Update wendet die gesetzten Felder an und gibt die Anzahl der
	// tatsächlich geänderten Dokumente zurück.
	Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error)

	// Delete entfernt ein Paper und gibt die Anzahl gelöschter Dokumente zurück.
	Delete(ctx context.Context, id string) (int64, error)
}
