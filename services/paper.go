package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"paper-vault/models"
	"paper-vault/repository"
)

// Domänenfehler des Paper-Service. Nur der Router übersetzt sie in Statuscodes.
var (
	ErrAlreadyExists = errors.New("paper already exists")
	ErrNotFound      = errors.New("paper not found")
	ErrNotModified   = errors.New("paper not modified")
)

// PaperService enthält die Geschäftsregeln für Paper-CRUD, unabhängig von
// HTTP-Details und vom konkreten Storage-Backend.
type PaperService struct {
	Repo   repository.PaperRepository
	Logger *zap.Logger
}

// NewPaperService erstellt eine neue Instanz des PaperService.
func NewPaperService(repo repository.PaperRepository, logger *zap.Logger) *PaperService {
	return &PaperService{Repo: repo, Logger: logger}
}

// Create legt ein neues Paper an. Existiert die ID bereits, schlägt die
// Operation mit ErrAlreadyExists fehl.
func (s *PaperService) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	existing, err := s.Repo.GetByID(ctx, paper.ID)
	if err != nil {
		s.Logger.Error("Storage-Fehler bei Existenzprüfung", zap.String("op", "create"), zap.String("id", paper.ID), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	created, err := s.Repo.Create(ctx, paper)
	if err != nil {
		s.Logger.Error("Storage-Fehler beim Anlegen", zap.String("op", "create"), zap.String("id", paper.ID), zap.Error(err))
		return nil, err
	}
	// Tritt unter Single-Writer-Annahme nicht auf.
	if created == nil {
		return nil, ErrNotFound
	}
	return created, nil
}

// List gibt bis zu limit Paper zurück.
func (s *PaperService) List(ctx context.Context, limit int64) ([]*models.Paper, error) {
	papers, err := s.Repo.List(ctx, limit)
	if err != nil {
		s.Logger.Error("Storage-Fehler beim Auflisten", zap.String("op", "list"), zap.Error(err))
		return nil, err
	}
	return papers, nil
}

// Find holt ein einzelnes Paper anhand seiner ID.
func (s *PaperService) Find(ctx context.Context, id string) (*models.Paper, error) {
	paper, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("Storage-Fehler beim Lesen", zap.String("op", "find"), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if paper == nil {
		return nil, ErrNotFound
	}
	return paper, nil
}

// Update wendet ein partielles Update an und gibt den neuen Stand zurück.
// ErrNotModified unterscheidet "Update war ein No-Op" von "Paper fehlt".
func (s *PaperService) Update(ctx context.Context, id string, update *models.PaperUpdate) (*models.Paper, error) {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("Storage-Fehler bei Existenzprüfung", zap.String("op", "update"), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	modified, err := s.Repo.Update(ctx, id, update.Fields())
	if err != nil {
		s.Logger.Error("Storage-Fehler beim Update", zap.String("op", "update"), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if modified == 0 {
		return nil, ErrNotModified
	}

	updated, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("Storage-Fehler beim Nachlesen", zap.String("op", "update"), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	// Zwischen Update und Nachlesen gelöscht: als NotFound melden.
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Delete entfernt ein Paper. Die Operation ist idempotent: eine fehlende ID
// ist kein Fehler, der Count ist dann schlicht 0.
func (s *PaperService) Delete(ctx context.Context, id string) (int64, error) {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		s.Logger.Error("Storage-Fehler beim Löschen", zap.String("op", "delete"), zap.String("id", id), zap.Error(err))
		return 0, err
	}
	return deleted, nil
}
