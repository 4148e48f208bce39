package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paper-vault/models"
)

// MongoPaperRepository implementiert PaperRepository auf einer Mongo-Collection.
// Jede Operation entspricht genau einem atomaren Collection-Aufruf.
type MongoPaperRepository struct {
	papers *mongo.Collection
}

// NewMongoPaperRepository erstellt ein Repository über der gegebenen Collection.
func NewMongoPaperRepository(papers *mongo.Collection) *MongoPaperRepository {
	return &MongoPaperRepository{papers: papers}
}

// Create fügt das Paper ein und liest den persistierten Stand zurück.
func (r *MongoPaperRepository) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	if _, err := r.papers.InsertOne(ctx, paper); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, paper.ID)
}

// GetByID holt ein Paper anhand der _id, nil wenn es nicht existiert.
func (r *MongoPaperRepository) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	var paper models.Paper
	err := r.papers.FindOne(ctx, bson.M{"_id": id}).Decode(&paper)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// List gibt bis zu limit Paper zurück.
func (r *MongoPaperRepository) List(ctx context.Context, limit int64) ([]*models.Paper, error) {
	cursor, err := r.papers.Find(ctx, bson.M{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	papers := make([]*models.Paper, 0)
	for cursor.Next(ctx) {
		var paper models.Paper
		if err := cursor.Decode(&paper); err != nil {
			return nil, err
		}
		papers = append(papers, &paper)
	}
	return papers, cursor.Err()
}

// Update wendet die Felder als $set an. Mongo meldet ModifiedCount 0, wenn
// die übermittelten Werte den gespeicherten entsprechen.
func (r *MongoPaperRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	// Leeres $set lehnt Mongo ab, ein leeres Update ändert ohnehin nichts.
	if len(fields) == 0 {
		return 0, nil
	}
	result, err := r.papers.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// Delete entfernt das Paper mit der gegebenen _id.
func (r *MongoPaperRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.papers.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
