package summary

import (
	"context"
	"errors"

	"github.com/councildigest/core/internal/models"
	"github.com/councildigest/core/internal/pkg/pagination"
	"github.com/councildigest/core/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the persistent tier over MySQL. Upserts are a single
// atomic statement so readers never observe a half-written artifact.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a GORM handle as the persistent tier.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetByParent(ctx context.Context, parent ParentRef, style Style) (*SummaryArtifact, error) {
	var row models.SummaryModel
	err := s.db.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ? AND style = ?", parent.Kind, parent.ID, style).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return artifactFromModel(&row), nil
}

func (s *GormStore) GetByFingerprint(ctx context.Context, contentHash string, style Style, model string) (*SummaryArtifact, error) {
	var row models.SummaryModel
	err := s.db.WithContext(ctx).
		Where("content_hash = ? AND style = ? AND model = ?", contentHash, style, model).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return artifactFromModel(&row), nil
}

func (s *GormStore) Upsert(ctx context.Context, parent ParentRef, artifact *SummaryArtifact) error {
	row := modelFromArtifact(parent, artifact)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "parent_kind"}, {Name: "parent_id"}, {Name: "style"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"model", "content_hash", "headline", "body",
			"original_text", "chunks", "chunk_summaries", "updated_at",
		}),
	}).Create(row).Error
}

// DeleteByFingerprint removes rows for good. A soft-deleted row would
// still hold the (parent_kind, parent_id, style) unique index and block
// the regeneration upsert.
func (s *GormStore) DeleteByFingerprint(ctx context.Context, contentHash string, style Style, model string) (int64, error) {
	query := s.db.WithContext(ctx).Unscoped().Where("content_hash = ?", contentHash)
	if style != "" {
		query = query.Where("style = ?", style)
	}
	if model != "" {
		query = query.Where("model = ?", model)
	}
	result := query.Delete(&models.SummaryModel{})
	return result.RowsAffected, result.Error
}

// List pages stored summary rows, newest first, optionally filtered by
// parent kind and style.
func (s *GormStore) List(ctx context.Context, kind, style string, q pagination.Query) ([]models.SummaryModel, response.Pagination, error) {
	query := s.db.WithContext(ctx).
		Model(&models.SummaryModel{}).
		Order("updated_at DESC")
	if kind != "" {
		query = query.Where("parent_kind = ?", kind)
	}
	if style != "" {
		query = query.Where("style = ?", style)
	}

	var rows []models.SummaryModel
	p, err := pagination.Paginate(query, q, &rows)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	return rows, p, nil
}

func artifactFromModel(row *models.SummaryModel) *SummaryArtifact {
	return &SummaryArtifact{
		Headline:       row.Headline,
		Body:           row.Body,
		OriginalText:   row.OriginalText,
		Chunks:         row.Chunks,
		ChunkSummaries: row.ChunkSummaries,
		Style:          Style(row.Style),
		Model:          row.Model,
		ContentHash:    row.ContentHash,
		CreatedAt:      row.CreatedAt,
	}
}

func modelFromArtifact(parent ParentRef, artifact *SummaryArtifact) *models.SummaryModel {
	return &models.SummaryModel{
		ParentKind:     string(parent.Kind),
		ParentID:       parent.ID,
		Style:          string(artifact.Style),
		Model:          artifact.Model,
		ContentHash:    artifact.ContentHash,
		Headline:       artifact.Headline,
		Body:           artifact.Body,
		OriginalText:   artifact.OriginalText,
		Chunks:         models.StringArray(artifact.Chunks),
		ChunkSummaries: models.StringArray(artifact.ChunkSummaries),
	}
}
