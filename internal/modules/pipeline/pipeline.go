package pipeline

import (
	"context"
	"errors"

	"github.com/councildigest/core/internal/models"
	"github.com/councildigest/core/internal/modules/summary"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runner drives batch summary generation over the whole corpus in
// dependency order: documents first, then the legislation that folds
// their summaries in, then meetings over legislation summaries. A
// failing entity is logged and skipped so one bad item never stalls
// the rest of the batch.
type Runner struct {
	db     *gorm.DB
	svc    *summary.Service
	loader *summary.Loader
	log    *zap.Logger
}

func NewRunner(db *gorm.DB, svc *summary.Service, loader *summary.Loader, log *zap.Logger) *Runner {
	return &Runner{db: db, svc: svc, loader: loader, log: log}
}

// PhaseStats counts one phase of a batch run.
type PhaseStats struct {
	Processed int
	Failed    int
}

// RunStats aggregates a full batch run.
type RunStats struct {
	Documents    PhaseStats
	Legislations PhaseStats
	Meetings     PhaseStats
}

// Run generates summaries for every entity in dependency order. Only a
// configuration error aborts the run; everything else skips the entity.
func (r *Runner) Run(ctx context.Context, style summary.Style) (RunStats, error) {
	var stats RunStats

	ids, err := r.listIDs(ctx, &models.DocumentModel{})
	if err != nil {
		return stats, err
	}
	if stats.Documents, err = r.phase(ctx, summary.KindDocument, ids, style); err != nil {
		return stats, err
	}

	if ids, err = r.listIDs(ctx, &models.LegislationModel{}); err != nil {
		return stats, err
	}
	if stats.Legislations, err = r.phase(ctx, summary.KindLegislation, ids, style); err != nil {
		return stats, err
	}

	if ids, err = r.listIDs(ctx, &models.MeetingModel{}); err != nil {
		return stats, err
	}
	if stats.Meetings, err = r.phase(ctx, summary.KindMeeting, ids, style); err != nil {
		return stats, err
	}

	r.log.Info("batch run complete",
		zap.Int("documents", stats.Documents.Processed),
		zap.Int("legislations", stats.Legislations.Processed),
		zap.Int("meetings", stats.Meetings.Processed),
		zap.Int("failed", stats.Documents.Failed+stats.Legislations.Failed+stats.Meetings.Failed))
	return stats, nil
}

func (r *Runner) phase(ctx context.Context, kind summary.EntityKind, ids []string, style summary.Style) (PhaseStats, error) {
	var stats PhaseStats
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		parent := summary.ParentRef{Kind: kind, ID: id}

		req, err := r.loader.LoadRequest(ctx, parent, style)
		if err != nil {
			if fatal(err) {
				return stats, err
			}
			stats.Failed++
			r.log.Warn("skipping entity, load failed",
				zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
			continue
		}

		if _, err := r.svc.Summarize(ctx, req, style); err != nil {
			if fatal(err) {
				return stats, err
			}
			stats.Failed++
			r.log.Warn("skipping entity, generation failed",
				zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
			continue
		}
		stats.Processed++
	}
	return stats, nil
}

// ResetStructured invalidates stored summaries for every structured
// legislative action so the next run regenerates them. Used after prompt
// or synthesis changes that only affect the structured path.
func (r *Runner) ResetStructured(ctx context.Context, style summary.Style) (int64, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.LegislationModel{}).
		Where("subtype = ?", string(summary.SubtypeStructuredAction)).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, id := range ids {
		req, err := r.loader.LoadRequest(ctx, summary.ParentRef{Kind: summary.KindLegislation, ID: id}, style)
		if err != nil {
			if fatal(err) {
				return deleted, err
			}
			r.log.Warn("skipping reset, load failed", zap.String("id", id), zap.Error(err))
			continue
		}
		fp := r.svc.FingerprintFor(req, style)
		n, err := r.svc.Invalidate(ctx, fp.ContentHash, fp.Style, fp.Model)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	r.log.Info("structured summaries reset", zap.Int64("deleted", deleted), zap.Int("entities", len(ids)))
	return deleted, nil
}

func (r *Runner) listIDs(ctx context.Context, model interface{}) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(model).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}

// fatal reports errors that must abort the batch instead of skipping the
// entity: misconfiguration and cancellation.
func fatal(err error) bool {
	var cfgErr *summary.ConfigurationError
	if errors.As(err, &cfgErr) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
