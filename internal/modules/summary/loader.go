package summary

import (
	"context"
	"errors"
	"fmt"

	"github.com/councildigest/core/internal/models"
	"gorm.io/gorm"
)

// ErrEntityNotFound is returned when a parent reference resolves to no row.
var ErrEntityNotFound = errors.New("entity not found")

// Loader assembles generation requests from stored entities. Related
// summaries are pulled from the persistent tier so multi-source entities
// fold their dependencies' output into the request.
type Loader struct {
	db    *gorm.DB
	store PersistentStore
}

func NewLoader(db *gorm.DB, store PersistentStore) *Loader {
	return &Loader{db: db, store: store}
}

// LoadRequest resolves the parent entity and builds its generation request.
// The style only selects which related summaries feed in as text units.
func (l *Loader) LoadRequest(ctx context.Context, parent ParentRef, style Style) (GenerationRequest, error) {
	switch parent.Kind {
	case KindDocument:
		return l.loadDocument(ctx, parent)
	case KindLegislation:
		return l.loadLegislation(ctx, parent, style)
	case KindMeeting:
		return l.loadMeeting(ctx, parent, style)
	default:
		return GenerationRequest{}, fmt.Errorf("unknown entity kind %q", parent.Kind)
	}
}

func (l *Loader) loadDocument(ctx context.Context, parent ParentRef) (GenerationRequest, error) {
	var doc models.DocumentModel
	if err := l.db.WithContext(ctx).First(&doc, "id = ?", parent.ID).Error; err != nil {
		return GenerationRequest{}, wrapLoadErr(err)
	}
	return GenerationRequest{
		Parent:   parent,
		Title:    doc.Title,
		Subtype:  SubtypePlainItem,
		FullText: doc.ExtractedText,
	}, nil
}

func (l *Loader) loadLegislation(ctx context.Context, parent ParentRef, style Style) (GenerationRequest, error) {
	var leg models.LegislationModel
	err := l.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Actions.Votes").
		First(&leg, "id = ?", parent.ID).Error
	if err != nil {
		return GenerationRequest{}, wrapLoadErr(err)
	}

	actions := make([]ActionRecord, 0, len(leg.Actions))
	details := make([]ActionDetail, 0)
	for _, row := range leg.Actions {
		actions = append(actions, ActionRecord{
			Version:  row.Version,
			Action:   row.Action,
			Result:   row.Result,
			ActionBy: row.ActionBy,
			Date:     row.Date,
		})
		if len(row.Votes) == 0 {
			continue
		}
		detail := ActionDetail{Action: row.Action, Result: row.Result}
		for _, vote := range row.Votes {
			detail.Votes = append(detail.Votes, MemberVote{
				PersonName: vote.PersonName,
				Vote:       vote.Vote,
			})
		}
		details = append(details, detail)
	}

	var docs []models.DocumentModel
	if err := l.db.WithContext(ctx).
		Where("legislation_id = ?", leg.ID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return GenerationRequest{}, wrapLoadErr(err)
	}
	units, err := l.relatedSummaries(ctx, KindDocument, documentIDs(docs), style)
	if err != nil {
		return GenerationRequest{}, err
	}

	return GenerationRequest{
		Parent:        parent,
		Title:         leg.Title,
		Subtype:       EntitySubtype(leg.Subtype),
		FullText:      leg.FullText,
		TextUnits:     units,
		Actions:       actions,
		ActionDetails: details,
	}, nil
}

func (l *Loader) loadMeeting(ctx context.Context, parent ParentRef, style Style) (GenerationRequest, error) {
	var meeting models.MeetingModel
	err := l.db.WithContext(ctx).
		Preload("Legislations").
		First(&meeting, "id = ?", parent.ID).Error
	if err != nil {
		return GenerationRequest{}, wrapLoadErr(err)
	}

	ids := make([]string, 0, len(meeting.Legislations))
	for _, leg := range meeting.Legislations {
		ids = append(ids, leg.ID)
	}
	units, err := l.relatedSummaries(ctx, KindLegislation, ids, style)
	if err != nil {
		return GenerationRequest{}, err
	}

	title := fmt.Sprintf("%s meeting", meeting.Department)
	if meeting.Time != nil {
		title = fmt.Sprintf("%s meeting on %s", meeting.Department, meeting.Time.Format("2006-01-02"))
	}

	return GenerationRequest{
		Parent:     parent,
		Title:      title,
		Subtype:    SubtypePlainItem,
		Department: meeting.Department,
		TextUnits:  units,
	}, nil
}

// relatedSummaries collects the stored summary bodies for the given child
// entities. Children without a summary yet are skipped, not errors.
func (l *Loader) relatedSummaries(ctx context.Context, kind EntityKind, ids []string, style Style) ([]string, error) {
	var units []string
	for _, id := range ids {
		artifact, err := l.store.GetByParent(ctx, ParentRef{Kind: kind, ID: id}, style)
		if err != nil {
			return nil, &PersistenceError{Op: "lookup", Err: err}
		}
		if artifact == nil {
			continue
		}
		units = append(units, artifact.Body)
	}
	return units, nil
}

func documentIDs(docs []models.DocumentModel) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}

func wrapLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEntityNotFound
	}
	return &PersistenceError{Op: "load", Err: err}
}
