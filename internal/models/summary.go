package models

// SummaryModel caches generated summaries for any parent entity.
// One row per (parent_kind, parent_id, style); regeneration upserts in place.
type SummaryModel struct {
	Base
	ParentKind     string      `json:"parent_kind"     gorm:"uniqueIndex:idx_parent_style;not null"`
	ParentID       string      `json:"parent_id"       gorm:"uniqueIndex:idx_parent_style;not null"`
	Style          string      `json:"style"           gorm:"uniqueIndex:idx_parent_style;index:idx_fingerprint;not null"`
	Model          string      `json:"model"           gorm:"index:idx_fingerprint;not null"`
	ContentHash    string      `json:"content_hash"    gorm:"index:idx_fingerprint;not null"`
	Headline       string      `json:"headline"        gorm:"type:text;not null"`
	Body           string      `json:"body"            gorm:"type:longtext;not null"`
	OriginalText   string      `json:"original_text"   gorm:"type:longtext"`
	Chunks         StringArray `json:"chunks"          gorm:"type:longtext"`
	ChunkSummaries StringArray `json:"chunk_summaries" gorm:"type:longtext"`
}

func (SummaryModel) TableName() string { return "summaries" }
