package models

import "time"

// DocumentModel is a single crawled document attached to legislation.
type DocumentModel struct {
	Base
	LegislationID string `json:"legislation_id" gorm:"index"`
	Title         string `json:"title"          gorm:"not null"`
	Kind          string `json:"kind"`
	URL           string `json:"url"`
	ExtractedText string `json:"extracted_text" gorm:"type:longtext"`
}

func (DocumentModel) TableName() string { return "documents" }

// LegislationModel is one legislative item (bill, appointment, information item).
type LegislationModel struct {
	Base
	RecordNo string `json:"record_no" gorm:"uniqueIndex;not null"`
	Title    string `json:"title"     gorm:"type:text;not null"`
	Type     string `json:"type"      gorm:"index"`
	// Subtype is the closed classification computed once at ingestion
	// from the raw Type string. The dispatcher consumes only this value.
	Subtype  string                   `json:"subtype"   gorm:"index;not null"`
	FullText string                   `json:"full_text" gorm:"type:longtext"`
	Actions  []LegislationActionModel `json:"actions"   gorm:"foreignKey:LegislationID"`
}

func (LegislationModel) TableName() string { return "legislations" }

// LegislationActionModel is one historical event in a legislation's lifecycle.
type LegislationActionModel struct {
	Base
	LegislationID string            `json:"legislation_id" gorm:"index;not null"`
	Sequence      int               `json:"sequence"       gorm:"index;not null"`
	Version       int               `json:"version"`
	Action        string            `json:"action"         gorm:"type:text"`
	Result        string            `json:"result"`
	ActionBy      string            `json:"action_by"`
	Date          string            `json:"date"`
	Votes         []ActionVoteModel `json:"votes"          gorm:"foreignKey:ActionID"`
}

func (LegislationActionModel) TableName() string { return "legislation_actions" }

// ActionVoteModel is one council member's recorded vote on an action.
type ActionVoteModel struct {
	Base
	ActionID   string `json:"action_id"   gorm:"index;not null"`
	PersonName string `json:"person_name" gorm:"not null"`
	Vote       string `json:"vote"`
}

func (ActionVoteModel) TableName() string { return "action_votes" }

// MeetingModel is a council meeting with an agenda of legislation items.
type MeetingModel struct {
	Base
	LegistarID   int                `json:"legistar_id" gorm:"uniqueIndex"`
	Department   string             `json:"department"  gorm:"not null"`
	Time         *time.Time         `json:"time"        gorm:"index"`
	Legislations []LegislationModel `json:"legislations" gorm:"many2many:meeting_legislations"`
}

func (MeetingModel) TableName() string { return "meetings" }
