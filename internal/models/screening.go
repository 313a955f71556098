package models

import (
	"time"

	"github.com/google/uuid"
)

type ScreeningStatus string

const (
	StatusQueued     ScreeningStatus = "queued"
	StatusProcessing ScreeningStatus = "processing"
	StatusCompleted  ScreeningStatus = "completed"
	StatusFailed     ScreeningStatus = "failed"
)

// Screening is one queued CV (and optional interview audio) screening job.
// Candidate and Audio are only ever set together with StatusCompleted.
type Screening struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobCategory     string           `gorm:"type:text;not null" json:"job_category"`
	CVDocumentID    uuid.UUID        `gorm:"type:uuid;not null" json:"cv_document_id"`
	AudioDocumentID *uuid.UUID       `gorm:"type:uuid" json:"audio_document_id,omitempty"`
	Status          ScreeningStatus  `gorm:"not null;default:'queued'" json:"status"`
	Candidate       *CandidateRecord `gorm:"type:jsonb;serializer:json" json:"candidate,omitempty"`
	Audio           *AudioRecord     `gorm:"type:jsonb;serializer:json" json:"audio,omitempty"`
	ReportPath      *string          `gorm:"type:text" json:"-"`
	ErrorKind       *string          `gorm:"type:text" json:"error_kind,omitempty"`
	ErrorStage      *string          `gorm:"type:text" json:"error_stage,omitempty"`
	ErrorMessage    *string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt       time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	CVDocument Document `gorm:"foreignKey:CVDocumentID" json:"-"`
}

func (Screening) TableName() string {
	return "screenings"
}
