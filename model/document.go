package model

import (
	"fmt"
	"time"
)

// DocumentType is the closed set of document categories patients upload.
type DocumentType string

const (
	TypeSocialWorkSummary DocumentType = "social_work_summary"
	TypeCurrentLabs       DocumentType = "current_labs"
	TypeInsuranceCard     DocumentType = "insurance_card"
	TypePhotoID           DocumentType = "photo_id"
	TypeMedicationList    DocumentType = "medication_list"
	TypeDialysisRunsheet  DocumentType = "dialysis_runsheet"
	TypeReferralForm      DocumentType = "referral_form"
)

var knownTypes = map[DocumentType]bool{
	TypeSocialWorkSummary: true,
	TypeCurrentLabs:       true,
	TypeInsuranceCard:     true,
	TypePhotoID:           true,
	TypeMedicationList:    true,
	TypeDialysisRunsheet:  true,
	TypeReferralForm:      true,
}

// ParseDocumentType validates a raw metadata value against the known set.
// An unrecognized value is an error, never a silent default.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !knownTypes[t] {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return t, nil
}

// Extractable reports whether structured-value extraction is attempted for
// this document type. Only lab reports carry values worth extracting today.
func (t DocumentType) Extractable() bool {
	return t == TypeCurrentLabs
}

// UploadEvent is one storage-creation notification. Consumed once, never
// persisted.
type UploadEvent struct {
	Bucket    string    `json:"bucket"`
	ObjectKey string    `json:"object_key"`
	EventTime time.Time `json:"event_time"`
}

// DocumentDescriptor is the resolved identity of an uploaded document,
// derived from storage metadata at classification time.
type DocumentDescriptor struct {
	PatientID    string       `json:"patient_id"`
	DocumentType DocumentType `json:"document_type"`
	GroupID      string       `json:"group_id"`
	Bucket       string       `json:"bucket"`
	ObjectKey    string       `json:"object_key"`
}

// Answer is one extracted value with the engine's confidence score.
type Answer struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ExtractionResult maps catalog query keys to answers. A key mapped to nil
// means the engine was asked but found nothing. A nil map means extraction
// was never attempted for the document; the distinction matters downstream,
// so a nil result must never be replaced with an empty map.
type ExtractionResult map[string]*Answer

// Answered returns the number of keys the engine produced a value for.
func (r ExtractionResult) Answered() int {
	n := 0
	for _, a := range r {
		if a != nil {
			n++
		}
	}
	return n
}

// StagedRecord is the persisted outcome of processing one document, pending
// clinical review. Records are insert-only; reprocessing creates a new row.
type StagedRecord struct {
	ID           string           `json:"id"`
	PatientID    string           `json:"patient_id"`
	DocumentType DocumentType     `json:"document_type"`
	Result       ExtractionResult `json:"extraction_result,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// EventOutcome is the per-event entry in the handler's batch response.
type EventOutcome struct {
	ObjectKey        string       `json:"object_key"`
	Status           string       `json:"status"`
	DocumentType     DocumentType `json:"document_type,omitempty"`
	HasExtractedData bool         `json:"has_extracted_data"`
	StagedRecordID   string       `json:"staged_record_id,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// EventOutcome status constants
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)
