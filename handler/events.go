package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jrolls0/transplant-wizard-sub000/model"
	"github.com/jrolls0/transplant-wizard-sub000/pkg/logger"
	"github.com/jrolls0/transplant-wizard-sub000/service"
)

// Collaborator contracts, satisfied by the service package and by test
// doubles. The handler owns one event's processing run end to end and holds
// no state across events.

type Classifier interface {
	Classify(ctx context.Context, event model.UploadEvent) (model.DocumentDescriptor, error)
}

type Extractor interface {
	Extract(ctx context.Context, desc model.DocumentDescriptor) (model.ExtractionResult, error)
}

type Stager interface {
	Stage(ctx context.Context, patientID string, docType model.DocumentType, result model.ExtractionResult) (string, error)
}

type EventsHandler struct {
	classifier Classifier
	extractor  Extractor
	stager     Stager
}

func NewEventsHandler(classifier Classifier, extractor Extractor, stager Stager) *EventsHandler {
	return &EventsHandler{
		classifier: classifier,
		extractor:  extractor,
		stager:     stager,
	}
}

// notification is the S3-style bucket notification the storage backend posts
// when an object is created.
type notification struct {
	Records []notificationRecord `json:"Records"`
}

type notificationRecord struct {
	EventTime string `json:"eventTime"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

func (r notificationRecord) toEvent() model.UploadEvent {
	key := r.S3.Object.Key
	// Object keys arrive URL-encoded in bucket notifications.
	if decoded, err := url.QueryUnescape(key); err == nil {
		key = decoded
	}

	ts, err := time.Parse(time.RFC3339, r.EventTime)
	if err != nil {
		ts = time.Now().UTC()
	}

	return model.UploadEvent{
		Bucket:    r.S3.Bucket.Name,
		ObjectKey: key,
		EventTime: ts,
	}
}

// HandleEvents processes one batch of upload notifications. Events are
// independent: each gets its own outcome entry and one event's failure never
// aborts its siblings.
func (h *EventsHandler) HandleEvents(c *gin.Context) {
	var payload notification
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification payload"})
		return
	}
	if len(payload.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notification contains no records"})
		return
	}

	outcomes := make([]model.EventOutcome, 0, len(payload.Records))
	for _, record := range payload.Records {
		outcomes = append(outcomes, h.processEvent(c.Request.Context(), record.toEvent()))
	}

	c.JSON(http.StatusOK, outcomes)
}

// processEvent drives one event through classify, extract (or skip), and
// stage. Errors are captured in the outcome rather than propagated; the
// batch loop always continues.
func (h *EventsHandler) processEvent(ctx context.Context, event model.UploadEvent) model.EventOutcome {
	ctx = logger.WithEvent(ctx, event.ObjectKey)
	logger.Info(ctx, "processing upload event", "bucket", event.Bucket)

	desc, err := h.classifier.Classify(ctx, event)
	if err != nil {
		return h.failure(ctx, event, "", err)
	}
	ctx = logger.WithPatient(ctx, desc.PatientID)

	result, err := h.extractor.Extract(ctx, desc)
	if err != nil {
		return h.failure(ctx, event, desc.DocumentType, err)
	}
	if result == nil {
		logger.Debug(ctx, "extraction skipped", "document_type", desc.DocumentType)
	} else {
		logger.Info(ctx, "extraction completed",
			"document_type", desc.DocumentType,
			"answered", result.Answered(),
		)
	}

	recordID, err := h.stager.Stage(ctx, desc.PatientID, desc.DocumentType, result)
	if err != nil {
		return h.failure(ctx, event, desc.DocumentType, err)
	}

	logger.Info(ctx, "event completed",
		"document_type", desc.DocumentType,
		"staged_record_id", recordID,
		"has_extracted_data", result != nil,
	)

	return model.EventOutcome{
		ObjectKey:        event.ObjectKey,
		Status:           model.OutcomeCompleted,
		DocumentType:     desc.DocumentType,
		HasExtractedData: result != nil,
		StagedRecordID:   recordID,
	}
}

func (h *EventsHandler) failure(ctx context.Context, event model.UploadEvent, docType model.DocumentType, err error) model.EventOutcome {
	logger.Error(ctx, "event failed",
		"error", err,
		"retryable", service.Retryable(err),
	)
	return model.EventOutcome{
		ObjectKey:    event.ObjectKey,
		Status:       model.OutcomeFailed,
		DocumentType: docType,
		Error:        err.Error(),
	}
}
