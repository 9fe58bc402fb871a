package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/jrolls0/transplant-wizard-sub000/model"
	"github.com/jrolls0/transplant-wizard-sub000/pkg/logger"
)

// RecordReader is the read side of the stager, consumed by review tooling.
type RecordReader interface {
	GetRecord(ctx context.Context, id string) (*model.StagedRecord, error)
	ListPatientRecords(ctx context.Context, patientID string) ([]*model.StagedRecord, error)
}

// RecordsHandler serves staged records to the clinical-review tooling.
type RecordsHandler struct {
	records RecordReader
}

func NewRecordsHandler(records RecordReader) *RecordsHandler {
	return &RecordsHandler{records: records}
}

// ListByPatient returns a patient's staged records, newest first.
func (h *RecordsHandler) ListByPatient(c *gin.Context) {
	patientID := c.Param("patientId")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Patient id required"})
		return
	}

	records, err := h.records.ListPatientRecords(c.Request.Context(), patientID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list staged records", "error", err, "patient_id", patientID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list staged records"})
		return
	}
	if records == nil {
		records = []*model.StagedRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

// Get returns one staged record by id.
func (h *RecordsHandler) Get(c *gin.Context) {
	id := c.Param("id")

	record, err := h.records.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staged record not found"})
			return
		}
		logger.Error(c.Request.Context(), "failed to get staged record", "error", err, "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get staged record"})
		return
	}

	c.JSON(http.StatusOK, record)
}
