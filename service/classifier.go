package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrolls0/transplant-wizard-sub000/config"
	"github.com/jrolls0/transplant-wizard-sub000/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Metadata keys attached to every object by the upload flow.
const (
	metaPatientID    = "patient-id"
	metaDocumentType = "document-type"
)

const storageOpTimeout = 30 * time.Second

// ObjectStore is the slice of the object-storage API the pipeline needs:
// one metadata read for classification and one content read for extraction.
type ObjectStore interface {
	DocumentMetadata(ctx context.Context, bucket, objectKey string) (map[string]string, error)
	DocumentBytes(ctx context.Context, bucket, objectKey string) ([]byte, error)
}

// MinioStore implements ObjectStore against a MinIO/S3-compatible backend.
type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioStore{client: client}, nil
}

// DocumentMetadata reads the object's user metadata. Keys are normalized to
// lowercase because S3-compatible backends canonicalize metadata headers.
func (s *MinioStore) DocumentMetadata(ctx context.Context, bucket, objectKey string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, storageOpTimeout)
	defer cancel()

	info, err := s.client.StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", bucket, objectKey, err)
	}

	meta := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		meta[strings.ToLower(k)] = v
	}
	return meta, nil
}

// DocumentBytes reads the full object content.
func (s *MinioStore) DocumentBytes(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, storageOpTimeout)
	defer cancel()

	obj, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, objectKey, err)
	}
	return data, nil
}

// Classifier resolves upload events into document descriptors.
type Classifier struct {
	store ObjectStore
}

func NewClassifier(store ObjectStore) *Classifier {
	return &Classifier{store: store}
}

// Classify reads the object's metadata and derives the owning patient,
// document type, and submission group. Any missing or unrecognized value
// fails the event; nothing defaults.
func (c *Classifier) Classify(ctx context.Context, event model.UploadEvent) (model.DocumentDescriptor, error) {
	meta, err := c.store.DocumentMetadata(ctx, event.Bucket, event.ObjectKey)
	if err != nil {
		return model.DocumentDescriptor{}, &ClassificationError{Err: err}
	}

	patientID := meta[metaPatientID]
	if patientID == "" {
		return model.DocumentDescriptor{}, &ClassificationError{
			Err: fmt.Errorf("object %s has no %s metadata", event.ObjectKey, metaPatientID),
		}
	}

	docType, err := model.ParseDocumentType(meta[metaDocumentType])
	if err != nil {
		return model.DocumentDescriptor{}, &ClassificationError{Err: err}
	}

	groupID, err := groupFromKey(event.ObjectKey)
	if err != nil {
		return model.DocumentDescriptor{}, &ClassificationError{Err: err}
	}

	return model.DocumentDescriptor{
		PatientID:    patientID,
		DocumentType: docType,
		GroupID:      groupID,
		Bucket:       event.Bucket,
		ObjectKey:    event.ObjectKey,
	}, nil
}

// groupFromKey extracts the submission group segment from an object key of
// the form patients/<patient>/documents/<type>/<group>/<file>.
func groupFromKey(objectKey string) (string, error) {
	parts := strings.Split(objectKey, "/")
	if len(parts) < 6 || parts[0] != "patients" || parts[2] != "documents" {
		return "", fmt.Errorf("object key %q does not match the expected layout", objectKey)
	}
	if parts[4] == "" {
		return "", fmt.Errorf("object key %q has an empty group segment", objectKey)
	}
	return parts[4], nil
}
