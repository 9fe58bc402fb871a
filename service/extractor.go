package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrolls0/transplant-wizard-sub000/config"
	"github.com/jrolls0/transplant-wizard-sub000/model"
)

// Block types in the extraction engine's response.
const (
	BlockTypeQuery       = "QUERY"
	BlockTypeQueryResult = "QUERY_RESULT"
)

// ExtractorService drives the extraction engine for documents whose type
// calls for structured data. For every other type it returns an absent
// result without touching the engine or the document bytes.
type ExtractorService struct {
	config     *config.ExtractorConfig
	store      ObjectStore
	catalog    Catalog
	httpClient *http.Client
}

func NewExtractorService(cfg *config.ExtractorConfig, store ObjectStore, catalog Catalog) *ExtractorService {
	return &ExtractorService{
		config:  cfg,
		store:   store,
		catalog: catalog,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// analyzeRequest is the engine's request body: document bytes plus the full
// query list, with the QUERIES feature enabled.
type analyzeRequest struct {
	DocumentBytes []byte         `json:"documentBytes"`
	Queries       []analyzeQuery `json:"queries"`
	FeatureFlags  []string       `json:"featureFlags"`
}

type analyzeQuery struct {
	Text  string `json:"text"`
	Alias string `json:"alias"`
}

// Block is one entry in the engine's flat response list. QUERY blocks carry
// the alias and links to answers; QUERY_RESULT blocks carry the answer text
// and confidence.
type Block struct {
	BlockType       string   `json:"blockType"`
	ID              string   `json:"id"`
	Alias           string   `json:"alias,omitempty"`
	LinkedAnswerIDs []string `json:"linkedAnswerIds,omitempty"`
	Text            string   `json:"text,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
}

type analyzeResponse struct {
	Blocks []Block `json:"blocks"`
}

// Extract runs the catalog against a document if its type is
// extraction-eligible. Ineligible types return (nil, nil): a structurally
// absent result, distinguishable downstream from an extraction that found
// no values.
func (s *ExtractorService) Extract(ctx context.Context, desc model.DocumentDescriptor) (model.ExtractionResult, error) {
	if !desc.DocumentType.Extractable() {
		return nil, nil
	}

	data, err := s.store.DocumentBytes(ctx, desc.Bucket, desc.ObjectKey)
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("failed to read document: %w", err)}
	}

	blocks, err := s.analyze(ctx, data)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	return resolveAnswers(blocks, s.catalog), nil
}

// analyze makes the single engine call for a document.
func (s *ExtractorService) analyze(ctx context.Context, data []byte) ([]Block, error) {
	queries := make([]analyzeQuery, len(s.catalog))
	for i, q := range s.catalog {
		queries[i] = analyzeQuery{Text: q.Text, Alias: q.Key}
	}

	jsonData, err := json.Marshal(analyzeRequest{
		DocumentBytes: data,
		Queries:       queries,
		FeatureFlags:  []string{"QUERIES"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL+"/analyze", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction engine returned status %d: %s", resp.StatusCode, string(body))
	}

	var result analyzeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	return result.Blocks, nil
}

// resolveAnswers pairs each QUERY block with its linked QUERY_RESULT block
// and produces one entry per catalog key. First pass indexes blocks by id,
// second pass follows each query's answer links through the index. Queries
// the engine found no answer for stay in the result with a nil value.
func resolveAnswers(blocks []Block, catalog Catalog) model.ExtractionResult {
	byID := make(map[string]Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	result := make(model.ExtractionResult, len(catalog))
	for _, q := range catalog {
		result[q.Key] = nil
	}

	for _, b := range blocks {
		if b.BlockType != BlockTypeQuery {
			continue
		}
		if _, known := result[b.Alias]; !known {
			// The catalog's key set is the only valid vocabulary.
			continue
		}
		for _, id := range b.LinkedAnswerIDs {
			answer, ok := byID[id]
			if !ok || answer.BlockType != BlockTypeQueryResult {
				continue
			}
			result[b.Alias] = &model.Answer{Text: answer.Text, Confidence: answer.Confidence}
			break
		}
	}

	return result
}
