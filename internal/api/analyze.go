package api

import (
	"context"
	"net/url"
	"strings"

	"echolog/internal/domain"
)

// AnalyzeRequest asks the backend for structured analysis of a
// transcript. ForceReanalysis bypasses any backend-side cached result;
// the client cannot observe cache hit vs fresh compute.
type AnalyzeRequest struct {
	Text            string                 `json:"text"`
	TranscriptionID domain.TranscriptionID `json:"transcriptionId"`
	ForceReanalysis bool                   `json:"forceReanalysis"`
	AudioFilename   string                 `json:"audioFilename,omitempty"`
}

// analysisEnvelope matches the backend analyze response wrapper.
type analysisEnvelope struct {
	Analysis domain.Analysis `json:"analysis"`
}

// Analyze requests (or retrieves cached) analysis for a transcript.
// Empty text or a missing durable id is rejected before any network
// call is issued.
func (c *Client) Analyze(ctx context.Context, session domain.Session, req AnalyzeRequest) (domain.Analysis, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.Analysis{}, &Error{
			Kind:    KindValidationError,
			Message: "analysis requires non-empty transcript text",
		}
	}
	if req.TranscriptionID == "" {
		return domain.Analysis{}, &Error{
			Kind:    KindValidationError,
			Message: "analysis requires the durable transcription id",
		}
	}

	var out analysisEnvelope
	if err := c.postJSON(ctx, session, "/analyze", req, &out); err != nil {
		return domain.Analysis{}, err
	}
	return out.Analysis, nil
}

// GetAnalysis retrieves a previously computed analysis by id.
func (c *Client) GetAnalysis(ctx context.Context, session domain.Session, id string) (domain.Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Analysis{}, &Error{
			Kind:    KindValidationError,
			Message: "analysis lookup requires an id",
		}
	}

	var out analysisEnvelope
	if err := c.getJSON(ctx, session, "/analyze/"+url.PathEscape(id), &out); err != nil {
		return domain.Analysis{}, err
	}
	return out.Analysis, nil
}
