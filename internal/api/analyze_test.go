package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"echolog/internal/domain"
)

// TestAnalyzeValidatesBeforeNetwork verifies empty text and missing
// durable id fail locally.
func TestAnalyzeValidatesBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	for _, req := range []AnalyzeRequest{
		{Text: "   ", TranscriptionID: "t-1"},
		{Text: "transcript"},
	} {
		if _, err := c.Analyze(context.Background(), testSession(), req); !IsKind(err, KindValidationError) {
			t.Fatalf("analyze(%+v) error = %v, want validation error", req, err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("backend calls = %d, want 0", calls.Load())
	}
}

// TestAnalyzeDecodesEnvelope verifies request body and the wrapped
// analysis response.
func TestAnalyzeDecodesEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Text != "hello world" || !req.ForceReanalysis {
			t.Errorf("req = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]domain.Analysis{
			"analysis": {
				ID:       "a-1",
				Summary:  "a greeting",
				Keywords: []string{"hello"},
			},
		})
	}))

	got, err := c.Analyze(context.Background(), testSession(), AnalyzeRequest{
		Text:            "hello world",
		TranscriptionID: "t-1",
		ForceReanalysis: true,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.ID != "a-1" || got.Summary != "a greeting" {
		t.Fatalf("analysis = %+v", got)
	}
}

// TestGetAnalysis verifies the lookup path and id validation.
func TestGetAnalysis(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze/a-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]domain.Analysis{
			"analysis": {ID: "a-1", Summary: "stored"},
		})
	}))

	if _, err := c.GetAnalysis(context.Background(), testSession(), " "); !IsKind(err, KindValidationError) {
		t.Fatalf("blank id error = %v", err)
	}

	got, err := c.GetAnalysis(context.Background(), testSession(), "a-1")
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Summary != "stored" {
		t.Fatalf("analysis = %+v", got)
	}
}
