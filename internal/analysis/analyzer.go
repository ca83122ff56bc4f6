package analysis

import (
	"context"
	"errors"
	"sync"

	"echolog/internal/api"
	"echolog/internal/domain"
)

// ErrNothingToRetry is returned when retry is requested without a
// preceding failed analysis request.
var ErrNothingToRetry = errors.New("no failed analysis request to retry")

// Client is the backend analysis contract the analyzer wraps.
type Client interface {
	Analyze(ctx context.Context, session domain.Session, req api.AnalyzeRequest) (domain.Analysis, error)
	GetAnalysis(ctx context.Context, session domain.Session, id string) (domain.Analysis, error)
}

// Analyzer runs analysis requests and pins the exact request that
// failed so a retry re-sends those bytes, never whatever text the view
// holds by the time the user clicks retry. Sending edited text is a
// new Run, not a retry.
type Analyzer struct {
	client Client

	mu     sync.Mutex
	failed *api.AnalyzeRequest
	last   domain.Analysis
}

// NewAnalyzer wraps the backend client.
func NewAnalyzer(client Client) *Analyzer {
	return &Analyzer{client: client}
}

// Run requests analysis for the given transcript text.
func (a *Analyzer) Run(ctx context.Context, session domain.Session, req api.AnalyzeRequest) (domain.Analysis, error) {
	result, err := a.client.Analyze(ctx, session, req)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		if !api.IsKind(err, api.KindValidationError) {
			// validation failures never reached the backend; there is
			// nothing meaningful to re-send
			failedReq := req
			a.failed = &failedReq
		}
		return domain.Analysis{}, err
	}
	a.failed = nil
	a.last = result
	return result, nil
}

// Retry re-sends the recorded failed request verbatim.
func (a *Analyzer) Retry(ctx context.Context, session domain.Session) (domain.Analysis, error) {
	a.mu.Lock()
	failed := a.failed
	a.mu.Unlock()
	if failed == nil {
		return domain.Analysis{}, ErrNothingToRetry
	}
	return a.Run(ctx, session, *failed)
}

// Get retrieves a previously computed analysis by id.
func (a *Analyzer) Get(ctx context.Context, session domain.Session, id string) (domain.Analysis, error) {
	result, err := a.client.GetAnalysis(ctx, session, id)
	if err != nil {
		return domain.Analysis{}, err
	}
	a.mu.Lock()
	a.last = result
	a.mu.Unlock()
	return result, nil
}

// Last returns the most recently fetched analysis.
func (a *Analyzer) Last() domain.Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last.Clone()
}
