package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"echolog/internal/api"
	"echolog/internal/domain"
	"echolog/internal/events"
	"echolog/internal/logger"
)

// ErrSessionActive is returned when starting a second capture session.
var ErrSessionActive = errors.New("a recording session is already active")

// ErrInvalidState is returned when an operation does not apply to the
// coordinator's current state.
var ErrInvalidState = errors.New("operation not valid in current state")

// Recorder is the media capture contract the coordinator drives.
type Recorder interface {
	SetOnLevels(func(domain.LevelSnapshot))
	Start(ctx context.Context, source domain.CaptureSource) error
	Pause()
	Resume()
	Elapsed() time.Duration
	Stop() (domain.AudioArtifact, error)
	Close()
}

// Normalizer converts artifacts into the backend encoding.
type Normalizer interface {
	Normalize(ctx context.Context, in domain.AudioArtifact) (domain.AudioArtifact, error)
}

// JobClient submits transcription jobs and polls their status.
type JobClient interface {
	Submit(ctx context.Context, session domain.Session, req api.SubmitRequest) (api.SubmitResponse, error)
	PollStatus(ctx context.Context, session domain.Session, opID domain.OperationID, recID domain.RecordingID) (api.StatusResponse, error)
}

// Config wires coordinator collaborators.
type Config struct {
	NewRecorder  func() Recorder
	Normalizer   Normalizer
	Jobs         JobClient
	Bus          *events.Bus
	Log          *logger.Logger
	Session      domain.Session
	PollInterval time.Duration
}

// Result is the terminal outcome of a completed pipeline run.
type Result struct {
	Transcript      string
	RecordingID     domain.RecordingID
	TranscriptionID domain.TranscriptionID
	AudioFilename   string
}

// Coordinator owns the recording-to-transcription state machine for a
// single session: capture, normalization, submission, and polling run
// strictly in sequence, with at most one poll loop in flight.
type Coordinator struct {
	newRecorder  func() Recorder
	normalizer   Normalizer
	jobs         JobClient
	bus          *events.Bus
	log          *logger.Logger
	pollInterval time.Duration
	removeFile   func(string) error

	mu         sync.Mutex
	state      domain.SessionState
	session    domain.Session
	recorder   Recorder
	raw        domain.AudioArtifact
	normalized domain.AudioArtifact
	// playbackPath is the single current playback file; superseding it
	// must remove the previous one.
	playbackPath string
	ownsInput    bool
	opID         domain.OperationID
	recID        domain.RecordingID
	result       Result
	lastError    string
	gen          int
	pollActive   bool
	pollCancel   context.CancelFunc
	tornDown     bool
}

// New builds an idle coordinator.
func New(cfg Config) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus(0)
	}
	if cfg.Log == nil {
		cfg.Log = logger.Discard()
	}

	return &Coordinator{
		newRecorder:  cfg.NewRecorder,
		normalizer:   cfg.Normalizer,
		jobs:         cfg.Jobs,
		bus:          cfg.Bus,
		log:          cfg.Log,
		session:      cfg.Session,
		pollInterval: cfg.PollInterval,
		removeFile:   os.Remove,
		state:        domain.StateIdle,
	}
}

// SetSession installs the backend session used for job calls.
func (c *Coordinator) SetSession(session domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

// State returns the current pipeline state.
func (c *Coordinator) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the completed run outcome. The transcript and durable
// ids are carried forward from the poll loop; no re-fetch happens.
func (c *Coordinator) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// LastError returns the message that moved the coordinator to errored.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// PlaybackPath returns the current review file, empty before ready.
func (c *Coordinator) PlaybackPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbackPath
}

// Elapsed reports capture duration for the active recording.
func (c *Coordinator) Elapsed() time.Duration {
	c.mu.Lock()
	rec := c.recorder
	c.mu.Unlock()
	if rec == nil {
		return 0
	}
	return rec.Elapsed()
}

// StartRecording acquires the capture device and enters recording.
// Capture failures keep the coordinator idle.
func (c *Coordinator) StartRecording(ctx context.Context, source domain.CaptureSource) error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	if c.newRecorder == nil {
		c.mu.Unlock()
		return fmt.Errorf("no recorder configured")
	}
	rec := c.newRecorder()
	c.recorder = rec
	c.mu.Unlock()

	rec.SetOnLevels(func(snap domain.LevelSnapshot) {
		s := snap
		c.bus.Publish(events.Event{Type: events.TypeLevels, Levels: &s})
	})

	if err := rec.Start(ctx, source); err != nil {
		c.mu.Lock()
		c.recorder = nil
		c.mu.Unlock()
		c.publishError(err.Error())
		return err
	}

	c.mu.Lock()
	c.setStateLocked(domain.StateRecording)
	c.mu.Unlock()
	c.publishState(domain.StateRecording, "Recording from "+string(source))
	return nil
}

// Pause freezes capture; a no-op unless recording.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	if c.state != domain.StateRecording || c.recorder == nil {
		c.mu.Unlock()
		return
	}
	c.recorder.Pause()
	c.setStateLocked(domain.StatePaused)
	c.mu.Unlock()
	c.publishState(domain.StatePaused, "Recording paused")
}

// Resume restarts capture; a no-op unless paused.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	if c.state != domain.StatePaused || c.recorder == nil {
		c.mu.Unlock()
		return
	}
	c.recorder.Resume()
	c.setStateLocked(domain.StateRecording)
	c.mu.Unlock()
	c.publishState(domain.StateRecording, "Recording resumed")
}

// StopAndNormalize finalizes the raw artifact and converts it. On
// success the session is ready for review and submission.
func (c *Coordinator) StopAndNormalize(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.StateRecording && c.state != domain.StatePaused {
		c.mu.Unlock()
		return ErrInvalidState
	}
	rec := c.recorder
	c.setStateLocked(domain.StateStopped)
	startGen := c.gen
	c.mu.Unlock()
	c.publishState(domain.StateStopped, "Recording stopped")

	raw, err := rec.Stop()

	c.mu.Lock()
	if c.gen != startGen || c.state != domain.StateStopped {
		c.mu.Unlock()
		if err == nil && raw.Path != "" {
			_ = c.removeFile(raw.Path)
		}
		return ErrInvalidState
	}
	if err != nil {
		c.mu.Unlock()
		c.fail(err.Error())
		return err
	}
	c.raw = raw
	c.ownsInput = true
	c.setStateLocked(domain.StateConverting)
	gen := c.gen
	c.mu.Unlock()
	c.publishState(domain.StateConverting, "Processing audio")

	return c.normalize(ctx, gen, raw)
}

// UseFile enters the pipeline from an uploaded media file. The input
// file belongs to the user and is never deleted.
func (c *Coordinator) UseFile(ctx context.Context, path string) error {
	c.mu.Lock()
	if c.tornDown || c.state != domain.StateIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.raw = domain.AudioArtifact{Path: path}
	c.ownsInput = false
	c.setStateLocked(domain.StateConverting)
	gen := c.gen
	c.mu.Unlock()
	c.publishState(domain.StateConverting, "Processing audio")

	return c.normalize(ctx, gen, domain.AudioArtifact{Path: path})
}

// normalize runs the converter and installs the new playback artifact,
// superseding (and removing) the previous one.
func (c *Coordinator) normalize(ctx context.Context, gen int, in domain.AudioArtifact) error {
	normalized, err := c.normalizer.Normalize(ctx, in)

	c.mu.Lock()
	if c.gen != gen || c.state != domain.StateConverting {
		// torn down or reset while converting; drop the output
		c.mu.Unlock()
		if err == nil {
			_ = c.removeFile(normalized.Path)
		}
		return ErrInvalidState
	}
	if err != nil {
		c.mu.Unlock()
		c.fail(err.Error())
		return err
	}
	previous := c.playbackPath
	ownedRaw := ""
	if c.ownsInput && c.raw.Path != "" && c.raw.Path != normalized.Path {
		ownedRaw = c.raw.Path
	}
	c.normalized = normalized
	c.playbackPath = normalized.Path
	c.setStateLocked(domain.StateReady)
	c.mu.Unlock()

	if previous != "" && previous != normalized.Path {
		_ = c.removeFile(previous)
	}
	if ownedRaw != "" {
		_ = c.removeFile(ownedRaw)
	}

	c.publishState(domain.StateReady, "Audio ready for submission")
	return nil
}

// Submit uploads the normalized artifact and starts the poll loop.
func (c *Coordinator) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.StateReady {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.pollActive {
		c.mu.Unlock()
		return ErrSessionActive
	}
	req := api.SubmitRequest{AudioPath: c.normalized.Path, RecordingID: c.recID}
	if req.RecordingID != "" {
		// resubmission of an already-uploaded recording
		req.AudioPath = ""
	}
	session := c.session
	c.setStateLocked(domain.StateSubmitting)
	gen := c.gen
	c.mu.Unlock()
	c.publishState(domain.StateSubmitting, "Submitting audio")

	resp, err := c.jobs.Submit(ctx, session, req)

	c.mu.Lock()
	if c.gen != gen || c.state != domain.StateSubmitting {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if err != nil {
		if api.IsKind(err, api.KindInvalidRequest) {
			// rejected before transmission; submission may be retried
			c.setStateLocked(domain.StateReady)
			c.mu.Unlock()
			c.publishState(domain.StateReady, "Submission rejected")
			return err
		}
		c.mu.Unlock()
		c.fail(err.Error())
		return err
	}
	c.opID = resp.OperationID
	c.recID = resp.RecordingID
	c.result.RecordingID = resp.RecordingID
	c.setStateLocked(domain.StatePolling)
	c.pollActive = true
	pollCtx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	opID, recID := c.opID, c.recID
	c.mu.Unlock()
	c.publishState(domain.StatePolling, "Waiting for transcription")

	go c.pollLoop(pollCtx, gen, opID, recID)
	return nil
}

// pollLoop drives status polls at a fixed cadence until a terminal
// status or a transport failure. Stale generations never mutate state.
func (c *Coordinator) pollLoop(ctx context.Context, gen int, opID domain.OperationID, recID domain.RecordingID) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	defer func() {
		c.mu.Lock()
		if c.gen == gen {
			c.pollActive = false
			c.pollCancel = nil
		}
		c.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		session := c.session
		c.mu.Unlock()

		status, err := c.jobs.PollStatus(ctx, session, opID, recID)

		c.mu.Lock()
		if c.gen != gen || c.state != domain.StatePolling {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.mu.Unlock()
			c.fail(err.Error())
			return
		}

		switch status.Status {
		case domain.JobCompleted:
			c.result = Result{
				Transcript:      status.Transcription,
				RecordingID:     recID,
				TranscriptionID: status.TranscriptionID,
				AudioFilename:   status.AudioFilename,
			}
			c.setStateLocked(domain.StateCompleted)
			c.mu.Unlock()
			c.bus.Publish(events.Event{
				Type:            events.TypeTranscript,
				State:           domain.StateCompleted,
				Transcript:      status.Transcription,
				RecordingID:     recID,
				TranscriptionID: status.TranscriptionID,
			})
			c.publishState(domain.StateCompleted, "Transcription completed")
			return
		case domain.JobFailed:
			msg := status.Error
			if msg == "" {
				msg = "transcription failed"
			}
			c.mu.Unlock()
			c.fail(msg)
			return
		default:
			// pending, keep polling
			c.mu.Unlock()
		}
	}
}

// Reset discards all session artifacts and returns to idle, allowing a
// fresh run after completion or error.
func (c *Coordinator) Reset() {
	c.discard(false)
	c.publishState(domain.StateIdle, "Session reset")
}

// Teardown releases every held resource in any state: poll loop,
// capture device, and playback files. In-flight network calls are not
// aborted; their results are ignored via the generation guard.
func (c *Coordinator) Teardown() {
	c.discard(true)
}

// discard stops timers, releases the device, and removes owned files.
func (c *Coordinator) discard(tearDown bool) {
	c.mu.Lock()
	c.gen++
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.pollActive = false
	rec := c.recorder
	c.recorder = nil

	var leftovers []string
	if c.ownsInput && c.raw.Path != "" {
		leftovers = append(leftovers, c.raw.Path)
	}
	if c.normalized.Path != "" {
		leftovers = append(leftovers, c.normalized.Path)
	}
	if c.playbackPath != "" && c.playbackPath != c.normalized.Path {
		leftovers = append(leftovers, c.playbackPath)
	}

	c.raw = domain.AudioArtifact{}
	c.normalized = domain.AudioArtifact{}
	c.playbackPath = ""
	c.ownsInput = false
	c.opID = ""
	c.recID = ""
	c.result = Result{}
	c.lastError = ""
	c.state = domain.StateIdle
	c.tornDown = tearDown
	c.mu.Unlock()

	if rec != nil {
		rec.Close()
	}
	for _, path := range leftovers {
		_ = c.removeFile(path)
	}
}

// fail moves the machine to errored and surfaces the message.
func (c *Coordinator) fail(message string) {
	c.mu.Lock()
	c.lastError = message
	c.setStateLocked(domain.StateErrored)
	c.mu.Unlock()

	c.log.WithField("error", message).Warn("pipeline failed")
	c.bus.Publish(events.Event{
		Type:    events.TypeError,
		State:   domain.StateErrored,
		Message: message,
	})
}

// setStateLocked applies a transition; callers hold the mutex. The
// transition table is enforced in one place so stages can never be
// reordered or pipelined within a session.
func (c *Coordinator) setStateLocked(to domain.SessionState) {
	if !validTransition(c.state, to) {
		// invalid edges indicate a coordinator bug; keep the machine
		// in its current state rather than corrupting it
		c.log.WithField("from", string(c.state)).WithField("to", string(to)).Error("invalid state transition")
		return
	}
	c.state = to
}

// validTransition enforces the allowed pipeline state machine edges.
func validTransition(from, to domain.SessionState) bool {
	if to == domain.StateErrored {
		switch from {
		case domain.StateRecording, domain.StatePaused, domain.StateStopped,
			domain.StateConverting, domain.StateSubmitting, domain.StatePolling:
			return true
		}
		return false
	}

	switch from {
	case domain.StateIdle:
		return to == domain.StateRecording || to == domain.StateConverting
	case domain.StateRecording:
		return to == domain.StatePaused || to == domain.StateStopped
	case domain.StatePaused:
		return to == domain.StateRecording || to == domain.StateStopped
	case domain.StateStopped:
		return to == domain.StateConverting
	case domain.StateConverting:
		return to == domain.StateReady
	case domain.StateReady:
		return to == domain.StateSubmitting
	case domain.StateSubmitting:
		return to == domain.StatePolling || to == domain.StateReady
	case domain.StatePolling:
		return to == domain.StateCompleted
	case domain.StateCompleted, domain.StateErrored:
		return to == domain.StateIdle
	default:
		return false
	}
}

// publishState emits a state event to the bus.
func (c *Coordinator) publishState(state domain.SessionState, message string) {
	c.bus.Publish(events.Event{
		Type:    events.TypeState,
		State:   state,
		Message: message,
	})
}

// publishError surfaces a failure that did not change state, such as a
// capture start rejection that keeps the coordinator idle.
func (c *Coordinator) publishError(message string) {
	c.mu.Lock()
	c.lastError = message
	c.mu.Unlock()
	c.bus.Publish(events.Event{
		Type:    events.TypeError,
		Message: message,
	})
}
