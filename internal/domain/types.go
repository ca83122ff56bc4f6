package domain

import "time"

// OperationID is the transient job handle returned by a transcription
// submission. It is only valid for status polling of that operation.
type OperationID string

// RecordingID is the durable identifier of an uploaded recording. It
// survives the session and is used for re-submission, audio retrieval,
// and linking analysis results.
type RecordingID string

// TranscriptionID is the durable identifier of a completed transcript,
// assigned by the backend when a job reaches its terminal state.
type TranscriptionID string

// CaptureSource selects where audio is captured from.
type CaptureSource string

const (
	SourceMicrophone CaptureSource = "microphone"
	SourceSystem     CaptureSource = "system"
	SourceFile       CaptureSource = "file"
)

// SessionState tracks each stage of one recording-to-transcription run.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateRecording  SessionState = "recording"
	StatePaused     SessionState = "paused"
	StateStopped    SessionState = "stopped"
	StateConverting SessionState = "converting"
	StateReady      SessionState = "ready"
	StateSubmitting SessionState = "submitting"
	StatePolling    SessionState = "polling"
	StateCompleted  SessionState = "completed"
	StateErrored    SessionState = "errored"
)

// JobStatus is the backend-reported status of a transcription job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// AudioArtifact is a file-backed audio blob with its encoding tags.
type AudioArtifact struct {
	Path       string `json:"path"`
	MIME       string `json:"mime"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	Size       int64  `json:"size"`
}

// Normalized reports whether the artifact already matches the single
// encoding the backend accepts.
func (a AudioArtifact) Normalized() bool {
	return a.Encoding == "pcm_s16le" && a.SampleRate == 16000 && a.Channels == 1
}

// LevelSnapshot is one amplitude-per-band visualization frame. It is a
// side channel with no effect on the recorded artifact.
type LevelSnapshot struct {
	Elapsed time.Duration `json:"elapsed"`
	Bands   []float64     `json:"bands"`
}

// Settings contains user-editable client configuration.
type Settings struct {
	BackendURL    string `toml:"backend_url" env:"ECHOLOG_BACKEND_URL"`
	CaptureDevice string `toml:"capture_device" env:"ECHOLOG_CAPTURE_DEVICE"`
	SystemDevice  string `toml:"system_device" env:"ECHOLOG_SYSTEM_DEVICE"`
	OutputDir     string `toml:"output_dir" env:"ECHOLOG_OUTPUT_DIR"`
	Language      string `toml:"language" env:"ECHOLOG_LANGUAGE"`
	PollInterval  string `toml:"poll_interval" env:"ECHOLOG_POLL_INTERVAL"`
	HTTPTimeout   string `toml:"http_timeout" env:"ECHOLOG_HTTP_TIMEOUT"`
}

// Session is the authenticated backend session held by the client. It
// is always passed explicitly; nothing reads it from ambient storage.
type Session struct {
	Token     string    `json:"token"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session carries a usable, unexpired token.
func (s Session) Valid() bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}
