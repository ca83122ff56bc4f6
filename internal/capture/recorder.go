package capture

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"echolog/internal/domain"
)

const (
	sampleRate = 16000
	channels   = 1

	// windowBytes is 50 ms of s16le mono audio, the meter cadence.
	windowBytes = sampleRate / 20 * 2
)

// ErrNotCapturing is returned when stop is requested before start.
var ErrNotCapturing = errors.New("no active capture")

// ErrAlreadyCapturing is returned when starting a second live capture.
var ErrAlreadyCapturing = errors.New("capture already active")

// stream is one live feed of raw s16le PCM from a capture process.
type stream interface {
	Read(p []byte) (int, error)
	Stop() error
}

// streamer launches platform capture processes.
type streamer interface {
	Start(ctx context.Context, source domain.CaptureSource) (stream, error)
}

type recState int

const (
	recIdle recState = iota
	recRecording
	recPaused
	recStopped
)

// Recorder owns one exclusive capture session: it drives the platform
// stream, keeps the pausable elapsed clock, emits level snapshots, and
// finalizes exactly one WAV artifact on stop.
type Recorder struct {
	streamer streamer
	now      func() time.Time
	tempDir  string
	onLevels func(domain.LevelSnapshot)

	mu        sync.Mutex
	state     recState
	stream    stream
	pcm       []byte
	elapsed   time.Duration
	resumedAt time.Time
	readDone  chan struct{}
	artifact  domain.AudioArtifact
	stopErr   error
}

// NewRecorder builds a recorder backed by an ffmpeg capture process.
func NewRecorder(settings domain.Settings) *Recorder {
	return &Recorder{
		streamer: newFFmpegStreamer(settings),
		now:      time.Now,
		tempDir:  os.TempDir(),
	}
}

// NewRecorderForTests builds a recorder with injectable dependencies.
func NewRecorderForTests(s streamer, now func() time.Time, tempDir string) *Recorder {
	if now == nil {
		now = time.Now
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Recorder{streamer: s, now: now, tempDir: tempDir}
}

// SetOnLevels installs the visualization callback. Must be set before
// Start; snapshots are only produced while actively recording.
func (r *Recorder) SetOnLevels(fn func(domain.LevelSnapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLevels = fn
}

// Start acquires the capture device and begins buffering audio.
func (r *Recorder) Start(ctx context.Context, source domain.CaptureSource) error {
	r.mu.Lock()
	if r.state != recIdle {
		r.mu.Unlock()
		return ErrAlreadyCapturing
	}
	r.mu.Unlock()

	// Device acquisition may block on a platform permission prompt,
	// so it runs outside the lock.
	s, err := r.streamer.Start(ctx, source)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.state != recIdle {
		r.mu.Unlock()
		_ = s.Stop()
		return ErrAlreadyCapturing
	}
	r.state = recRecording
	r.stream = s
	r.resumedAt = r.now()
	r.readDone = make(chan struct{})
	done := r.readDone
	r.mu.Unlock()

	go r.readLoop(s, done)
	return nil
}

// Pause freezes the elapsed clock and discards incoming audio. A no-op
// unless currently recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != recRecording {
		return
	}
	r.elapsed += r.now().Sub(r.resumedAt)
	r.state = recPaused
}

// Resume restarts the elapsed clock. A no-op unless currently paused.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != recPaused {
		return
	}
	r.resumedAt = r.now()
	r.state = recRecording
}

// Elapsed returns recorded duration, frozen during pause intervals.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

// Stop finalizes the raw artifact and releases the device. Idempotent:
// repeated calls return the first call's outcome.
func (r *Recorder) Stop() (domain.AudioArtifact, error) {
	r.mu.Lock()
	switch r.state {
	case recStopped:
		artifact, err := r.artifact, r.stopErr
		r.mu.Unlock()
		return artifact, err
	case recIdle:
		r.mu.Unlock()
		return domain.AudioArtifact{}, ErrNotCapturing
	}

	r.elapsed = r.elapsedLocked()
	r.state = recStopped
	s := r.stream
	r.stream = nil
	done := r.readDone
	r.mu.Unlock()

	r.release(s, done)

	r.mu.Lock()
	pcm := r.pcm
	r.pcm = nil
	r.mu.Unlock()

	artifact, err := r.writeArtifact(pcm)

	r.mu.Lock()
	r.artifact = artifact
	r.stopErr = err
	r.mu.Unlock()
	return artifact, err
}

// Close releases the device without producing an artifact, for
// teardown paths. Safe to call in any state, repeatedly.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.state == recIdle || r.state == recStopped {
		r.mu.Unlock()
		return
	}
	r.state = recStopped
	r.stopErr = ErrNotCapturing
	s := r.stream
	r.stream = nil
	done := r.readDone
	r.pcm = nil
	r.mu.Unlock()

	r.release(s, done)
}

// readLoop buffers fixed windows of PCM and emits level snapshots.
func (r *Recorder) readLoop(s stream, done chan struct{}) {
	defer close(done)

	window := make([]byte, windowBytes)
	for {
		if _, err := readFull(s, window); err != nil {
			return
		}

		r.mu.Lock()
		recording := r.state == recRecording
		var elapsed time.Duration
		if recording {
			r.pcm = append(r.pcm, window...)
			elapsed = r.elapsedLocked()
		}
		cb := r.onLevels
		r.mu.Unlock()

		if recording && cb != nil {
			cb(domain.LevelSnapshot{
				Elapsed: elapsed,
				Bands:   bandMagnitudes(pcmToSamples(window), sampleRate),
			})
		}
	}
}

// release stops the stream and waits for the read loop to drain.
func (r *Recorder) release(s stream, done chan struct{}) {
	if s != nil {
		_ = s.Stop()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
}

// writeArtifact persists buffered PCM as a WAV temp file.
func (r *Recorder) writeArtifact(pcm []byte) (domain.AudioArtifact, error) {
	f, err := os.CreateTemp(r.tempDir, "echolog-capture-*.wav")
	if err != nil {
		return domain.AudioArtifact{}, err
	}

	if err := writeWAV(f, pcm, sampleRate, channels); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return domain.AudioArtifact{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return domain.AudioArtifact{}, err
	}

	info, err := os.Stat(f.Name())
	if err != nil {
		return domain.AudioArtifact{}, err
	}

	return domain.AudioArtifact{
		Path:       f.Name(),
		MIME:       "audio/wav",
		Encoding:   "pcm_s16le",
		SampleRate: sampleRate,
		Channels:   channels,
		Size:       info.Size(),
	}, nil
}

// elapsedLocked computes current duration; callers hold the mutex.
func (r *Recorder) elapsedLocked() time.Duration {
	if r.state == recRecording {
		return r.elapsed + r.now().Sub(r.resumedAt)
	}
	return r.elapsed
}

// readFull fills buf completely or reports the stream error.
func readFull(s stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := s.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
