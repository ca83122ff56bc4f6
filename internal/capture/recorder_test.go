package capture

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"echolog/internal/domain"
)

// fakeStream feeds queued PCM to the recorder and blocks when empty,
// like a live device between windows.
type fakeStream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queued []byte
	closed bool
}

func newFakeStream() *fakeStream {
	s := &fakeStream{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *fakeStream) push(p []byte) {
	s.mu.Lock()
	s.queued = append(s.queued, p...)
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *fakeStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queued) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queued) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.queued)
	s.queued = s.queued[n:]
	return n, nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
	return nil
}

// fakeStreamer hands out a prepared stream or a start failure.
type fakeStreamer struct {
	stream *fakeStream
	err    error
	source domain.CaptureSource
}

func (f *fakeStreamer) Start(ctx context.Context, source domain.CaptureSource) (stream, error) {
	f.source = source
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// window returns one full meter window of constant samples.
func window(value byte) []byte {
	p := make([]byte, windowBytes)
	for i := range p {
		p[i] = value
	}
	return p
}

// TestRecorderCapturesWindowsIntoWAV verifies the full capture run:
// buffered windows become one WAV artifact with the right header.
func TestRecorderCapturesWindowsIntoWAV(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorderForTests(&fakeStreamer{stream: stream}, nil, t.TempDir())

	snapshots := make(chan domain.LevelSnapshot, 8)
	rec.SetOnLevels(func(s domain.LevelSnapshot) { snapshots <- s })

	if err := rec.Start(context.Background(), domain.SourceMicrophone); err != nil {
		t.Fatalf("start: %v", err)
	}

	stream.push(window(0))
	stream.push(window(0))
	for i := 0; i < 2; i++ {
		select {
		case snap := <-snapshots:
			if len(snap.Bands) != meterBands {
				t.Fatalf("bands = %d, want %d", len(snap.Bands), meterBands)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for level snapshot")
		}
	}

	artifact, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if artifact.Encoding != "pcm_s16le" || artifact.SampleRate != 16000 || artifact.Channels != 1 {
		t.Fatalf("artifact encoding = %+v", artifact)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("not a RIFF/WAVE file: % x", data[:12])
	}
	if len(data) != 44+2*windowBytes {
		t.Fatalf("artifact size = %d, want %d", len(data), 44+2*windowBytes)
	}
	if artifact.Size != int64(len(data)) {
		t.Fatalf("reported size = %d, file size = %d", artifact.Size, len(data))
	}
}

// TestRecorderStopIsIdempotent verifies repeated stops return the
// first outcome without producing a second artifact.
func TestRecorderStopIsIdempotent(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorderForTests(&fakeStreamer{stream: stream}, nil, t.TempDir())

	if err := rec.Start(context.Background(), domain.SourceMicrophone); err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	second, err := rec.Stop()
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if first.Path != second.Path {
		t.Fatalf("paths differ: %q vs %q", first.Path, second.Path)
	}
}

// TestRecorderStopBeforeStart checks the no-capture error.
func TestRecorderStopBeforeStart(t *testing.T) {
	rec := NewRecorderForTests(&fakeStreamer{stream: newFakeStream()}, nil, t.TempDir())

	if _, err := rec.Stop(); !errors.Is(err, ErrNotCapturing) {
		t.Fatalf("stop error = %v, want ErrNotCapturing", err)
	}
}

// TestRecorderRejectsSecondStart enforces exclusive capture.
func TestRecorderRejectsSecondStart(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorderForTests(&fakeStreamer{stream: stream}, nil, t.TempDir())

	if err := rec.Start(context.Background(), domain.SourceMicrophone); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rec.Close()

	if err := rec.Start(context.Background(), domain.SourceSystem); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("second start error = %v, want ErrAlreadyCapturing", err)
	}
}

// TestRecorderStartFailurePropagates verifies acquisition errors leave
// the recorder reusable.
func TestRecorderStartFailurePropagates(t *testing.T) {
	streamer := &fakeStreamer{
		stream: newFakeStream(),
		err: &Error{
			Kind:    ErrKindDeviceUnavailable,
			Message: "capture device is unavailable",
		},
	}
	rec := NewRecorderForTests(streamer, nil, t.TempDir())

	err := rec.Start(context.Background(), domain.SourceMicrophone)
	var capErr *Error
	if !errors.As(err, &capErr) || capErr.Kind != ErrKindDeviceUnavailable {
		t.Fatalf("start error = %v, want device unavailable", err)
	}

	streamer.err = nil
	if err := rec.Start(context.Background(), domain.SourceMicrophone); err != nil {
		t.Fatalf("retry start: %v", err)
	}
	rec.Close()
}

// TestRecorderElapsedFreezesDuringPause verifies the pausable clock
// against a manual time source.
func TestRecorderElapsedFreezesDuringPause(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	stream := newFakeStream()
	rec := NewRecorderForTests(&fakeStreamer{stream: stream}, clock.Now, t.TempDir())

	if err := rec.Start(context.Background(), domain.SourceMicrophone); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rec.Close()

	clock.Advance(3 * time.Second)
	if got := rec.Elapsed(); got != 3*time.Second {
		t.Fatalf("elapsed = %v, want 3s", got)
	}

	rec.Pause()
	clock.Advance(10 * time.Second)
	if got := rec.Elapsed(); got != 3*time.Second {
		t.Fatalf("elapsed during pause = %v, want 3s", got)
	}

	rec.Resume()
	clock.Advance(2 * time.Second)
	if got := rec.Elapsed(); got != 5*time.Second {
		t.Fatalf("elapsed after resume = %v, want 5s", got)
	}

	rec.Pause()
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := rec.Elapsed(); got != 5*time.Second {
		t.Fatalf("elapsed after stop = %v, want 5s", got)
	}
}

// TestRecorderPauseDiscardsAudio verifies paused windows never reach
// the artifact.
func TestRecorderPauseDiscardsAudio(t *testing.T) {
	stream := newFakeStream()
	rec := NewRecorderForTests(&fakeStreamer{stream: stream}, nil, t.TempDir())

	snapshots := make(chan domain.LevelSnapshot, 8)
	rec.SetOnLevels(func(s domain.LevelSnapshot) { snapshots <- s })

	if err := rec.Start(context.Background(), domain.SourceMicrophone); err != nil {
		t.Fatalf("start: %v", err)
	}

	stream.push(window(0))
	select {
	case <-snapshots:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recorded window")
	}

	rec.Pause()
	stream.push(window(0))
	// Give the read loop a chance to consume the paused window.
	deadline := time.After(2 * time.Second)
	for {
		stream.mu.Lock()
		drained := len(stream.queued) == 0
		stream.mu.Unlock()
		if drained {
			break
		}
		select {
		case <-deadline:
			t.Fatal("read loop never drained the paused window")
		case <-time.After(10 * time.Millisecond):
		}
	}

	artifact, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if artifact.Size != 44+int64(windowBytes) {
		t.Fatalf("artifact size = %d, want one recorded window", artifact.Size)
	}
	select {
	case <-snapshots:
		t.Fatal("paused window produced a level snapshot")
	default:
	}
}
