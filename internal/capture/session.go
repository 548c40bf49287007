package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pakmandi/bazaar/internal/models"
)

// ResultKind says what produced a session result
type ResultKind string

const (
	ResultTag       ResultKind = "tag"
	ResultRecording ResultKind = "recording"
	ResultGenerated ResultKind = "generated"
)

// Result is the single media reference a session holds
type Result struct {
	Kind     ResultKind `json:"kind"`
	TagID    string     `json:"tag_id,omitempty"`
	Handle   string     `json:"handle,omitempty"`
	MIMEType string     `json:"mime_type,omitempty"`
}

// Snapshot is a point-in-time copy of session state
type Snapshot struct {
	ID                string  `json:"id"`
	Mode              Mode    `json:"mode"`
	Status            string  `json:"status,omitempty"`
	Result            *Result `json:"result,omitempty"`
	Error             string  `json:"error,omitempty"`
	InvalidCredential bool    `json:"invalid_credential,omitempty"`
	BufferedChunks    int     `json:"buffered_chunks,omitempty"`
	Attempt           uint64  `json:"attempt"`
	Closed            bool    `json:"closed"`
}

// attempt is one scan, recording or generation run.
// Async work holds its attempt and may only mutate the session while it is still current.
type attempt struct {
	id     uint64
	mode   Mode
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	ready     chan struct{}
	collected chan struct{}
	stopping  bool
}

type heldStream struct {
	stream  Stream
	preview PreviewSink
	once    sync.Once
}

func (h *heldStream) release() {
	h.once.Do(func() {
		if h.preview != nil {
			h.preview.Unbind(h.stream)
		}
		h.stream.Stop()
	})
}

// Session coordinates media capture for one listing form
type Session struct {
	ID  string
	cfg Config

	mu        sync.Mutex
	mode      Mode
	current   *attempt
	attempts  uint64
	stream    *heldStream
	recording Recording
	chunks    [][]byte
	result    *Result
	status    string
	err       error
	closed    bool

	wg sync.WaitGroup
}

// NewSession creates an idle session
func NewSession(id string, cfg Config) *Session {
	return &Session{
		ID:   id,
		cfg:  cfg.withDefaults(),
		mode: ModeIdle,
	}
}

// Scan starts a tag scan with the rear camera. The tag ID lands in the result after the scan delay.
func (s *Session) Scan() error {
	if s.cfg.Device == nil {
		return fmt.Errorf("%w: no camera device", ErrUnsupported)
	}

	s.mu.Lock()
	a, err := s.beginLocked(ModeTagScanning)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runScan(a)
	return nil
}

func (s *Session) runScan(a *attempt) {
	defer s.wg.Done()

	if _, ok := s.acquireStream(a, Constraints{Video: true, FacingMode: FacingRear}); !ok {
		return
	}

	timer := time.NewTimer(s.cfg.ScanDelay)
	defer timer.Stop()
	select {
	case <-a.ctx.Done():
		return
	case <-timer.C:
	}

	tag := s.cfg.NewTagID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(a) {
		return
	}
	s.result = &Result{Kind: ResultTag, TagID: tag}
	s.finishLocked(a, nil)
}

// StartRecording requests camera and microphone and begins buffering chunks
func (s *Session) StartRecording() error {
	if s.cfg.Device == nil || s.cfg.Recorder == nil {
		return fmt.Errorf("%w: no recording device", ErrUnsupported)
	}
	if s.cfg.Handles == nil {
		return fmt.Errorf("%w: no media store", ErrUnsupported)
	}

	s.mu.Lock()
	a, err := s.beginLocked(ModeRecording)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	a.ready = make(chan struct{})
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runRecording(a)
	return nil
}

func (s *Session) runRecording(a *attempt) {
	defer s.wg.Done()

	stream, ok := s.acquireStream(a, Constraints{Video: true, Audio: true})
	if !ok {
		return
	}

	rec, err := s.cfg.Recorder.Start(a.ctx, stream)
	if err != nil {
		s.finish(a, fmt.Errorf("start recorder: %w", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(a) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for range rec.Chunks() {
			}
		}()
		if err := rec.Stop(); err != nil {
			slog.Warn("Failed to stop abandoned recorder", "session_id", s.ID, "error", err)
		}
		return
	}

	s.recording = rec
	a.collected = make(chan struct{})
	s.wg.Add(1)
	go s.collect(a, rec)
	close(a.ready)
}

func (s *Session) collect(a *attempt, rec Recording) {
	defer s.wg.Done()
	defer close(a.collected)

	for chunk := range rec.Chunks() {
		s.mu.Lock()
		if s.activeLocked(a) {
			s.chunks = append(s.chunks, chunk)
		}
		s.mu.Unlock()
	}
}

// StopRecording finalizes the buffered chunks into a single clip and stores it as the result.
// It waits for the recorder to finish starting if needed.
func (s *Session) StopRecording(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	a := s.current
	if s.mode != ModeRecording || a == nil {
		s.mu.Unlock()
		return ErrNotRecording
	}
	s.mu.Unlock()

	select {
	case <-a.ready:
	case <-a.done:
		if err := s.Err(); err != nil {
			return err
		}
		return ErrNotRecording
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	if !s.activeLocked(a) || a.stopping {
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return ErrSessionClosed
		}
		return ErrNotRecording
	}
	a.stopping = true
	rec := s.recording
	s.mu.Unlock()

	if err := rec.Stop(); err != nil {
		err = fmt.Errorf("finalize recording: %w", err)
		s.finish(a, err)
		return err
	}
	<-a.collected

	s.mu.Lock()
	if !s.activeLocked(a) {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	data := bytes.Join(s.chunks, nil)
	s.chunks = nil
	s.recording = nil
	s.mu.Unlock()

	handle, err := s.cfg.Handles.Put(rec.MIMEType(), data)
	if err != nil {
		err = fmt.Errorf("store recording: %w", err)
		s.finish(a, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(a) {
		s.cfg.Handles.Revoke(handle)
		return ErrSessionClosed
	}
	s.result = &Result{Kind: ResultRecording, Handle: handle, MIMEType: rec.MIMEType()}
	slog.Info("Recording finalized", "session_id", s.ID, "bytes", len(data), "handle", handle)
	s.finishLocked(a, nil)
	return nil
}

// Generate runs a remote video generation job for the draft listing
func (s *Session) Generate(draft models.ListingDraft) error {
	if s.cfg.Credentials == nil || s.cfg.Generators == nil {
		return fmt.Errorf("%w: no video generator", ErrUnsupported)
	}
	if s.cfg.Handles == nil {
		return fmt.Errorf("%w: no media store", ErrUnsupported)
	}

	s.mu.Lock()
	a, err := s.beginLocked(ModeGenerating)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runGenerate(a, draft)
	return nil
}

func (s *Session) runGenerate(a *attempt, draft models.ListingDraft) {
	defer s.wg.Done()
	ctx := a.ctx

	if !s.cfg.Credentials.HasCredential(ctx) {
		if err := s.cfg.Credentials.Select(ctx); err != nil {
			if errors.Is(err, ErrUserCancelled) {
				slog.Info("Credential selection cancelled", "session_id", s.ID)
				s.finish(a, err)
				return
			}
			s.finish(a, &RemoteJobError{Op: "select credential", Err: err})
			return
		}
	}

	if !s.setStatus(a, StatusInitializing) {
		return
	}
	gen, err := s.cfg.Generators(ctx, s.cfg.Credentials.Credential())
	if err != nil {
		s.finish(a, &RemoteJobError{Op: "connect", Err: err})
		return
	}

	if !s.setStatus(a, StatusScripting) {
		return
	}
	prompt := s.script(ctx, draft)

	if !s.setStatus(a, StatusGenerating) {
		return
	}
	job, err := gen.Submit(ctx, prompt, s.cfg.Options)
	if err != nil {
		s.finish(a, &RemoteJobError{Op: "submit", Err: err})
		return
	}
	slog.Info("Video job submitted", "session_id", s.ID, "job", job.Name)

	job, err = s.poll(ctx, gen, job)
	if err != nil {
		s.finish(a, err)
		return
	}
	if job.Err != nil {
		s.finish(a, &RemoteJobError{Op: "generate", Err: job.Err})
		return
	}
	if job.ResultURI == "" {
		s.finish(a, &RemoteJobError{Op: "generate", Err: ErrNoVideo})
		return
	}

	if !s.setStatus(a, StatusFinalizing) {
		return
	}
	data, mimeType, err := gen.Fetch(ctx, job.ResultURI)
	if err != nil {
		s.finish(a, &RemoteJobError{Op: "fetch", Err: err})
		return
	}
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	handle, err := s.cfg.Handles.Put(mimeType, data)
	if err != nil {
		s.finish(a, fmt.Errorf("store video: %w", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(a) {
		s.cfg.Handles.Revoke(handle)
		return
	}
	s.result = &Result{Kind: ResultGenerated, Handle: handle, MIMEType: mimeType}
	slog.Info("Video generated", "session_id", s.ID, "job", job.Name, "bytes", len(data), "handle", handle)
	s.finishLocked(a, nil)
}

// poll waits for the job to finish. Consecutive transient failures are tolerated up to MaxPollFailures;
// a rejected credential fails immediately.
func (s *Session) poll(ctx context.Context, gen VideoGenerator, job *Job) (*Job, error) {
	failures := 0
	for !job.Done {
		timer := time.NewTimer(s.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		next, err := gen.Poll(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			if errors.Is(err, ErrInvalidCredential) || failures >= s.cfg.MaxPollFailures {
				return nil, &RemoteJobError{Op: "poll", Err: err}
			}
			slog.Warn("Poll failed, retrying", "session_id", s.ID, "job", job.Name, "failures", failures, "error", err)
			continue
		}
		failures = 0
		job = next
	}
	return job, nil
}

func (s *Session) script(ctx context.Context, draft models.ListingDraft) string {
	prompt := Prompt(draft)
	if s.cfg.Script == nil {
		return prompt
	}

	out, err := s.cfg.Script.WriteScript(ctx, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		slog.Warn("Script writer failed, using template prompt", "session_id", s.ID, "error", err)
		return prompt
	}
	return strings.TrimSpace(out)
}

// Close aborts any in-flight attempt, releases held devices and revokes an unclaimed result handle.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	a := s.current
	stream := s.stream
	rec := s.recording
	s.current = nil
	s.stream = nil
	s.recording = nil
	s.chunks = nil
	s.status = ""
	s.mode = ModeIdle
	var handle string
	if s.result != nil {
		handle = s.result.Handle
		s.result = nil
	}
	s.mu.Unlock()

	if handle != "" && s.cfg.Handles != nil {
		s.cfg.Handles.Revoke(handle)
	}
	if stream != nil {
		stream.release()
	}
	if rec != nil {
		if err := rec.Stop(); err != nil {
			slog.Warn("Failed to stop recorder on close", "session_id", s.ID, "error", err)
		}
	}
	if a != nil {
		a.cancel()
		close(a.done)
	}
	slog.Info("Capture session closed", "session_id", s.ID)
}

// Wait blocks until the in-flight attempt ends and returns its error.
// A cancelled credential selection is not an error.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	a := s.current
	s.mu.Unlock()

	if a != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err()
}

// Err returns the failure of the last finished attempt
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot copies the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.ID,
		Mode:           s.mode,
		Status:         s.status,
		Error:          UserMessage(s.err),
		BufferedChunks: len(s.chunks),
		Attempt:        s.attempts,
		Closed:         s.closed,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	snap.InvalidCredential = errors.Is(s.err, ErrInvalidCredential)
	return snap
}

// TakeResult hands the result to the caller and clears it without revoking the handle
func (s *Session) TakeResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	r := *s.result
	s.result = nil
	return r, true
}

func (s *Session) beginLocked(mode Mode) (*attempt, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.mode != ModeIdle {
		return nil, &ConcurrentOperationError{Active: s.mode, Requested: mode}
	}

	if s.result != nil && s.result.Handle != "" && s.cfg.Handles != nil {
		s.cfg.Handles.Revoke(s.result.Handle)
	}
	s.result = nil
	s.err = nil
	s.attempts++

	ctx, cancel := context.WithCancel(context.Background())
	a := &attempt{
		id:     s.attempts,
		mode:   mode,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current = a
	s.mode = mode
	slog.Info("Capture attempt started", "session_id", s.ID, "mode", mode, "attempt", a.id)
	return a, nil
}

func (s *Session) activeLocked(a *attempt) bool {
	return !s.closed && s.current == a
}

// acquireStream requests a stream and parks it on the session.
// A stream granted after the attempt went stale is stopped immediately.
func (s *Session) acquireStream(a *attempt, c Constraints) (Stream, bool) {
	stream, err := s.cfg.Device.RequestStream(a.ctx, c)
	if err != nil {
		s.finish(a, &DevicePermissionError{Err: err})
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(a) {
		stream.Stop()
		return nil, false
	}
	s.stream = &heldStream{stream: stream, preview: s.cfg.Preview}
	if s.cfg.Preview != nil {
		s.cfg.Preview.Bind(stream)
	}
	return stream, true
}

func (s *Session) setStatus(a *attempt, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked(a) {
		return false
	}
	s.status = msg
	return true
}

// finish ends the attempt if it is still current and reports whether it was
func (s *Session) finish(a *attempt, err error) bool {
	s.mu.Lock()
	if !s.activeLocked(a) {
		s.mu.Unlock()
		return false
	}
	rec := s.recording
	s.recording = nil
	s.finishLocked(a, err)
	s.mu.Unlock()

	if rec != nil {
		if err := rec.Stop(); err != nil {
			slog.Warn("Failed to stop recorder", "session_id", s.ID, "error", err)
		}
	}
	return true
}

func (s *Session) finishLocked(a *attempt, err error) {
	if s.stream != nil {
		s.stream.release()
		s.stream = nil
	}
	s.chunks = nil
	s.status = ""
	s.mode = ModeIdle
	s.current = nil

	if err != nil && !errors.Is(err, ErrUserCancelled) {
		s.err = err
		slog.Error("Capture attempt failed", "session_id", s.ID, "mode", a.mode, "attempt", a.id, "error", err)
	} else {
		slog.Info("Capture attempt finished", "session_id", s.ID, "mode", a.mode, "attempt", a.id)
	}

	a.cancel()
	close(a.done)
}
