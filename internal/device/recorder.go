package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/pakmandi/bazaar/internal/capture"
)

const chunkSize = 64 * 1024

// RecorderError carries the ffmpeg invocation that failed
type RecorderError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RecorderError) Error() string {
	return fmt.Sprintf("recorder failed (cmd=%s exit=%d): %v", e.Command, e.ExitCode, e.Err)
}

func (e *RecorderError) Unwrap() error {
	return e.Err
}

// Recorder encodes a device stream to WebM with ffmpeg
type Recorder struct {
	FFmpegPath string
}

func NewRecorder(ffmpegPath string) *Recorder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Recorder{FFmpegPath: ffmpegPath}
}

// Recording is a running ffmpeg capture
type Recording struct {
	cmd    *exec.Cmd
	args   []string
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	chunks chan []byte
	read   chan struct{}

	once sync.Once
	err  error
}

// Start launches ffmpeg on the stream's camera (and microphone when requested)
func (r *Recorder) Start(ctx context.Context, s capture.Stream) (capture.Recording, error) {
	stream, ok := s.(*Stream)
	if !ok {
		return nil, fmt.Errorf("unsupported stream type %T", s)
	}
	if err := stream.handoff(); err != nil {
		return nil, err
	}

	args := recordArgs(stream)
	cmd := exec.CommandContext(ctx, r.FFmpegPath, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &RecorderError{Command: r.FFmpegPath, Args: args, ExitCode: -1, Err: err}
	}
	slog.Info("Recording started", "camera", stream.Camera, "microphone", stream.Microphone, "pid", cmd.Process.Pid)

	rec := &Recording{
		cmd:    cmd,
		args:   args,
		stdin:  stdin,
		stderr: stderr,
		chunks: make(chan []byte, 16),
		read:   make(chan struct{}),
	}
	go rec.pump(stdout)
	return rec, nil
}

func (r *Recording) pump(stdout io.Reader) {
	defer close(r.read)
	defer close(r.chunks)

	for {
		buf := make([]byte, chunkSize)
		n, err := stdout.Read(buf)
		if n > 0 {
			r.chunks <- buf[:n]
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("Recorder output read failed", "error", err)
			}
			return
		}
	}
}

func (r *Recording) Chunks() <-chan []byte {
	return r.chunks
}

func (r *Recording) MIMEType() string {
	return "video/webm"
}

// Stop asks ffmpeg to finish the file and waits for it to exit
func (r *Recording) Stop() error {
	r.once.Do(func() {
		if _, err := io.WriteString(r.stdin, "q"); err != nil {
			slog.Debug("Recorder already exiting", "error", err)
		}
		r.stdin.Close()
		<-r.read

		if err := r.cmd.Wait(); err != nil {
			code := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			r.err = &RecorderError{
				Command:  r.cmd.Path,
				Args:     r.args,
				ExitCode: code,
				Stderr:   r.stderr.String(),
				Err:      err,
			}
		}
	})
	return r.err
}

func recordArgs(s *Stream) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", "v4l2", "-i", s.Camera}
	if s.Audio && s.Microphone != "" {
		args = append(args, "-f", "alsa", "-i", s.Microphone, "-c:a", "libopus")
	}
	return append(args, "-c:v", "libvpx", "-deadline", "realtime", "-f", "webm", "pipe:1")
}
