package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pakmandi/bazaar/internal/capture"
)

// ErrNoCamera is returned when no camera matches the requested facing mode
var ErrNoCamera = errors.New("no camera available")

// Device opens V4L2 cameras and an ALSA microphone on Linux hosts
type Device struct {
	// Cameras maps a facing mode ("environment", "user") to a device node
	Cameras map[string]string
	// DefaultCamera is used when the facing mode is empty or unmapped
	DefaultCamera string
	// Microphone is the ALSA input name
	Microphone string
}

// New returns a device using /dev/video0 as the rear camera and the default ALSA input
func New() *Device {
	return &Device{
		Cameras:       map[string]string{capture.FacingRear: "/dev/video0", "user": "/dev/video1"},
		DefaultCamera: "/dev/video0",
		Microphone:    "default",
	}
}

// Stream holds a camera node open until it is stopped or handed to a recorder
type Stream struct {
	Camera     string
	Microphone string
	Audio      bool

	mu      sync.Mutex
	file    *os.File
	stopped bool
}

// RequestStream opens the camera node for the requested facing mode.
// Permission problems surface as errors wrapping fs.ErrPermission.
func (d *Device) RequestStream(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Video {
		return nil, fmt.Errorf("%w: video track is required", ErrNoCamera)
	}

	camera := d.Cameras[c.FacingMode]
	if camera == "" {
		camera = d.DefaultCamera
	}
	if camera == "" {
		return nil, fmt.Errorf("%w for facing mode %q", ErrNoCamera, c.FacingMode)
	}

	f, err := os.OpenFile(camera, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", camera, err)
	}
	slog.Debug("Camera opened", "camera", camera, "audio", c.Audio)

	s := &Stream{Camera: camera, Audio: c.Audio, file: f}
	if c.Audio {
		s.Microphone = d.Microphone
	}
	return s, nil
}

// Stop releases the camera node
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.closeFile()
}

// handoff frees the node so a capture process can take it
func (s *Stream) handoff() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("stream already stopped")
	}
	s.closeFile()
	return nil
}

func (s *Stream) closeFile() {
	if s.file == nil {
		return
	}
	if err := s.file.Close(); err != nil {
		slog.Warn("Failed to close camera", "camera", s.Camera, "error", err)
	}
	s.file = nil
}
