package capture

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode is the session's active operation
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeTagScanning Mode = "tag_scanning"
	ModeRecording   Mode = "recording"
	ModeGenerating  Mode = "generating"
)

// Status messages reported while generating
const (
	StatusInitializing = "Initializing AI model..."
	StatusScripting    = "Crafting the script..."
	StatusGenerating   = "Generating scenes (this can take a few minutes)..."
	StatusFinalizing   = "Finalizing video..."
)

// FacingRear asks the device for the back camera
const FacingRear = "environment"

// Constraints select which tracks a stream carries
type Constraints struct {
	Video      bool
	FacingMode string
	Audio      bool
}

// Stream is a live device stream. Stop releases the device.
type Stream interface {
	Stop()
}

// Device hands out camera and microphone streams
type Device interface {
	RequestStream(ctx context.Context, c Constraints) (Stream, error)
}

// Recording emits encoded chunks in order until stopped.
// Stop flushes any pending data and closes the Chunks channel; it must be safe to call more than once.
type Recording interface {
	Chunks() <-chan []byte
	Stop() error
	MIMEType() string
}

// Recorder encodes a stream into chunks
type Recorder interface {
	Start(ctx context.Context, s Stream) (Recording, error)
}

// PreviewSink shows a live stream to the user
type PreviewSink interface {
	Bind(s Stream)
	Unbind(s Stream)
}

// CredentialProvider gates access to the generation API
type CredentialProvider interface {
	HasCredential(ctx context.Context) bool
	// Select runs interactive key selection. It returns ErrUserCancelled when dismissed.
	Select(ctx context.Context) error
	Credential() string
}

// GenerateOptions are the job parameters sent with every prompt
type GenerateOptions struct {
	Count       int
	Resolution  string
	AspectRatio string
}

// Job is a remote generation job
type Job struct {
	Name      string
	Done      bool
	ResultURI string
	// Err is the failure the provider reported for a finished job
	Err error
	// Handle carries provider state between polls
	Handle any
}

// VideoGenerator runs remote video generation jobs
type VideoGenerator interface {
	Submit(ctx context.Context, prompt string, opts GenerateOptions) (*Job, error)
	Poll(ctx context.Context, job *Job) (*Job, error)
	// Fetch downloads the asset at uri with the credential attached
	Fetch(ctx context.Context, uri string) (data []byte, mimeType string, err error)
}

// GeneratorFactory builds a generator bound to an API key
type GeneratorFactory func(ctx context.Context, apiKey string) (VideoGenerator, error)

// HandleStore turns media bytes into playable handles
type HandleStore interface {
	Put(mimeType string, data []byte) (string, error)
	Revoke(handle string)
}

// ScriptWriter expands a template prompt into a richer video script
type ScriptWriter interface {
	WriteScript(ctx context.Context, prompt string) (string, error)
}

// Config wires a session to its capabilities.
// Device and Recorder are only needed for scanning and recording; Credentials and Generators only for generation.
type Config struct {
	Device      Device
	Recorder    Recorder
	Preview     PreviewSink
	Credentials CredentialProvider
	Generators  GeneratorFactory
	Handles     HandleStore
	Script      ScriptWriter

	ScanDelay       time.Duration
	PollInterval    time.Duration
	MaxPollFailures int
	Options         GenerateOptions
	NewTagID        func() string
}

const (
	DefaultScanDelay       = 3 * time.Second
	DefaultPollInterval    = 10 * time.Second
	DefaultMaxPollFailures = 3
)

// DefaultOptions requests one 720p landscape clip
var DefaultOptions = GenerateOptions{Count: 1, Resolution: "720p", AspectRatio: "16:9"}

func (c Config) withDefaults() Config {
	if c.ScanDelay <= 0 {
		c.ScanDelay = DefaultScanDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPollFailures <= 0 {
		c.MaxPollFailures = DefaultMaxPollFailures
	}
	if c.Options.Count == 0 {
		c.Options = DefaultOptions
	}
	if c.NewTagID == nil {
		c.NewTagID = newTagID
	}
	return c
}

func newTagID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
