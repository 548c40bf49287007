package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrUserCancelled is returned by a CredentialProvider when the user dismisses selection.
	// It aborts generation silently.
	ErrUserCancelled = errors.New("user cancelled")

	// ErrInvalidCredential marks remote failures caused by a rejected API key.
	ErrInvalidCredential = errors.New("invalid API credential")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("capture session closed")

	// ErrNotRecording is returned when stop is requested without an active recording.
	ErrNotRecording = errors.New("no recording in progress")

	// ErrUnsupported is returned when the session was built without the capability an operation needs.
	ErrUnsupported = errors.New("capability not configured")

	// ErrNoVideo is returned when a finished job carries no asset location.
	ErrNoVideo = errors.New("generation finished without a video")
)

// ConcurrentOperationError rejects a transition while another mode is active.
// The session is left untouched.
type ConcurrentOperationError struct {
	Active    Mode
	Requested Mode
}

func (e *ConcurrentOperationError) Error() string {
	return fmt.Sprintf("cannot start %s while %s is in progress", e.Requested, e.Active)
}

// DevicePermissionError wraps a camera or microphone acquisition failure.
type DevicePermissionError struct {
	Err error
}

func (e *DevicePermissionError) Error() string {
	return fmt.Sprintf("device access denied: %v", e.Err)
}

func (e *DevicePermissionError) Unwrap() error {
	return e.Err
}

// RemoteJobError wraps a failure talking to the video generation provider.
type RemoteJobError struct {
	Op  string
	Err error
}

func (e *RemoteJobError) Error() string {
	return fmt.Sprintf("video generation %s: %v", e.Op, e.Err)
}

func (e *RemoteJobError) Unwrap() error {
	return e.Err
}

// InvalidCredential reports whether the provider rejected the API key.
func (e *RemoteJobError) InvalidCredential() bool {
	return errors.Is(e.Err, ErrInvalidCredential)
}

// UserMessage converts a workflow error to the text shown on the session.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var permErr *DevicePermissionError
	if errors.As(err, &permErr) {
		return "Could not access the camera or microphone. Please check permissions."
	}
	if errors.Is(err, ErrInvalidCredential) {
		return "Your API key is invalid or was not found. Please select a valid key and try again."
	}
	var jobErr *RemoteJobError
	if errors.As(err, &jobErr) {
		return fmt.Sprintf("Failed to generate video: %v", jobErr.Err)
	}
	return err.Error()
}
