package tts

import "errors"

// Common errors for the speech pipeline.
var (
	// Environment errors
	ErrUnsupportedEnvironment = errors.New("audio playback is not supported in this environment")
	ErrControllerShutdown     = errors.New("speech controller has been shut down")

	// Playback errors
	ErrDecodeFailed      = errors.New("audio payload could not be decoded")
	ErrPlaybackTransient = errors.New("audio playback failed to start")
	ErrNothingToSpeak    = errors.New("no text to speak")

	// Remote errors
	ErrRemoteUnavailable = errors.New("remote speech service unavailable")
	ErrRemoteEmpty       = errors.New("remote speech service returned no audio")

	// Configuration errors
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// IsRecoverableError reports whether a speech request after err can still
// succeed, possibly through the native fallback.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, ErrControllerShutdown),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidSampleRate):
		return false
	}

	// Decode and remote failures recover through the fallback path.
	return true
}
