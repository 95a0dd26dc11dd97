package tts

import "context"

// Remote synthesizes speech through the proxy or a direct API client and
// returns the audio as a base64 PCM payload.
type Remote interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// ClipCache stores base64 PCM payloads under deterministic keys. A nil or
// failing cache is indistinguishable from an empty one.
type ClipCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, payload []byte)
}

// Player plays raw PCM buffers through the shared audio context.
type Player interface {
	Play(pcm []byte, onEnded func()) error
	Stop()
	Pause()
	Resume() error
	IsPlaying() bool
	Unlock() error
	StartKeepAlive() error
	StopKeepAlive()
}

// Fallback reads text aloud through the platform speech engine when
// synthesized audio cannot be produced or played.
type Fallback interface {
	Speak(ctx context.Context, text, language string, onEnd func()) error
	Stop()
}
