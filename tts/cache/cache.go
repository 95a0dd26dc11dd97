// Package cache provides the persistent audio clip store. Clips are keyed
// by a deterministic signature of text and voice and survive across runs.
// The store must never surface an error to callers: every failure is
// reported as a cache miss.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

// Version identifies the audio pipeline output format. Bumping it
// invalidates every previously cached clip; there is no migration.
const Version = "v1"

// compressThreshold is the minimum clip size worth compressing.
const compressThreshold = 1024

// Key derives the stable cache key for a spoken phrase. Identical inputs
// always produce the same key.
func Key(text, language, voice string) string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Stats holds clip store counters for logging.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
	Bytes  int64
}

// Store is a versioned on-disk clip store.
type Store struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	stats Stats
}

// Open creates a clip store rooted at dir. The current Version gets its own
// subdirectory, so a version bump leaves stale clips behind unread.
// Open never fails: if the directory or codec cannot be set up the store
// degrades to a permanent miss.
func Open(dir string) *Store {
	s := &Store{dir: filepath.Join(dir, Version)}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Debug("clip cache unavailable", "dir", s.dir, "err", err)
		s.dir = ""
		return s
	}

	// Compression failures also degrade to miss rather than erroring.
	if enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err == nil {
		s.encoder = enc
	}
	if dec, err := zstd.NewReader(nil); err == nil {
		s.decoder = dec
	}
	return s
}

// Get returns the clip stored under key, or false on any miss or failure.
func (s *Store) Get(key string) ([]byte, bool) {
	if s == nil || s.dir == "" {
		return nil, false
	}

	data, err := os.ReadFile(s.clipPath(key))
	if err != nil {
		s.count(func(st *Stats) { st.Misses++ })
		return nil, false
	}

	if isZstd(data) && s.decoder != nil {
		plain, err := s.decoder.DecodeAll(data, nil)
		if err != nil {
			// Corrupt entry: drop it and miss.
			os.Remove(s.clipPath(key))
			s.count(func(st *Stats) { st.Misses++ })
			return nil, false
		}
		data = plain
	}

	s.count(func(st *Stats) { st.Hits++ })
	return data, true
}

// Put stores a clip under key. Failures are swallowed; the clip is simply
// not cached.
func (s *Store) Put(key string, clip []byte) {
	if s == nil || s.dir == "" || len(clip) == 0 {
		return
	}

	payload := clip
	if len(clip) > compressThreshold && s.encoder != nil {
		if packed := s.encoder.EncodeAll(clip, nil); len(packed) < len(clip) {
			payload = packed
		}
	}

	// Write-then-rename keeps partially written clips invisible.
	path := s.clipPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		log.Debug("clip cache write failed", "key", key, "err", err)
		os.Remove(tmp)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Debug("clip cache rename failed", "key", key, "err", err)
		os.Remove(tmp)
		return
	}

	s.count(func(st *Stats) {
		st.Writes++
		st.Bytes += int64(len(payload))
	})
	log.Debug("clip cached",
		"key", key,
		"size", humanize.Bytes(uint64(len(clip))),
		"stored", humanize.Bytes(uint64(len(payload))))
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store) clipPath(key string) string {
	return filepath.Join(s.dir, key+".clip")
}

func (s *Store) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

// isZstd reports whether data starts with the zstd frame magic.
func isZstd(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd
}
