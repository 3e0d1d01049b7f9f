// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package keystore implements the live pipeline's DRM key manager
// (component L, §4.6): key rotation policy evaluation, KeyMaterial
// issuance, and durable per-segment key binding so a restarted pipeline can
// answer "which key encrypted segment N" without re-deriving it.
package keystore

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ManuGH/hlsforge/internal/log"
)

// RotationPolicyKind is the closed set of key rotation policies (§4.6).
type RotationPolicyKind int

const (
	RotationNone RotationPolicyKind = iota
	RotationEverySegment
	RotationEveryNSegments
	RotationInterval
	RotationManual
)

// RotationPolicy is a tagged union over RotationPolicyKind; N and Interval
// are only meaningful for their matching Kind.
type RotationPolicy struct {
	Kind     RotationPolicyKind
	N        int           // RotationEveryNSegments
	Interval time.Duration // RotationInterval
}

func EverySegment() RotationPolicy              { return RotationPolicy{Kind: RotationEverySegment} }
func EveryNSegments(n int) RotationPolicy       { return RotationPolicy{Kind: RotationEveryNSegments, N: n} }
func IntervalPolicy(d time.Duration) RotationPolicy { return RotationPolicy{Kind: RotationInterval, Interval: d} }
func ManualPolicy() RotationPolicy              { return RotationPolicy{Kind: RotationManual} }
func NoRotation() RotationPolicy                { return RotationPolicy{Kind: RotationNone} }

// ShouldRotate evaluates the policy's rotation predicate per §4.6, given
// the segment about to be appended, the elapsed time since the last
// rotation, and the segment index at which the last rotation occurred.
func (p RotationPolicy) ShouldRotate(segmentIndex int, elapsedSinceLastRotation time.Duration, lastRotationSegment int) bool {
	switch p.Kind {
	case RotationEverySegment:
		return segmentIndex > lastRotationSegment
	case RotationEveryNSegments:
		n := p.N
		if n <= 0 {
			n = 1
		}
		return segmentIndex-lastRotationSegment >= n
	case RotationInterval:
		return elapsedSinceLastRotation >= p.Interval
	default: // RotationManual, RotationNone
		return false
	}
}

// KeyMaterial is one issued encryption key, per §3/§4.6.
type KeyMaterial struct {
	KeyID   string // opaque key identifier (UUID)
	KeyByte [16]byte
	IV      [16]byte
}

func (k KeyMaterial) KeyBytesHex() string { return fmt.Sprintf("%x", k.KeyByte[:]) }
func (k KeyMaterial) IVHex() string       { return "0x" + fmt.Sprintf("%x", k.IV[:]) }

// persistedKeyMaterial is the durable, JSON-encoded record kept for each
// rotation, keyed by the first bound segment index.
type persistedKeyMaterial struct {
	KeyID   string `json:"key_id"`
	KeyByte []byte `json:"key_bytes"`
	IV      []byte `json:"iv"`
	BoundAt int    `json:"bound_segment_index"`
}

// Manager tracks rotation state and issues KeyMaterial. Its current-key
// slot is written only by the single live-pipeline actor goroutine (§5),
// but the mutex keeps it safe for callers that inspect state (e.g. a
// diagnostics endpoint) from another goroutine.
type Manager struct {
	mu sync.Mutex

	policy              RotationPolicy
	current             *KeyMaterial
	lastRotationSegment int
	lastRotationTime    time.Time

	db *badger.DB // nil when running without durable persistence
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithBadgerStore opens (or creates) a badger database at dir for durable
// key-rotation history, so a restarted pipeline can reconstruct which key
// bound which segment (e.g. for content-steering reload or rendition
// reports referencing older segments still in the window).
func WithBadgerStore(dir string) Option {
	return func(m *Manager) {
		opts := badger.DefaultOptions(dir).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			log.L().Warn().Err(err).Str("component", "keystore").Str("dir", dir).
				Msg("failed to open durable key store, continuing in-memory only")
			return
		}
		m.db = db
	}
}

// NewManager constructs a key Manager under the given rotation policy.
func NewManager(policy RotationPolicy, opts ...Option) *Manager {
	m := &Manager{policy: policy}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close releases the durable store, if any.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Current returns the currently bound key, or nil if no rotation has
// happened yet (an unencrypted stream, or rotation pending the first
// segment).
func (m *Manager) Current() *KeyMaterial {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// MaybeRotate evaluates the policy for segmentIndex and, if due, issues a
// new key bound to that segment (the first segment encrypted under it, per
// §4.6) and persists the binding. Returns the (possibly unchanged) current
// key and whether a rotation occurred.
//
// Under RotationManual and RotationNone, §4.6 defines the rotation
// predicate as always false — including on the very first segment. Those
// two policies never auto-issue a key; a caller running RotationManual
// must call ForceRotate explicitly to bind one.
func (m *Manager) MaybeRotate(segmentIndex int, now time.Time) (*KeyMaterial, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		if m.policy.Kind == RotationNone || m.policy.Kind == RotationManual {
			return nil, false, nil
		}
		return m.rotateLocked(segmentIndex, now)
	}

	elapsed := time.Duration(0)
	if !m.lastRotationTime.IsZero() {
		elapsed = now.Sub(m.lastRotationTime)
	}

	if !m.policy.ShouldRotate(segmentIndex, elapsed, m.lastRotationSegment) {
		return m.current, false, nil
	}

	return m.rotateLocked(segmentIndex, now)
}

// ForceRotate unconditionally issues and binds a new key to segmentIndex,
// regardless of policy. It is the only way to bind a key under
// RotationManual, and also serves a caller that wants an out-of-band
// rotation under any other policy (e.g. responding to a key-compromise
// signal).
func (m *Manager) ForceRotate(segmentIndex int, now time.Time) (*KeyMaterial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	km, _, err := m.rotateLocked(segmentIndex, now)
	return km, err
}

func (m *Manager) rotateLocked(segmentIndex int, now time.Time) (*KeyMaterial, bool, error) {
	km, err := issueKeyMaterial()
	if err != nil {
		return m.current, false, err
	}

	m.current = &km
	m.lastRotationSegment = segmentIndex
	m.lastRotationTime = now

	if err := m.persist(segmentIndex, km); err != nil {
		log.L().Warn().Err(err).Str("component", "keystore").Msg("failed to persist key rotation")
	}

	log.L().Info().
		Str("component", "keystore").
		Str("key_id", km.KeyID).
		Int("bound_segment_index", segmentIndex).
		Msg("rotated encryption key")

	return m.current, true, nil
}

func (m *Manager) persist(segmentIndex int, km KeyMaterial) error {
	if m.db == nil {
		return nil
	}
	rec := persistedKeyMaterial{
		KeyID:   km.KeyID,
		KeyByte: km.KeyByte[:],
		IV:      km.IV[:],
		BoundAt: segmentIndex,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(segmentKey(segmentIndex), payload)
	})
}

// KeyForSegment looks up the durable record bound to a given segment index,
// for segments evicted from the in-memory window but still referenced by
// (e.g.) a rendition report.
func (m *Manager) KeyForSegment(segmentIndex int) (KeyMaterial, bool, error) {
	if m.db == nil {
		return KeyMaterial{}, false, nil
	}
	var rec persistedKeyMaterial
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(segmentKey(segmentIndex))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return KeyMaterial{}, false, err
	}
	if rec.KeyID == "" {
		return KeyMaterial{}, false, nil
	}
	var km KeyMaterial
	km.KeyID = rec.KeyID
	copy(km.KeyByte[:], rec.KeyByte)
	copy(km.IV[:], rec.IV)
	return km, true, nil
}

func segmentKey(segmentIndex int) []byte {
	buf := make([]byte, 8+len("rotation:"))
	copy(buf, "rotation:")
	binary.BigEndian.PutUint64(buf[len("rotation:"):], uint64(segmentIndex))
	return buf
}

func issueKeyMaterial() (KeyMaterial, error) {
	var km KeyMaterial
	if _, err := rand.Read(km.KeyByte[:]); err != nil {
		return km, err
	}
	if _, err := rand.Read(km.IV[:]); err != nil {
		return km, err
	}
	km.KeyID = uuid.NewString()
	return km, nil
}
