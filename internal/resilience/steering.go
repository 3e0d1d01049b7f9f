// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/ManuGH/hlsforge/internal/cache"
)

// SteeringManifest is the content-steering manifest body (§4.7): a JSON
// object whose keys must appear in this exact order — VERSION, TTL,
// RELOAD-URI (omitted if empty), PATHWAY-PRIORITY.
type SteeringManifest struct {
	Version          int
	TTL              int
	ReloadURI        string
	PathwayPriority  []string
}

// Marshal serializes m to the exact key order the HLS content-steering
// spec requires. encoding/json does not let a struct control field order
// independent of declaration order when omitempty interacts with custom
// marshaling cleanly, so this builds the object by hand, writing each key
// and its json.Marshal-encoded value into a bytes.Buffer in order, instead
// of relying on struct tags.
func (m SteeringManifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(first bool, key string, value interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		enc, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.WriteByte('"')
		buf.WriteString(key)
		buf.WriteString(`":`)
		buf.Write(enc)
		return nil
	}

	if err := writeField(true, "VERSION", m.Version); err != nil {
		return nil, err
	}
	if err := writeField(false, "TTL", m.TTL); err != nil {
		return nil, err
	}
	if m.ReloadURI != "" {
		if err := writeField(false, "RELOAD-URI", m.ReloadURI); err != nil {
			return nil, err
		}
	}
	pathways := m.PathwayPriority
	if pathways == nil {
		pathways = []string{}
	}
	if err := writeField(false, "PATHWAY-PRIORITY", pathways); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ManifestCache memoizes marshaled steering manifests for exactly the
// duration the manifest itself advertises: its own TTL field. A pathway
// failover recomputes PATHWAY-PRIORITY on every request; this spares a
// steering server from re-marshaling identical bytes for every client
// polling within the same TTL window. Backed by cache.Cache so a
// multi-instance deployment can share state via cache.NewRedisCache
// instead of re-deriving priority independently per instance.
type ManifestCache struct {
	store cache.Cache
}

// NewManifestCache wraps store (an in-memory or Redis-backed cache.Cache)
// as a steering-manifest memoizer.
func NewManifestCache(store cache.Cache) *ManifestCache {
	return &ManifestCache{store: store}
}

// Get returns the marshaled manifest for key, building and caching it via
// build on a miss. The cache entry's TTL is the manifest's own TTL field,
// clamped to at least one second so a misconfigured TTL=0 manifest does
// not disable caching into a busy-loop of rebuilds.
func (c *ManifestCache) Get(key string, build func() (SteeringManifest, error)) ([]byte, error) {
	if cached, ok := c.store.Get(key); ok {
		if b, ok := cached.([]byte); ok {
			return b, nil
		}
	}

	m, err := build()
	if err != nil {
		return nil, err
	}
	b, err := m.Marshal()
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(m.TTL) * time.Second
	if ttl <= 0 {
		ttl = time.Second
	}
	c.store.Set(key, b, ttl)
	return b, nil
}

// Invalidate drops the cached manifest for key, forcing the next Get to
// rebuild — used when a pathway failover changes PATHWAY-PRIORITY before
// the TTL would naturally expire.
func (c *ManifestCache) Invalidate(key string) {
	c.store.Delete(key)
}
