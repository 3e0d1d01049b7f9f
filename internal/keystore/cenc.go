// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package keystore

import (
	"encoding/base64"

	"github.com/google/uuid"

	"github.com/ManuGH/hlsforge/internal/bitio"
	"github.com/ManuGH/hlsforge/internal/hls/model"
)

// DRMSystem is the closed set of CENC multi-DRM systems this toolkit binds
// keys for (§4.6).
type DRMSystem int

const (
	DRMWidevine DRMSystem = iota
	DRMPlayReady
	DRMFairPlay
)

// systemUUID is the system ID each DRMSystem's PSSH box and
// KEYFORMAT="urn:uuid:<id>" attribute carries, per §4.6.
var systemUUID = map[DRMSystem]uuid.UUID{
	DRMWidevine:  uuid.MustParse("edef8ba9-79d6-4ace-a3c8-27dcd51d21ed"),
	DRMPlayReady: uuid.MustParse("9a04f079-9840-4286-ab92-e65be0885f95"),
	DRMFairPlay:  uuid.MustParse("94ce86fb-07ff-4f43-adb8-93d2fa968ca2"),
}

// SystemURN returns the urn:uuid:<system-id> string used as a
// #EXT-X-SESSION-KEY KEYFORMAT attribute.
func (s DRMSystem) SystemURN() string {
	return "urn:uuid:" + systemUUID[s].String()
}

// CENCConfig configures multi-DRM CENC session keys for a master playlist
// (§4.6): one system per entry in Systems, all protecting DefaultKeyID.
type CENCConfig struct {
	Systems      []DRMSystem
	DefaultKeyID [16]byte
}

// SessionKeyTags builds one #EXT-X-SESSION-KEY model entry per configured
// DRM system.
func (c CENCConfig) SessionKeyTags() []model.EncryptionKey {
	out := make([]model.EncryptionKey, 0, len(c.Systems))
	for _, sys := range c.Systems {
		out = append(out, model.EncryptionKey{
			Method:    model.MethodSampleAESCTR,
			KeyFormat: sys.SystemURN(),
			URI:       "data:text/plain;base64," + base64.StdEncoding.EncodeToString(c.DefaultKeyID[:]),
		})
	}
	return out
}

// BuildPSSH constructs an ISO-BMFF 'pssh' box (version 1) carrying sys's
// system ID and a single key ID, per ISO/IEC 23001-7. Version 1 carries an
// explicit KID list, which is what lets a CENC-aware player map the PSSH
// box back to the EXT-X-KEY/EXT-X-SESSION-KEY entry protecting the same
// key id without out-of-band signaling.
func BuildPSSH(sys DRMSystem, keyID [16]byte) []byte {
	sysID := systemUUID[sys]

	body := bitio.NewWriter()
	body.WriteUint8(1)               // version
	body.WriteUint24(0)               // flags
	body.WriteBytes(sysID[:])
	body.WriteUint32(1)               // KID_count
	body.WriteBytes(keyID[:])
	body.WriteUint32(0)               // DataSize: no opaque data, the KID list suffices

	box := bitio.NewWriter()
	box.WriteUint32(uint32(8 + body.Len()))
	box.WriteFourCC(bitio.FourCC{'p', 's', 's', 'h'})
	box.WriteBytes(body.Bytes())
	return box.Bytes()
}
