// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package keystore

import (
	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/platform/net"
	"github.com/ManuGH/hlsforge/internal/validate"
)

// FairPlayKeyFormat is the KEYFORMAT value Apple's FairPlay streaming key
// delivery protocol uses (§4.6).
const FairPlayKeyFormat = "com.apple.streamingkeydelivery"

// FairPlayLiveConfig configures the master-playlist FairPlay session key
// entry (§4.6).
type FairPlayLiveConfig struct {
	KeyServerURI string
}

// Validate rejects a KeyServerURI that isn't a direct, credential-free
// http(s) URL — a malformed or attacker-controlled URI here would be
// published into every client's master playlist.
func (c FairPlayLiveConfig) Validate() error {
	v := validate.New()
	if _, ok := net.ParseDirectHTTPURL(c.KeyServerURI); !ok {
		v.AddError("KeyServerURI", "must be a direct http(s) URL with no embedded credentials or fragment", c.KeyServerURI)
	}
	return v.Err()
}

// SessionKeyTag builds the #EXT-X-SESSION-KEY entry the master playlist
// emits once when FairPlay delivery is enabled:
// METHOD=SAMPLE-AES-CTR,KEYFORMAT="com.apple.streamingkeydelivery",
// KEYFORMATVERSIONS="1",URI="<keyserver>".
func (c FairPlayLiveConfig) SessionKeyTag() model.EncryptionKey {
	return model.EncryptionKey{
		Method:            model.MethodSampleAESCTR,
		URI:               c.KeyServerURI,
		KeyFormat:         FairPlayKeyFormat,
		KeyFormatVersions: "1",
	}
}
