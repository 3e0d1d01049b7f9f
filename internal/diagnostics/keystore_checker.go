// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"time"

	"github.com/ManuGH/hlsforge/internal/keystore"
)

// KeystoreChecker reports whether a key manager currently holds an issued
// key. A live pipeline with encryption configured but no current key is
// degraded: segments will be emitted unencrypted until the next rotation.
type KeystoreChecker struct {
	Manager *keystore.Manager
}

func (c *KeystoreChecker) Check(ctx context.Context) SubsystemHealth {
	var detail KeystoreDetail
	status := OK

	if km := c.Manager.Current(); km != nil {
		detail.HasCurrentKey = true
		detail.CurrentKeyID = km.KeyID
	} else {
		status = Degraded
	}

	return SubsystemHealth{
		Subsystem:  SubsystemKeystore,
		Status:     status,
		MeasuredAt: time.Now(),
		Detail:     detail,
	}
}
