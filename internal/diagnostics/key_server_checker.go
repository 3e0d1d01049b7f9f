// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/hlsforge/internal/platform/httpx"
)

// KeyServerChecker probes the FairPlay/CENC key server's reachability with
// a bounded-timeout HEAD request. A key server that is down doesn't stop
// the pipeline from producing segments, but it does mean newly joining
// players can't acquire content keys, so this reports Degraded rather than
// Unavailable.
type KeyServerChecker struct {
	URI    string
	Client *http.Client
}

// NewKeyServerChecker builds a checker using httpx's hardened client with
// a short timeout suited to a health-check path.
func NewKeyServerChecker(uri string) *KeyServerChecker {
	return &KeyServerChecker{URI: uri, Client: httpx.NewClient(2 * time.Second)}
}

func (c *KeyServerChecker) Check(ctx context.Context) SubsystemHealth {
	detail := KeyServerDetail{URI: c.URI}
	status := OK

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URI, nil)
	if err != nil {
		detail.ReachableErr = err.Error()
		status = Degraded
	} else {
		resp, err := c.Client.Do(req)
		if err != nil {
			detail.ReachableErr = err.Error()
			status = Degraded
		} else {
			_ = resp.Body.Close()
			if resp.StatusCode >= 500 {
				detail.ReachableErr = resp.Status
				status = Degraded
			}
		}
	}

	return SubsystemHealth{
		Subsystem:  SubsystemKeyServer,
		Status:     status,
		MeasuredAt: time.Now(),
		Detail:     detail,
	}
}
