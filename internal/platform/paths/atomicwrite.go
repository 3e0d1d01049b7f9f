// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"fmt"

	"github.com/google/renameio/v2"
)

// WritePlaylistAtomically writes data to path via a temp-file-plus-fsync-
// plus-rename sequence, so a concurrent reader (an HLS client polling the
// playlist) never observes a partially written file and a crash between
// write and rename never leaves a corrupt playlist in place. Callers
// regenerating a media or master playlist on every segment boundary should
// use this rather than a plain os.WriteFile.
func WritePlaylistAtomically(path string, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending playlist file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write playlist data: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace playlist file: %w", err)
	}

	return nil
}
