// Package player launches the OS's default handler for a finished
// macro-episode file, the same fire-and-forget "open" helper five82-spindle
// uses to pop a browser tab, retargeted here at a local video file instead
// of a URL.
package player

import "log/slog"

// Open attempts to launch path in the user's default media player. It
// returns immediately; failure is non-fatal and only logged at debug level,
// since a headless box with no player installed shouldn't fail the run that
// already produced the output file.
func Open(path string) {
	if !hasDisplay() {
		slog.Debug("player: skipping open, no display detected", "path", path)
		return
	}
	if err := open(path); err != nil {
		slog.Debug("player: could not open", "path", path, "error", err)
	}
}
