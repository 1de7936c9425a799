//go:build windows

package player

import "os/exec"

func open(path string) error {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
}

func hasDisplay() bool {
	// Windows Server Core still has a desktop (even if minimal).
	// The open command will simply fail silently if no player is available.
	return true
}
