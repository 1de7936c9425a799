//go:build darwin

package player

import "os/exec"

func open(path string) error {
	return exec.Command("open", path).Start()
}

func hasDisplay() bool {
	// macOS headless environments are rare; let open fail naturally.
	return true
}
