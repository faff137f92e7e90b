package urlutil

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// Open hands u to the platform's default browser.
func Open(u string) error {
	u = strings.TrimSpace(u)
	if u == "" {
		return errors.New("empty url")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", u).Start()
	default:
		return exec.Command("xdg-open", u).Start()
	}
}
