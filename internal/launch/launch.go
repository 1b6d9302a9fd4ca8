package launch

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedPlatform is returned when no opener is known for the OS
var ErrUnsupportedPlatform = errors.New("no URL opener for this platform")

// Opener opens a URL in an external viewer
type Opener func(rawURL string) error

// URL opens rawURL with the platform's default handler
func URL(rawURL string) error {
	return open(runtime.GOOS, rawURL, runCommand)
}

func open(goos, rawURL string, run func(name string, args ...string) error) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: only http and https are allowed", rawURL)
	}

	name, args, err := command(goos, u.String())
	if err != nil {
		return err
	}
	return run(name, args...)
}

// command returns the opener invocation for goos
func command(goos, target string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, ErrUnsupportedPlatform
	}
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// The viewer outlives us; reap it in the background
	go cmd.Wait()
	return nil
}
