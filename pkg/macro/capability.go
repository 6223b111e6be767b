package macro

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
)

// LinkOpener hands a URL to something that can show it.
type LinkOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// LinkOpenerFunc adapts a function to LinkOpener.
type LinkOpenerFunc func(ctx context.Context, url string) error

func (f LinkOpenerFunc) OpenURL(ctx context.Context, url string) error { return f(ctx, url) }

// SystemOpener launches URLs with the platform's default handler.
type SystemOpener struct {
	goos string
}

// NewSystemOpener returns an opener for the running OS.
func NewSystemOpener() SystemOpener {
	return SystemOpener{goos: runtime.GOOS}
}

// Command returns the command line the opener would run for url.
func (o SystemOpener) Command(url string) []string {
	switch o.goos {
	case "darwin":
		return []string{"open", url}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}
	default:
		return []string{"xdg-open", url}
	}
}

// OpenURL starts the handler and does not wait for it to exit. A cancelled
// ctx stops the launch but never a handler that already started.
func (o SystemOpener) OpenURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	argv := o.Command(url)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// NarratedLinks pretends to open links. It only logs.
type NarratedLinks struct {
	Log zerolog.Logger
}

func (n NarratedLinks) OpenURL(_ context.Context, url string) error {
	n.Log.Debug().Str("url", url).Msg("link opening disabled, narrating only")
	return nil
}

// KeySender delivers a keystroke description to the focused window.
type KeySender interface {
	SendKeys(ctx context.Context, keys string) error
}

// NarratedKeys is the only KeySender: keystrokes are described, never
// injected.
type NarratedKeys struct {
	Log zerolog.Logger
}

func (n NarratedKeys) SendKeys(_ context.Context, keys string) error {
	n.Log.Debug().Str("keys", keys).Msg("simulated key press")
	return nil
}
