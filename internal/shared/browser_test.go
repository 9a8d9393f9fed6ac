package shared

import (
	"strings"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	const url = "https://accounts.google.com/o/oauth2/auth?state=x"

	for _, goos := range []string{"darwin", "linux", "windows"} {
		t.Run(goos, func(t *testing.T) {
			cmd, err := browserCommand(goos, url)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(strings.Join(cmd.Args, " "), url) {
				t.Errorf("expected url in args, got %v", cmd.Args)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		if _, err := browserCommand("plan9", url); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("OpenBrowser uses runtime", func(t *testing.T) {
		orig := getRuntime
		defer func() { getRuntime = orig }()
		getRuntime = func() string { return "plan9" }

		if err := OpenBrowser(url); err == nil {
			t.Error("expected error for unsupported runtime")
		}
	})
}
