//go:build !fyne

package ui

import (
	"errors"
	"strings"
	"testing"

	"depthclock/internal/config"
)

func TestHeadlessRunReportsNoUI(t *testing.T) {
	err := Run(config.Defaults())
	if !errors.Is(err, ErrNoUI) {
		t.Fatalf("Run() = %v, want ErrNoUI", err)
	}
	if !strings.Contains(err.Error(), "-tags fyne") {
		t.Fatalf("error does not say how to build the window: %q", err)
	}
}
