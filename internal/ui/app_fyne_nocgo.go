//go:build fyne && !cgo

package ui

import (
	"fmt"

	"depthclock/internal/config"
)

// Run reports ErrNoUI: the window needs OpenGL through cgo.
func Run(_ config.AppConfig) error {
	return fmt.Errorf("%w: the Fyne window needs cgo, run CGO_ENABLED=1 go run -tags fyne ./cmd/depthclock ui", ErrNoUI)
}
