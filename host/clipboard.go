package host

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"github.com/lixenwraith/ascii-overlay/surface"
)

var ErrNoClipboard = errors.New("host: system clipboard unavailable")

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// Yank copies the text form of surf to the system clipboard
func Yank(surf surface.Surface) error {
	s, ok := surfaceText(surf)
	if !ok {
		return ErrNoText
	}
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("%w: %v", ErrNoClipboard, clipboardErr)
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	return nil
}
