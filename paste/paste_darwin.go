//go:build darwin

package paste

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const settleDelay time.Duration = 0

func setModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true) // Cmd+V on macOS
}
