//go:build windows

package paste

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const settleDelay time.Duration = 0

func setModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}
