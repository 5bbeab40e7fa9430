//go:build linux

package paste

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const settleDelay = 2 * time.Second

func setModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}
