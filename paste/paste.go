// Package paste sends the platform paste shortcut to the focused window.
package paste

import (
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// Init creates the virtual keyboard. Call it early: on linux the new input
// device is not seen by the compositor for a moment.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
		if kbErr == nil && settleDelay > 0 {
			time.Sleep(settleDelay)
		}
	})
	return kbErr
}

func Send() error {
	if err := Init(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	setModifier(&kb)
	return kb.Launching()
}
