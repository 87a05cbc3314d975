//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard  = 1
	keyEventFKeyUp = 0x0002

	vkControl = 0x11
	vkV       = 0x56
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   uint64
}

type windowsPaster struct{}

func newPaster() (Paster, error) {
	return &windowsPaster{}, nil
}

func (p *windowsPaster) Paste() error {
	inputs := []input{
		keyInput(vkControl, 0),
		keyInput(vkV, 0),
		keyInput(vkV, keyEventFKeyUp),
		keyInput(vkControl, keyEventFKeyUp),
	}

	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(unsafe.Sizeof(inputs[0])),
	)
	if int(n) != len(inputs) {
		// Ввод заблокирован другим процессом (UIPI) или рабочий стол недоступен
		return fmt.Errorf("SendInput sent %d of %d events: %w", n, len(inputs), err)
	}
	return nil
}

func keyInput(vk uint16, flags uint32) input {
	return input{
		inputType: inputKeyboard,
		ki: keyboardInput{
			wVk:     vk,
			dwFlags: flags,
		},
	}
}
