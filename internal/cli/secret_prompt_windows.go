//go:build windows

package cli

import (
	"os"

	"golang.org/x/sys/windows"
)

func readSecretNoEcho(stdin *os.File) (string, error) {
	handle := windows.Handle(stdin.Fd())
	var original uint32
	if err := windows.GetConsoleMode(handle, &original); err != nil {
		return readSecretLine(stdin)
	}

	if err := windows.SetConsoleMode(handle, original&^windows.ENABLE_ECHO_INPUT); err != nil {
		return "", err
	}
	defer func() {
		_ = windows.SetConsoleMode(handle, original)
	}()

	return readSecretLine(stdin)
}
