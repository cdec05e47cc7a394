//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// readSecretNoEcho reads one line with terminal echo off. When stdin is not
// a terminal the line is read as is, so tokens can be piped in.
func readSecretNoEcho(stdin *os.File) (string, error) {
	fd := int(stdin.Fd())
	termios, err := unix.IoctlGetTermios(fd, termiosGetRequest)
	if err != nil {
		return readSecretLine(stdin)
	}

	original := *termios
	silent := original
	silent.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, termiosSetRequest, &silent); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, termiosSetRequest, &original)
	}()

	return readSecretLine(stdin)
}
