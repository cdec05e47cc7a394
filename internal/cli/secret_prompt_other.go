//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package cli

import "os"

func readSecretNoEcho(stdin *os.File) (string, error) {
	return readSecretLine(stdin)
}
