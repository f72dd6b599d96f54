//go:build linux

package x86levels

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// machine returns the uname machine field (e.g., "x86_64").
func machine() (string, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uname.Machine[:]), nil
}
