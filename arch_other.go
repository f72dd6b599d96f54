//go:build !linux

package x86levels

import "runtime"

// machine maps GOARCH to the names uname reports on Linux.
func machine() (string, error) {
	switch arch := runtime.GOARCH; arch {
	case "amd64":
		return "x86_64", nil
	case "arm64":
		return "aarch64", nil
	case "386":
		return "i686", nil
	default:
		return arch, nil
	}
}
