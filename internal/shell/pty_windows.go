// SPDX-License-Identifier: MPL-2.0

//go:build windows

package shell

import (
	"os"
	"os/exec"
)

func startPTY(*exec.Cmd) (*os.File, error) {
	return nil, errPTYUnsupported
}

func watchResize(_, _ *os.File) (stop func()) {
	return func() {}
}
