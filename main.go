// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/charmpack/charmpack/cmd/charmpack"

func main() {
	cmd.Execute()
}
