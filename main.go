// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/dirwatch/dirwatch/cmd/dirwatch"

func main() {
	cmd.Execute()
}
