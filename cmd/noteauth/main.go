// Command noteauth signs a user in with an external identity, a TOTP code and
// device approval, and manages the devices allowed to open their notes.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
