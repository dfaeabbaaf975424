package app

import (
	"fmt"
	"io"
)

// Version is the application version, overridden at build time via
// -ldflags "-X github.com/styvesb/probsim/internal/app.Version=v1.2.3".
var Version = "dev"

// HasVersionFlag reports whether the arguments request the version banner.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the version banner.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "probsim %s\n", Version)
}
