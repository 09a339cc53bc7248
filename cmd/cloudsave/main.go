// cloudsave - browse cloud drive shares and save them server-side
package main

import (
	"os"

	"cloudsave/internal/cli"
)

// Version information - overridden via LDFLAGS for release builds
var (
	Version   = "v0.1.0"
	BuildTime = "dev"
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
