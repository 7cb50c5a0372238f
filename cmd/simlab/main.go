// cmd/simlab/main.go
package main

import (
	simlab "github.com/mwiater/simlab/internal/commands"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = simlab.SetVersionInfo
	executeCmd     = simlab.Execute
)

// main injects the build information and hands control to the cobra root
// command defined in the commands package.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
