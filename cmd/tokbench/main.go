// cmd/tokbench/main.go
package main

import (
	tokbench "github.com/mwiater/tokbench/internal/commands"
)

// Set by the linker: -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = tokbench.SetVersionInfo
	executeCmd     = tokbench.Execute
)

// main starts the tokbench CLI by delegating to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
