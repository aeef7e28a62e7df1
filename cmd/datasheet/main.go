// cmd/datasheet/main.go
package main

import (
	cmd "github.com/Tiomehsh/datasheet-ai-analyzer/internal/commands"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the datasheet CLI by delegating to the cobra root command.
func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
