package main

import (
	"os"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/cmd/sentryd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
