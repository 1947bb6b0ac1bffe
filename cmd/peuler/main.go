package main

import (
	"context"
	"os"

	"github.com/agbru/peuler/internal/app"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return
	}

	application := app.New(os.Args, os.Stderr)
	exitCode := application.Run(context.Background(), os.Stdout)
	os.Exit(exitCode)
}
