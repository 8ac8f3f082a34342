package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/tracker-tv/standards-sync/internal/cli"
)

var version = "dev"

//go:embed policies/organization.json
var organizationPolicy []byte

//go:embed all:templates
var embeddedTemplates embed.FS

func main() {
	templates, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded templates: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.Defaults{
		Policy:    organizationPolicy,
		Templates: templates,
		Version:   version,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, cli.ErrRepositoriesFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
