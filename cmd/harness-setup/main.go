// Command harness-setup prepares a machine for running the UI test suite:
// it downloads the Playwright driver plus browser binaries for the selected
// family and creates the harness output directories.
package main

import (
	"flag"
	"fmt"
	"os"

	"ae_automation/session"
)

func main() {
	browser := flag.String("browser", session.DefaultBrowser, "Browser family to install: chrome, firefox, edge")
	flag.Parse()

	if err := session.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare directories: %v\n", err)
		os.Exit(1)
	}

	if err := session.InstallBrowsers(*browser); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to install browsers: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Installed %s and prepared output directories\n", *browser)
}
