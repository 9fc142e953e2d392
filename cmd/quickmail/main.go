/*
Package main provides the CLI entry point for Quick Mail.
*/
package main

import (
	"os"

	"github.com/saberonline/quick-mail-wp-plugin/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
