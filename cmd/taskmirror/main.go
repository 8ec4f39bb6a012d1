// Package main is the single-binary entrypoint for taskmirror.
package main

import "github.com/taskmirror/taskmirror/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
