// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command httpbindctl loads a YAML contract document, builds a Dispatch
// against it, and drives Invoke from the command line - no Go interface
// type or adapter is involved, since every subcommand talks to Dispatch
// directly by configKey.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	root := newRootCommand()
	root.AddCommand(newCallCommand())
	root.AddCommand(newWizardCommand())
	root.AddCommand(newWatchCommand())
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		handleExitError(err)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "httpbindctl",
		Short: "Drive a declarative HTTP binding contract from the command line",
		Long: `httpbindctl loads a YAML contract describing one or more bound HTTP
operations and lets you invoke them, watch the file for live edits, or build
one interactively with "httpbindctl wizard".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// exitError carries a process exit code alongside a human-readable message,
// the same shape the reference tooling's ExitError used for its subcommands.
type exitError struct {
	code    int
	message string
	cause   error
}

func (e *exitError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *exitError) Unwrap() error { return e.cause }

const (
	exitUsage     = 2
	exitIOFailure = 3
	exitCallError = 4
)

func handleExitError(err error) {
	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err.Error())
	os.Exit(code)
}
