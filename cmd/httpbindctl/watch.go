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

package main

import (
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/declarative-http/pkg/httpbind"
	"github.com/tombee/declarative-http/pkg/httpbind/capability/yamlcontract"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <contract.yaml>",
		Short: "Watch a YAML contract file and print its bound configKeys on every change",
		Long: `Watches path for writes and reports every configKey the reloaded
document binds, until interrupted with Ctrl-C. Useful for iterating on a
contract document without restarting anything that loads it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0])
		},
	}
}

func runWatch(cmd *cobra.Command, path string) error {
	contract := httpbind.NewContract()
	types := yamlcontract.TypeRegistry{"Response": rawResponseType}

	w, err := yamlcontract.Watch(path, contract, types, func(doc *yamlcontract.Document, metas map[string]*httpbind.MethodMetadata, loadErr error) {
		if loadErr != nil {
			cmd.PrintErrf("reload failed: %v\n", loadErr)
			return
		}
		keys := make([]string, 0, len(metas))
		for k := range metas {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Printf("%s: %d operation(s)\n", doc.Name, len(keys))
		for _, k := range keys {
			cmd.Printf("  - %s\n", k)
		}
	})
	if err != nil {
		return &exitError{code: exitIOFailure, message: "starting watcher", cause: err}
	}
	defer w.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	cmd.Println("stopping")
	return nil
}
