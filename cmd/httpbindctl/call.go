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
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/tombee/declarative-http/pkg/httpbind"
	"github.com/tombee/declarative-http/pkg/httpbind/capability/ratelimit"
	"github.com/tombee/declarative-http/pkg/httpbind/capability/yamlcontract"
	"github.com/tombee/declarative-http/pkg/httpclient"
)

// rawResponseType registers under the "Response" name in every Dispatch
// this command builds, so a YAML method with return_type: Response skips
// decoding entirely and Invoke hands back the raw *httpbind.Response - see
// ResponseHandler's responseType short-circuit.
var rawResponseType = reflect.TypeOf((*httpbind.Response)(nil))

func newCallCommand() *cobra.Command {
	var (
		baseURL    string
		rps        float64
		confirmAll bool
	)

	cmd := &cobra.Command{
		Use:   "call <contract.yaml> <configKey> [args...]",
		Short: "Invoke one bound operation from a YAML contract",
		Long: `Loads a YAML contract document, builds a Dispatch against it with the
default networking Transport, and invokes configKey with args bound
positionally to the method's declared parameter indexes.

A method whose return_type is "Response" (or left unset) prints the raw
status, headers, and body instead of attempting to decode anything.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], args[1], args[2:], baseURL, rps, confirmAll)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL for the target (required)")
	cmd.Flags().Float64Var(&rps, "rate-limit", 0, "cap outgoing calls to this many requests/second (0 disables)")
	cmd.Flags().BoolVar(&confirmAll, "yes", false, "skip the confirmation prompt before non-GET/HEAD calls")

	return cmd
}

func runCall(cmd *cobra.Command, path, configKey string, rawArgs []string, baseURL string, rps float64, confirmAll bool) error {
	if baseURL == "" {
		return &exitError{code: exitUsage, message: "--base-url is required"}
	}

	contract := httpbind.NewContract()
	types := yamlcontract.TypeRegistry{"Response": rawResponseType}
	doc, metas, err := yamlcontract.Load(path, contract, types)
	if err != nil {
		return &exitError{code: exitIOFailure, message: "loading contract", cause: err}
	}

	md, ok := metas[configKey]
	if !ok {
		return &exitError{code: exitUsage, message: fmt.Sprintf("contract %q has no operation %q", doc.Name, configKey)}
	}
	// No (or an unregistered) return_type prints the raw response too.
	if md.ReturnType == nil {
		md.ReturnType = rawResponseType
	}

	if md.Template.Method != "GET" && md.Template.Method != "HEAD" && !confirmAll {
		proceed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("About to send a %s request via %q. Continue?", md.Template.Method, configKey),
			Default: false,
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return &exitError{code: exitUsage, message: "confirmation prompt failed", cause: err}
		}
		if !proceed {
			fmt.Fprintln(os.Stderr, "aborted")
			return nil
		}
	}

	transport, err := httpbind.NewNetHTTPTransport(httpclient.DefaultConfig())
	if err != nil {
		return &exitError{code: exitIOFailure, message: "building transport", cause: err}
	}

	builder := httpbind.NewBuilder().
		WithTransport(transport).
		WithRetryer(httpbind.NewRetryer(3, 200*time.Millisecond, 5*time.Second))
	if rps > 0 {
		builder = builder.WithCapability(ratelimit.Capability(rate.NewLimiter(rate.Limit(rps), 1)))
	}

	dispatch, err := builder.TargetFromMetadata(metas, doc.Name, baseURL, nil)
	if err != nil {
		return &exitError{code: exitUsage, message: "building dispatch", cause: err}
	}

	callArgs := make([]any, len(rawArgs))
	for i, a := range rawArgs {
		callArgs[i] = a
	}

	result, err := dispatch.Invoke(cmd.Context(), configKey, callArgs...)
	if err != nil {
		return &exitError{code: exitCallError, message: fmt.Sprintf("invoking %s", configKey), cause: err}
	}

	printResult(cmd, md, result)
	return nil
}

func printResult(cmd *cobra.Command, md *httpbind.MethodMetadata, result any) {
	if resp, ok := result.(*httpbind.Response); ok {
		cmd.Printf("%s\n", resp.Status)
		for name, values := range resp.Header {
			for _, v := range values {
				cmd.Printf("%s: %s\n", name, v)
			}
		}
		cmd.Println()
		cmd.Println(string(resp.Body))
		return
	}
	if result == nil {
		cmd.Println("(no content)")
		return
	}
	cmd.Printf("%v\n", result)
}
