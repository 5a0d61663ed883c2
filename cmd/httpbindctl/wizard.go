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
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/declarative-http/pkg/httpbind/capability/yamlcontract"
)

func newWizardCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Interactively build a YAML contract document",
		Long: `Launches a form-driven wizard that builds a YAML contract document -
the same shape httpbindctl call and httpbindctl watch load - one method at
a time, and writes it to --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd, out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "contract.yaml", "path to write the generated contract document")
	return cmd
}

func runWizard(cmd *cobra.Command, out string) error {
	doc := &yamlcontract.Document{}

	nameForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Contract name").
				Description("Used as the Dispatch's symbolic Target name").
				Value(&doc.Name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a name is required")
					}
					return nil
				}),
		),
	)
	if err := nameForm.Run(); err != nil {
		return &exitError{code: exitUsage, message: "wizard cancelled", cause: err}
	}

	for {
		method, err := promptMethod(len(doc.Methods))
		if err != nil {
			return &exitError{code: exitUsage, message: "wizard cancelled", cause: err}
		}
		doc.Methods = append(doc.Methods, *method)

		addAnother := false
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add another method?").
					Value(&addAnother),
			),
		)
		if err := confirmForm.Run(); err != nil {
			return &exitError{code: exitUsage, message: "wizard cancelled", cause: err}
		}
		if !addAnother {
			break
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return &exitError{code: exitIOFailure, message: "encoding contract document", cause: err}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return &exitError{code: exitIOFailure, message: fmt.Sprintf("writing %s", out), cause: err}
	}

	cmd.Printf("wrote %s (%d method(s))\n", out, len(doc.Methods))
	return nil
}

func promptMethod(index int) (*yamlcontract.Method, error) {
	m := &yamlcontract.Method{CollectionFormat: "csv"}
	var verb, rawPath, rawReturnType string

	base := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("configKey").
				Description(fmt.Sprintf("e.g. Contract#Op%d(string)", index)).
				Value(&m.ConfigKey).
				Validate(requiredField("configKey")),
			huh.NewSelect[string]().
				Title("HTTP verb").
				Options(
					huh.NewOption("GET", "GET"),
					huh.NewOption("POST", "POST"),
					huh.NewOption("PUT", "PUT"),
					huh.NewOption("PATCH", "PATCH"),
					huh.NewOption("DELETE", "DELETE"),
				).
				Value(&verb),
			huh.NewInput().
				Title("Path template").
				Description("Relative to --base-url, e.g. /users/{id}").
				Value(&rawPath).
				Validate(requiredField("path")),
			huh.NewInput().
				Title("return_type").
				Description(`Leave empty or "Response" for a raw passthrough`).
				Value(&rawReturnType),
		),
	)
	if err := base.Run(); err != nil {
		return nil, err
	}
	m.RequestLine = strings.TrimSpace(verb + " " + rawPath)
	m.ReturnType = rawReturnType

	for {
		addParam := false
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Bind a parameter to this method?").
					Value(&addParam),
			),
		)
		if err := confirmForm.Run(); err != nil {
			return nil, err
		}
		if !addParam {
			break
		}

		p, err := promptParam(len(m.Params))
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, *p)
	}

	return m, nil
}

func promptParam(index int) (*yamlcontract.Param, error) {
	p := &yamlcontract.Param{Index: index}
	var kind string
	var indexStr string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Argument index").
				Description("Positional index among httpbindctl call's trailing args").
				Value(&indexStr).
				Validate(func(s string) error {
					_, err := strconv.Atoi(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Binding kind").
				Options(
					huh.NewOption("path/query placeholder", "param"),
					huh.NewOption("header", "header"),
					huh.NewOption("body", "body"),
					huh.NewOption("absolute URL override", "url"),
					huh.NewOption("header map", "headers"),
					huh.NewOption("query map", "queries"),
				).
				Value(&kind),
			huh.NewInput().
				Title("Placeholder/header name").
				Description("Unused for body/url/headers/queries").
				Value(&p.Name),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	idx, err := strconv.Atoi(indexStr)
	if err != nil {
		return nil, fmt.Errorf("invalid index %q: %w", indexStr, err)
	}
	p.Index = idx
	p.Kind = kind
	return p, nil
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
