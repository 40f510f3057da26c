/*
Copyright 2019 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	yaml "sigs.k8s.io/yaml"

	"sigs.k8s.io/typed-merge/fieldpath"
)

// newDiffCommand returns "typed-merge diff <schema.yaml> <a.yaml>
// <b.yaml> --type <name> [--output json|yaml]": parses two documents
// against a schema type and prints the added/removed/modified field
// sets.
func newDiffCommand(out io.Writer) *cobra.Command {
	var typeName string
	format := outputJSON

	cmd := &cobra.Command{
		Use:   "diff <schema.yaml> <a.yaml> <b.yaml>",
		Short: "Compare two documents interpreted against a schema type",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeName == "" {
				return fmt.Errorf("--type is required")
			}
			a, err := loadTyped(args[0], args[1], typeName)
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[1], err)
			}
			b, err := loadTyped(args[0], args[2], typeName)
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[2], err)
			}
			cmp, err := a.Compare(b)
			if err != nil {
				return err
			}
			return printComparison(out, format, cmp.Added, cmp.Removed, cmp.Modified)
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "name of the schema type both documents are interpreted as")
	cmd.Flags().Var(&format, "output", `output format, "json" or "yaml"`)
	return cmd
}

func printComparison(out io.Writer, format outputFormat, added, removed, modified *fieldpath.Set) error {
	report := struct {
		Added    *fieldpath.Set `json:"added"`
		Removed  *fieldpath.Set `json:"removed"`
		Modified *fieldpath.Set `json:"modified"`
	}{Added: added, Removed: removed, Modified: modified}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if format == outputYAML {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
