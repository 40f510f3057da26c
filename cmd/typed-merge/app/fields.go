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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/managedfields"
)

// newFieldsCommand returns "typed-merge fields <managed-fields.json>":
// parses a managed-fields wire file and prints per-manager owned field
// sets: a "name (version):" header line for each entry, followed by one
// indented line per owned path, sorted for stable output.
func newFieldsCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields <managed-fields.json>",
		Short: "List the field sets each manager owns, from a managed-fields wire file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			records, err := managedfields.DecodeRecords(data)
			if err != nil {
				return err
			}
			reg, err := managedfields.ToRegistry(records)
			if err != nil {
				return err
			}
			for _, key := range reg.SortedKeys() {
				vs, _ := reg.Get(key)
				fmt.Fprintf(out, "%s (%s):\n", key.Name, vs.Version)
				vs.Set.Iterate(func(p fieldpath.Path) {
					fmt.Fprintf(out, "  %s\n", fieldpath.Serialize(p))
				})
			}
			return nil
		},
	}
	return cmd
}
