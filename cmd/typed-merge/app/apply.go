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
	yaml "sigs.k8s.io/yaml"

	"sigs.k8s.io/typed-merge/managedfields"
	"sigs.k8s.io/typed-merge/merge"
)

// newApplyCommand returns "typed-merge apply <schema.yaml> <live.yaml>
// <config.yaml> --manager NAME [--version v1] [--managed-fields
// path] [--force]": runs merge.Updater.Apply, prints the resulting
// object and writes the updated managed-fields block to the
// --managed-fields file (discarding it when that flag is empty), or
// prints the Conflicts rendering from spec.md §7 with a non-zero exit
// code.
func newApplyCommand(out io.Writer) *cobra.Command {
	var typeName, manager, version, managedFieldsPath, configPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "apply <schema.yaml> <live.yaml> <config.yaml>",
		Short: "Server-side-apply config into live, tracking ownership by manager",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeName == "" {
				return fmt.Errorf("--type is required")
			}
			if manager == "" {
				return fmt.Errorf("--manager is required")
			}
			if version == "" {
				version = "v1"
			}

			live, err := loadTyped(args[0], args[1], typeName)
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[1], err)
			}
			config, err := loadTyped(args[0], args[2], typeName)
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[2], err)
			}
			managers, err := loadManagers(managedFieldsPath)
			if err != nil {
				return fmt.Errorf("loading managed fields: %w", err)
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			u := &merge.Updater{IgnoreFilters: cfg.ignoreFilters()}
			result, updated, err := u.Apply(live, config, version, managers, manager, force)
			if err != nil {
				if conflicts, ok := err.(*merge.ConflictsError); ok {
					fmt.Fprintln(cmd.ErrOrStderr(), conflicts.Error())
					return fmt.Errorf("apply rejected: %d conflict(s)", len(conflicts.Conflicts))
				}
				return err
			}

			data, err := yaml.Marshal(result.AsValue().Unstructured())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(out, string(data)); err != nil {
				return err
			}
			return saveManagers(managedFieldsPath, updated)
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "name of the schema type the documents are interpreted as")
	cmd.Flags().StringVar(&manager, "manager", "", "name of the applying manager")
	cmd.Flags().StringVar(&version, "version", "v1", "API version the apply is made at")
	cmd.Flags().StringVar(&managedFieldsPath, "managed-fields", "", "path to the managed-fields wire file (read and rewritten); empty starts from an empty registry and discards the result")
	cmd.Flags().BoolVar(&force, "force", false, "take ownership of conflicting fields instead of failing")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a typed-merge config file listing fields to ignore per version")
	return cmd
}

func loadManagers(path string) (*managedfields.Registry, error) {
	if path == "" {
		return managedfields.NewRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return managedfields.NewRegistry(), nil
	}
	if err != nil {
		return nil, err
	}
	records, err := managedfields.DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	return managedfields.ToRegistry(records)
}

func saveManagers(path string, reg *managedfields.Registry) error {
	if path == "" {
		return nil
	}
	records := managedfields.FromRegistry(reg)
	data, err := managedfields.EncodeRecords(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
