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

// Package app wires up the typed-merge command tree.
package app

import (
	"flag"
	"io"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/typed"
	"sigs.k8s.io/typed-merge/value"
)

// NewRootCommand builds the "typed-merge" command tree: diff, apply and
// fields, the three subcommands that exercise the core end to end.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typed-merge",
		Short: "Schema-aware structured merge, diff and field-ownership tracking",
		Long: `typed-merge is a demonstration harness for a library that merges,
diffs and tracks field ownership across tree-shaped documents the way a
server-side-apply field manager does, without a server attached to it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(newDiffCommand(out))
	cmd.AddCommand(newApplyCommand(out))
	cmd.AddCommand(newFieldsCommand(out))
	return cmd
}

// loadTyped reads schemaPath and docPath from disk and interprets the
// document against typeName, the way every subcommand's first two
// positional arguments do.
func loadTyped(schemaPath, docPath, typeName string) (*typed.TypedValue, error) {
	s, err := loadSchema(schemaPath)
	if err != nil {
		return nil, err
	}
	v, err := loadValue(docPath)
	if err != nil {
		return nil, err
	}
	return typed.AsTyped(v, s, typeName)
}

func loadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.FromYAML(data)
}

func loadValue(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return value.FromYAML(data)
}
