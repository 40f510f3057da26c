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

// Command typed-merge is a small demonstration/integration-test harness
// for the schema-aware merge, diff and field-ownership core: it exercises
// typed.Compare, merge.Updater and the managedfields wire codec end to
// end against schema and document files on disk.
package main

import (
	"os"

	"k8s.io/klog/v2"

	"sigs.k8s.io/typed-merge/cmd/typed-merge/app"
)

func main() {
	defer klog.Flush()
	if err := app.NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
