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
	"os"
	"strings"

	yamlv2 "gopkg.in/yaml.v2"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/merge"
	"sigs.k8s.io/typed-merge/typed"
)

// Config is typed-merge's own small tool-local settings file, the kind
// of thing a cobra command reads with --config rather than taking
// every knob as a flag: which fields each API version never exposes
// (and so should never take part in conflict detection), keyed by
// version.
type Config struct {
	IgnoredFields map[string][]string `yaml:"ignoredFields"`
}

// loadConfig reads and parses a Config file. An empty path is not an
// error; it just means no fields are ignored.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yamlv2.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ignoreFilters builds the merge.IgnoreFilter set an Updater needs
// from the dotted field paths in cfg, one filter per version. Paths
// are plain dotted field names (e.g. "status.conditions"); this tool
// has no use for list keys or values in an ignore list.
func (cfg *Config) ignoreFilters() map[string]merge.IgnoreFilter {
	if len(cfg.IgnoredFields) == 0 {
		return nil
	}
	out := make(map[string]merge.IgnoreFilter, len(cfg.IgnoredFields))
	for version, dotted := range cfg.IgnoredFields {
		set := &fieldpath.Set{}
		for _, d := range dotted {
			var elems []fieldpath.PathElement
			for _, part := range strings.Split(d, ".") {
				if part == "" {
					continue
				}
				elems = append(elems, fieldpath.Field(part))
			}
			if len(elems) > 0 {
				set.Insert(fieldpath.NewPath(elems...))
			}
		}
		out[version] = fieldIgnoreFilter{ignored: set}
	}
	return out
}

// fieldIgnoreFilter drops a fixed set of fields regardless of which
// version it is asked about -- version only selects which set applies.
type fieldIgnoreFilter struct {
	ignored *fieldpath.Set
}

func (f fieldIgnoreFilter) Strip(tv *typed.TypedValue, version string) (*typed.TypedValue, error) {
	return tv.RemoveItems(f.ignored)
}
