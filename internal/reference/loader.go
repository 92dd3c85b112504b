package reference

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRegistry reads a reference-registry YAML file shaped as
// species -> reference name -> RawEntry (spec.md §6). A missing file yields
// an empty registry rather than an error, mirroring the teacher's
// policy.Load fallback-on-not-exist convention — an empty registry is a
// valid (if useless) starting point, and callers decide whether that's
// fatal for their run.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(map[string]map[string]RawEntry{}), nil
		}
		return nil, err
	}

	var raw map[string]map[string]RawEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]map[string]RawEntry{}
	}
	return New(raw), nil
}
