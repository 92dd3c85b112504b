package sampletable

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a sample table YAML file (a flat list of Row entries) and
// returns it as a deterministically-ordered Table. A missing file yields an
// empty table, mirroring reference.LoadRegistry's not-exist tolerance.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return Table{}, err
	}

	var rows []Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return Table{}, err
	}
	return New(rows), nil
}
