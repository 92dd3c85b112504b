// Package pathtmpl renders the artifact path templates of spec.md §6 through
// a single typed entry point, so every path in the plan is produced the same
// way instead of via ad hoc string concatenation scattered through the
// builder.
package pathtmpl

import "fmt"

// Fields is the full set of substitutable tokens a template may reference.
// A given named template only consumes the subset it declares; Render
// rejects a call missing a field its template needs.
type Fields struct {
	Root     string // per-sample data root
	LogDir   string // per-sample log directory
	RefName  string
	Mapper   string
	LinkName string
}

// Name identifies one of the fixed templates from spec.md §6.
type Name string

const (
	LinkedBAM       Name = "linked_bam"
	MappedBAM       Name = "mapped_bam"
	UnmappedBAM     Name = "unmapped_bam"
	MapLog          Name = "map_log"
	SpliceHeaderLog Name = "splice_bam_header_log"
)

// spec describes, per template, which Fields are required to render it.
type spec struct {
	required []string
	render   func(Fields) string
}

var specs = map[Name]spec{
	LinkedBAM: {
		required: []string{"Root", "LinkName"},
		render: func(f Fields) string {
			return fmt.Sprintf("%s/%s.bam", f.Root, f.LinkName)
		},
	},
	MappedBAM: {
		required: []string{"Root", "RefName", "Mapper"},
		render: func(f Fields) string {
			return fmt.Sprintf("%s/%s.%s.bam", f.Root, f.RefName, f.Mapper)
		},
	},
	UnmappedBAM: {
		required: []string{"Root", "RefName", "Mapper"},
		render: func(f Fields) string {
			return fmt.Sprintf("%s/not_%s.%s.bam", f.Root, f.RefName, f.Mapper)
		},
	},
	MapLog: {
		required: []string{"LogDir", "RefName", "Mapper"},
		render: func(f Fields) string {
			return fmt.Sprintf("%s/%s.%s.log", f.LogDir, f.RefName, f.Mapper)
		},
	},
	SpliceHeaderLog: {
		required: []string{"LogDir", "RefName", "Mapper"},
		render: func(f Fields) string {
			return fmt.Sprintf("%s/%s.%s.splice_bam_header.log", f.LogDir, f.RefName, f.Mapper)
		},
	},
}

// ErrMissingField is returned when Render is asked to expand a template
// without one of the fields it requires.
var ErrMissingField = fmt.Errorf("pathtmpl: missing required field")

// ErrUnknownTemplate is returned for a Name outside the fixed set above.
var ErrUnknownTemplate = fmt.Errorf("pathtmpl: unknown template")

// Render expands the named template against fields, validating that every
// field the template requires is set.
func Render(name Name, fields Fields) (string, error) {
	s, ok := specs[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	for _, field := range s.required {
		if !fieldSet(fields, field) {
			return "", fmt.Errorf("%w: template %q needs %s", ErrMissingField, name, field)
		}
	}
	return s.render(fields), nil
}

func fieldSet(f Fields, name string) bool {
	switch name {
	case "Root":
		return f.Root != ""
	case "LogDir":
		return f.LogDir != ""
	case "RefName":
		return f.RefName != ""
	case "Mapper":
		return f.Mapper != ""
	case "LinkName":
		return f.LinkName != ""
	default:
		return false
	}
}
