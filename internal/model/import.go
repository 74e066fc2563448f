package model

import "strings"

// Import is an import statement. Level is -1 for `import a, b`, 0 for an
// absolute from-import and the number of leading dots for a relative one.
type Import struct {
	Common
	Module string
	Names  []string
	Level  int
}

func (*Import) Kind() Kind { return KindImport }

// IsRelative reports whether the import is a relative from-import.
func (i *Import) IsRelative() bool { return i.Level > 0 }

func (i *Import) Code() string {
	names := strings.Join(i.Names, ", ")
	if i.Level < 0 {
		return "import " + names
	}
	return "from " + strings.Repeat(".", i.Level) + i.Module + " import " + names
}
