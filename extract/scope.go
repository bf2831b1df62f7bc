package extract

import (
	"strings"

	"github.com/bindcraft/winmd-gen/cdecl"
)

// Scope is the set of source files a partition may extract declarations
// from. Paths are matched exactly or by path suffix, so relative
// traverse entries match the absolute locations the front-end reports.
type Scope struct {
	files []string
}

// NewScope builds a traversal scope from the partition's traverse list.
func NewScope(files []string) *Scope {
	return &Scope{files: files}
}

// Contains reports whether loc falls under the scope.
func (s *Scope) Contains(loc cdecl.Location) bool {
	if loc.File == "" {
		return false
	}
	for _, f := range s.files {
		if loc.File == f || strings.HasSuffix(loc.File, "/"+f) {
			return true
		}
	}
	return false
}
