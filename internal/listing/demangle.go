package listing

import (
	"sync"

	"github.com/ianlancetaylor/demangle"
)

var demangled sync.Map // mangled name -> demangled name

// Demangle returns the demangled form of a C++ or Rust symbol, or name
// unchanged. Results are cached; safe for concurrent use.
func Demangle(name string) string {
	if v, ok := demangled.Load(name); ok {
		return v.(string)
	}
	out := demangle.Filter(name, demangle.NoClones)
	demangled.Store(name, out)
	return out
}
