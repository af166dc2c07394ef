package printer

import (
	"strconv"

	"github.com/sqlxform/sqlxform/ast"
)

// paramCollector assigns parameter placeholders in left-to-right
// emission order and gathers the values a caller can later bind.
// Positional/anonymous styles collect an ordered slice; named style
// collects a name-keyed map instead.
type paramCollector struct {
	style    ParameterStyle
	list     []string
	named    map[string]any
	bindings *ast.Bindings
}

func newParamCollector(style ParameterStyle, bindings *ast.Bindings) *paramCollector {
	pc := &paramCollector{style: style, bindings: bindings}
	if style == ParameterNamed {
		pc.named = make(map[string]any)
	}
	return pc
}

// observeAnonymous records a placeholder at the point it is emitted and
// returns its 1-based position in emission order; the printer writes the
// placeholder text itself, so ordering stays tied to where the
// placeholder actually lands in the document.
func (pc *paramCollector) observeAnonymous() int {
	idx := len(pc.list) + 1
	pc.list = append(pc.list, strconv.Itoa(idx))
	return idx
}

func (pc *paramCollector) observeIndexed(sourceIndex int) int {
	idx := len(pc.list) + 1
	pc.list = append(pc.list, strconv.Itoa(idx))
	return idx
}

// observeNamed records that a named placeholder was emitted, resolving
// its bound value from the statement's bindings (attached by a
// transformer like SqlParamInjector) when one was supplied; a
// placeholder parsed straight from source SQL text carries no bound
// value, so it maps to nil instead.
func (pc *paramCollector) observeNamed(name string) {
	if pc.bindings != nil {
		if v, ok := pc.bindings.Get(name); ok {
			pc.named[name] = v
			return
		}
	}
	if _, exists := pc.named[name]; !exists {
		pc.named[name] = nil
	}
}

// Params is what Format returns for the bind parameters it encountered:
// Ordered is populated for ParameterAnonymous/ParameterIndexed, Named
// for ParameterNamed. A Named value is nil when no bound value was
// available (the placeholder came from source text rather than an
// injector).
type Params struct {
	Ordered []string
	Named   map[string]any
}

func (pc *paramCollector) result() Params {
	if pc.style == ParameterNamed {
		return Params{Named: pc.named}
	}
	return Params{Ordered: pc.list}
}
