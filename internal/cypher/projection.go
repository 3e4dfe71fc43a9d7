package cypher

import "strings"

// projection accumulates the entries of a Cypher map projection.
type projection struct {
	entries []string
}

func (p *projection) property(name string) {
	p.entries = append(p.entries, "."+name)
}

func (p *projection) field(name, expr string) {
	p.entries = append(p.entries, name+": "+expr)
}

func (p *projection) empty() bool { return len(p.entries) == 0 }

func (p *projection) String() string { return strings.Join(p.entries, ", ") }

// project renders "binding {entries}", or the bare binding when nothing is selected.
func project(binding string, p *projection) string {
	if p.empty() {
		return binding
	}
	return binding + " {" + p.String() + "}"
}
