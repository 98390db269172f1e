package dprtune

import "strings"

// Decl is one CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// MergeDecls merges declaration lists with last-writer-wins semantics per
// property, preserving first-seen property order.
func MergeDecls(lists ...[]Decl) []Decl {
	index := make(map[string]int)
	var out []Decl
	for _, list := range lists {
		for _, d := range list {
			if i, ok := index[d.Property]; ok {
				out[i].Value = d.Value
				continue
			}
			index[d.Property] = len(out)
			out = append(out, d)
		}
	}
	return out
}

// rule is a selector with its declarations.
type rule struct {
	selector string
	decls    []Decl
}

func renderRules(rules []rule) string {
	var b strings.Builder
	for _, r := range rules {
		b.WriteString(r.selector)
		b.WriteString(" {\n")
		for _, d := range r.decls {
			b.WriteString("  ")
			b.WriteString(d.Property)
			b.WriteString(": ")
			b.WriteString(d.Value)
			b.WriteString(";\n")
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// Stylesheet returns the override CSS for a mode. marker is the global
// scrolling attribute set on the document element; container the structural
// selector of the scrolled grid. ModeOff yields an empty string.
func Stylesheet(m Mode, marker, container string) string {
	if m == ModeOff {
		return ""
	}

	suppress := []Decl{
		{"transition", "none !important"},
	}

	if m == ModeLight {
		return renderRules([]rule{
			{
				selector: "html[" + marker + "] " + container + ", html[" + marker + "] " + container + " *",
				decls:    suppress,
			},
		})
	}

	// Aggressive: the light suppression plus animation kill, with the
	// container promoted to its own compositing layer.
	aggressive := MergeDecls(suppress, []Decl{
		{"transition", "none !important"},
		{"animation", "none !important"},
	})

	return renderRules([]rule{
		{
			selector: "html[" + marker + "] " + container + ", html[" + marker + "] " + container + " *",
			decls:    aggressive,
		},
		{
			selector: container,
			decls: []Decl{
				{"will-change", "transform"},
				{"transform", "translateZ(0)"},
				{"backface-visibility", "hidden"},
			},
		},
	})
}
