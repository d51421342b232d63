package worker

import "strings"

// Capabilities describes how a worker's generator and evaluator are built.
type Capabilities struct {
	Generator string `json:"generator"`
	Evaluator string `json:"evaluator"`
	Cache     bool   `json:"cache"`
	Guard     bool   `json:"guard"`
}

// String renders e.g. "mock/wasm+guard+cache".
func (c Capabilities) String() string {
	var b strings.Builder
	b.WriteString(c.Generator)
	b.WriteString("/")
	b.WriteString(c.Evaluator)
	if c.Guard {
		b.WriteString("+guard")
	}
	if c.Cache {
		b.WriteString("+cache")
	}
	return b.String()
}
