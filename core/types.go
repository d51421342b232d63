package core

import "strings"

const (
	// RootState marks the synthetic root of every search tree.
	RootState = "Start"
	// NeutralScore seeds the root and replaces scores that could not be produced.
	NeutralScore = 0.5
	// PathSeparator joins the steps of a reasoning chain.
	PathSeparator = "\n"
)

// SearchNode is one point in the reasoning tree. Fields are set at construction and
// must not be mutated afterwards; children share their parent by pointer.
type SearchNode struct {
	State       string
	Parent      *SearchNode
	Score       float64
	Depth       int
	PathHistory []string // ancestor states, root first, excluding State
}

// NewRoot returns the root node of a new tree.
func NewRoot(score float64) *SearchNode {
	return &SearchNode{State: RootState, Score: score}
}

// Child builds a node one level below n. The history slice is copied so that
// siblings never alias each other's backing arrays.
func (n *SearchNode) Child(state string, score float64) *SearchNode {
	history := make([]string, len(n.PathHistory), len(n.PathHistory)+1)
	copy(history, n.PathHistory)
	history = append(history, n.State)
	return &SearchNode{
		State:       state,
		Parent:      n,
		Score:       score,
		Depth:       n.Depth + 1,
		PathHistory: history,
	}
}

// IsRoot reports whether n has no parent.
func (n *SearchNode) IsRoot() bool { return n.Parent == nil }

// FullPath returns the reasoning chain from the root to n, inclusive.
func (n *SearchNode) FullPath() []string {
	path := make([]string, 0, len(n.PathHistory)+1)
	path = append(path, n.PathHistory...)
	return append(path, n.State)
}

// Chain returns FullPath joined by PathSeparator.
func (n *SearchNode) Chain() string {
	return strings.Join(n.FullPath(), PathSeparator)
}

// Extend returns the chain text of n followed by a candidate thought, which is what
// evaluators score before a child node is materialized.
func (n *SearchNode) Extend(thought string) string {
	return n.Chain() + PathSeparator + thought
}

// GeneratorState is the state handed to a ThoughtGenerator when expanding n.
// The root marker is never shown to generators.
func (n *SearchNode) GeneratorState() string {
	if n.IsRoot() {
		return ""
	}
	return n.State
}
