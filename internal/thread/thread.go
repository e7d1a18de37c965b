// Package thread rebuilds comment nesting from a flat, time-ordered list.
package thread

import (
	"slices"

	"hn_reader/internal/domain"
)

// MaxVisualDepth is the indentation cap used by renderers.
const MaxVisualDepth = 8

type Node struct {
	Comment  domain.Comment `json:"comment"`
	Depth    int            `json:"depth"`
	Children []*Node        `json:"children"`

	index int
}

// VisualDepth caps the depth for indentation. The logical Depth is unchanged.
func (n *Node) VisualDepth(limit int) int {
	return min(n.Depth, limit)
}

// Build nests comments under their parents and returns the roots in input
// order. Children keep input order too. A comment whose parent is nil, is
// not in comments, or cannot be reached from a root becomes a root itself.
// Duplicate ids keep the first occurrence. Build holds no state between
// calls and never recurses.
func Build(comments []domain.Comment) []*Node {
	nodes := make(map[int64]*Node, len(comments))
	order := make([]*Node, 0, len(comments))
	for _, c := range comments {
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &Node{Comment: c, Children: []*Node{}, index: len(order)}
		nodes[c.ID] = n
		order = append(order, n)
	}

	children := make(map[int64][]*Node)
	roots := []*Node{}
	for _, n := range order {
		parent := n.Comment.ParentID
		if parent == nil || *parent == n.Comment.ID || nodes[*parent] == nil {
			roots = append(roots, n)
			continue
		}
		children[*parent] = append(children[*parent], n)
	}

	visited := make(map[int64]bool, len(order))
	attach := func(root *Node) {
		root.Depth = 0
		visited[root.Comment.ID] = true
		stack := []*Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, child := range children[n.Comment.ID] {
				if visited[child.Comment.ID] {
					continue
				}
				visited[child.Comment.ID] = true
				child.Depth = n.Depth + 1
				n.Children = append(n.Children, child)
				stack = append(stack, child)
			}
		}
	}

	for _, root := range roots {
		attach(root)
	}

	// parent cycles leave nodes unreachable from any root
	var orphaned bool
	for _, n := range order {
		if !visited[n.Comment.ID] {
			roots = append(roots, n)
			attach(n)
			orphaned = true
		}
	}
	if orphaned {
		slices.SortFunc(roots, func(a, b *Node) int { return a.index - b.index })
	}

	return roots
}

// Flatten lists the forest depth-first, parents before children.
func Flatten(roots []*Node) []*Node {
	out := []*Node{}
	stack := make([]*Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}
