// Package thread assembles flat comment lists into ordered reply trees.
package thread

import (
	"sort"

	"colloquy/internal/models"
)

// Sort modes for root comments.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

// NormalizeSort maps an arbitrary query value onto a supported sort mode,
// defaulting to newest.
func NormalizeSort(mode string) string {
	switch mode {
	case SortOldest, SortPopular:
		return mode
	}
	return SortNewest
}

// Build assembles the given comments into a forest of CommentNodes.
//
// Two passes: the first indexes every comment by id with interaction fields
// reset, the second attaches each node to its parent when the parent is part
// of the input set. A comment whose parent was filtered out (for example by a
// visibility predicate) is promoted to a root rather than dropped, so
// orphaned children stay reachable.
//
// Roots are ordered pinned-first (stable), then by mode. Replies are always
// ordered oldest-first, recursively, regardless of the root mode.
//
// Build is a pure function: it never mutates its input and never fails.
func Build(comments []*models.Comment, mode string) []*models.CommentNode {
	mode = NormalizeSort(mode)

	nodes := make(map[uint]*models.CommentNode, len(comments))
	order := make([]*models.CommentNode, 0, len(comments))
	for _, c := range comments {
		node := &models.CommentNode{Comment: *c, Replies: []*models.CommentNode{}}
		node.ReplyCount = 0
		nodes[c.ID] = node
		order = append(order, node)
	}

	roots := make([]*models.CommentNode, 0, len(order))
	for _, node := range order {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	for _, node := range order {
		sortReplies(node)
		node.ReplyCount = countDescendants(node)
	}

	sortRoots(roots, mode)
	return roots
}

// Flatten returns every node of the forest in depth-first order. Primarily a
// counting/inspection helper: len(Flatten(Build(in))) == len(in).
func Flatten(roots []*models.CommentNode) []*models.CommentNode {
	var out []*models.CommentNode
	var walk func(*models.CommentNode)
	walk = func(n *models.CommentNode) {
		out = append(out, n)
		for _, r := range n.Replies {
			walk(r)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// sortReplies orders a node's direct replies oldest-first. Conversation flow
// inside a thread reads top to bottom no matter how the roots are sorted.
func sortReplies(node *models.CommentNode) {
	sort.SliceStable(node.Replies, func(i, j int) bool {
		return node.Replies[i].CreatedAt.Before(node.Replies[j].CreatedAt)
	})
}

func countDescendants(node *models.CommentNode) int {
	total := len(node.Replies)
	for _, r := range node.Replies {
		total += countDescendants(r)
	}
	return total
}

func sortRoots(roots []*models.CommentNode, mode string) {
	sort.SliceStable(roots, func(i, j int) bool {
		a, b := roots[i], roots[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		switch mode {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortPopular:
			if a.LikeCount != b.LikeCount {
				return a.LikeCount > b.LikeCount
			}
			if a.QualityScore != b.QualityScore {
				return a.QualityScore > b.QualityScore
			}
			return a.CreatedAt.After(b.CreatedAt)
		default: // newest
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}
