// Package thread resolves reply hierarchies in process. Reply rows carry both
// their root comment id and an optional parent reply id, so a comment's whole
// tree loads in one query and parent/child structure is recovered here rather
// than with recursive SQL.
package thread

import (
	"sort"

	"stride/internal/models"
)

// Edge is the parent linkage of one reply row.
type Edge struct {
	ID            uint
	CommentID     uint
	ParentReplyID *uint
}

// EdgeOf extracts the linkage from a reply row.
func EdgeOf(r *models.Reply) Edge {
	return Edge{ID: r.ID, CommentID: r.CommentID, ParentReplyID: r.ParentReplyID}
}

// Forest is the reply hierarchy of a single comment. It is immutable once
// built and safe for concurrent reads.
type Forest struct {
	commentID uint
	children  map[uint][]uint
	topLevel  []uint
	counts    map[uint]int
	size      int
}

// BuildForest constructs the hierarchy for one comment from its reply edges.
// Edges referencing a parent that is not in the set are treated as top-level;
// a dangling parent means the parent row was deleted out from under us.
func BuildForest(commentID uint, edges []Edge) *Forest {
	f := &Forest{
		commentID: commentID,
		children:  make(map[uint][]uint, len(edges)),
		counts:    make(map[uint]int, len(edges)),
	}

	present := make(map[uint]bool, len(edges))
	for _, e := range edges {
		if e.CommentID == commentID {
			present[e.ID] = true
		}
	}

	for _, e := range edges {
		if !present[e.ID] {
			continue
		}
		f.size++
		if e.ParentReplyID != nil && present[*e.ParentReplyID] {
			f.children[*e.ParentReplyID] = append(f.children[*e.ParentReplyID], e.ID)
		} else {
			f.topLevel = append(f.topLevel, e.ID)
		}
	}

	sort.Slice(f.topLevel, func(i, j int) bool { return f.topLevel[i] < f.topLevel[j] })
	for _, kids := range f.children {
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
	}

	for _, root := range f.topLevel {
		f.countDescendants(root, make(map[uint]bool))
	}

	return f
}

// countDescendants fills counts for the subtree rooted at id and returns the
// node count of that subtree (the node itself plus all descendants). The
// visiting set guards against malformed cyclic data.
func (f *Forest) countDescendants(id uint, visiting map[uint]bool) int {
	if visiting[id] {
		return 0
	}
	visiting[id] = true

	below := 0
	for _, child := range f.children[id] {
		below += f.countDescendants(child, visiting)
	}
	f.counts[id] = below
	return below + 1
}

// CommentID returns the root comment this forest belongs to.
func (f *Forest) CommentID() uint {
	return f.commentID
}

// Size returns the total number of replies in the forest.
func (f *Forest) Size() int {
	return f.size
}

// TopLevel returns the ids of replies that are direct children of the
// comment, ascending.
func (f *Forest) TopLevel() []uint {
	return f.topLevel
}

// Children returns the ids of direct child replies of the given reply,
// ascending. A leaf yields an empty slice.
func (f *Forest) Children(replyID uint) []uint {
	return f.children[replyID]
}

// DescendantCount returns the number of replies strictly below the given
// reply. Unknown ids count zero.
func (f *Forest) DescendantCount(replyID uint) int {
	return f.counts[replyID]
}

// Contains reports whether the reply id belongs to this forest.
func (f *Forest) Contains(replyID uint) bool {
	_, ok := f.counts[replyID]
	return ok
}
