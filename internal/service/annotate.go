// Package service contains the application's business logic.
package service

import (
	"sort"

	"stride/internal/models"
)

// FeedPost is a post decorated with viewer-specific annotations. It is built
// fresh on every read; the underlying models are never mutated.
type FeedPost struct {
	Post               models.Post             `json:"post"`
	RelationshipType   models.RelationshipType `json:"relationship_type,omitempty"`
	Bookmarked         bool                    `json:"bookmarked"`
	CommentsAndReplies int64                   `json:"comments_and_replies"`
	IsOwn              bool                    `json:"is_own"`
}

// Feed partitions annotated posts into ongoing and completed activities.
type Feed struct {
	Ongoing   []FeedPost `json:"ongoing"`
	Completed []FeedPost `json:"completed"`
}

// Annotations is the viewer-specific state merged onto a page of posts.
type Annotations struct {
	ViewerID      uint
	Relationships map[uint]models.RelationshipType
	BookmarkedIDs map[uint]bool
	ThreadTotals  map[uint]int64
}

// AnnotatePosts decorates each post with the viewer's relationship to its
// author, bookmark state, and discussion size. The function is pure:
// applying it twice to the same inputs yields equal output, and the input
// posts are left untouched. A post authored by the viewer carries no
// relationship tag.
func AnnotatePosts(posts []*models.Post, ann Annotations) []FeedPost {
	out := make([]FeedPost, 0, len(posts))
	for _, p := range posts {
		fp := FeedPost{
			Post:               *p,
			Bookmarked:         ann.BookmarkedIDs[p.ID],
			CommentsAndReplies: ann.ThreadTotals[p.ID],
			IsOwn:              ann.ViewerID != 0 && p.UserID == ann.ViewerID,
		}
		if !fp.IsOwn {
			fp.RelationshipType = ann.Relationships[p.UserID]
		}
		out = append(out, fp)
	}
	return out
}

// PartitionFeed splits annotated posts into ongoing and completed while
// preserving their relative order.
func PartitionFeed(posts []FeedPost) Feed {
	feed := Feed{
		Ongoing:   []FeedPost{},
		Completed: []FeedPost{},
	}
	for _, p := range posts {
		if p.Post.IsActive {
			feed.Ongoing = append(feed.Ongoing, p)
		} else {
			feed.Completed = append(feed.Completed, p)
		}
	}
	return feed
}

// AuthorIDs returns the distinct author ids of the posts, ascending.
func AuthorIDs(posts []*models.Post) []uint {
	seen := make(map[uint]struct{}, len(posts))
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PostIDs returns the ids of the posts in input order.
func PostIDs(posts []*models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
