package service

import (
	"context"
	"errors"
	"time"

	"stride/internal/models"
	"stride/internal/observability"
	"stride/internal/repository"
	"stride/internal/thread"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// FeedService assembles viewer-facing feeds and detail views. Independent
// storage reads run concurrently; results are merged by the pure annotator.
// Any collaborator failure aborts the whole assembly so a viewer never sees
// a partially annotated page.
type FeedService struct {
	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	relRepo      repository.RelationshipRepository
	bookmarkRepo repository.BookmarkRepository
	resolver     *thread.Resolver
}

// CommentView is a comment with the total size of its reply tree and the
// viewer's relationship to the commenter.
type CommentView struct {
	Comment          models.Comment          `json:"comment"`
	ReplyCount       int64                   `json:"reply_count"`
	RelationshipType models.RelationshipType `json:"relationship_type,omitempty"`
}

// ReplyView is a reply with the size of the subtree below it and the viewer's
// relationship to the replier.
type ReplyView struct {
	Reply            models.Reply            `json:"reply"`
	DescendantCount  int                     `json:"descendant_count"`
	RelationshipType models.RelationshipType `json:"relationship_type,omitempty"`
}

// PostDetail is a fully annotated post with its comment threads.
type PostDetail struct {
	Post     FeedPost      `json:"post"`
	Comments []CommentView `json:"comments"`
}

// CommentDetail is a comment with its annotated direct replies.
type CommentDetail struct {
	Comment models.Comment `json:"comment"`
	Replies []ReplyView    `json:"replies"`
}

// ReplyDetail is a reply with its annotated direct children.
type ReplyDetail struct {
	Reply    models.Reply `json:"reply"`
	Children []ReplyView  `json:"children"`
}

// NewFeedService creates a feed service over the given repositories.
func NewFeedService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	relRepo repository.RelationshipRepository,
	bookmarkRepo repository.BookmarkRepository,
	resolver *thread.Resolver,
) *FeedService {
	return &FeedService{
		userRepo:     userRepo,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		relRepo:      relRepo,
		bookmarkRepo: bookmarkRepo,
		resolver:     resolver,
	}
}

func wrapStorage(err error, resource string, id uint) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewStorageError(err)
}

func recordFeedError(feed string, err error) {
	code := models.CodeInternal
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	observability.FeedAssemblyErrors.WithLabelValues(feed, code).Inc()
}

// HomeFeed returns the viewer's posts and those of followed users, annotated
// and partitioned into ongoing and completed.
func (s *FeedService) HomeFeed(ctx context.Context, viewerID uint, limit, offset int) (*Feed, error) {
	return s.assembleFeed(ctx, "home", viewerID, func() ([]*models.Post, error) {
		return s.postRepo.ListFollowed(ctx, viewerID, limit, offset)
	})
}

// ExploreFeed returns recent posts from everyone.
func (s *FeedService) ExploreFeed(ctx context.Context, viewerID uint, limit, offset int) (*Feed, error) {
	return s.assembleFeed(ctx, "explore", viewerID, func() ([]*models.Post, error) {
		return s.postRepo.ListAll(ctx, limit, offset)
	})
}

// ProfileFeed returns one user's posts as seen by the viewer. An unknown
// owner is NOT_FOUND, not an empty page.
func (s *FeedService) ProfileFeed(ctx context.Context, viewerID, ownerID uint, limit, offset int) (*Feed, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		err = wrapStorage(err, "User", ownerID)
		recordFeedError("profile", err)
		return nil, err
	}
	return s.assembleFeed(ctx, "profile", viewerID, func() ([]*models.Post, error) {
		return s.postRepo.ListByOwner(ctx, ownerID, limit, offset)
	})
}

// BookmarkFeed returns the posts the viewer has bookmarked.
func (s *FeedService) BookmarkFeed(ctx context.Context, viewerID uint, limit, offset int) (*Feed, error) {
	return s.assembleFeed(ctx, "bookmarks", viewerID, func() ([]*models.Post, error) {
		return s.postRepo.ListBookmarked(ctx, viewerID, limit, offset)
	})
}

func (s *FeedService) assembleFeed(ctx context.Context, name string, viewerID uint, fetch func() ([]*models.Post, error)) (*Feed, error) {
	start := time.Now()

	posts, err := fetch()
	if err != nil {
		err = models.NewStorageError(err)
		recordFeedError(name, err)
		return nil, err
	}

	ann, err := s.annotationsFor(ctx, viewerID, posts)
	if err != nil {
		recordFeedError(name, err)
		return nil, err
	}

	feed := PartitionFeed(AnnotatePosts(posts, *ann))
	observability.ObserveFeedAssembly(name, start)
	return &feed, nil
}

// annotationsFor gathers the viewer-specific state for a page of posts. The
// three reads are independent of each other and run concurrently; the first
// failure cancels the rest.
func (s *FeedService) annotationsFor(ctx context.Context, viewerID uint, posts []*models.Post) (*Annotations, error) {
	ann := &Annotations{
		ViewerID:      viewerID,
		Relationships: map[uint]models.RelationshipType{},
		BookmarkedIDs: map[uint]bool{},
		ThreadTotals:  map[uint]int64{},
	}
	if len(posts) == 0 {
		return ann, nil
	}

	postIDs := PostIDs(posts)
	authorIDs := AuthorIDs(posts)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if viewerID == 0 {
			return nil
		}
		rels, err := s.relRepo.GetRelationshipMap(gctx, viewerID, authorIDs)
		if err != nil {
			return models.NewStorageError(err)
		}
		ann.Relationships = rels
		return nil
	})

	g.Go(func() error {
		if viewerID == 0 {
			return nil
		}
		ids, err := s.bookmarkRepo.GetBookmarkedPostIDs(gctx, viewerID, postIDs)
		if err != nil {
			return models.NewStorageError(err)
		}
		marked := make(map[uint]bool, len(ids))
		for _, id := range ids {
			marked[id] = true
		}
		ann.BookmarkedIDs = marked
		return nil
	})

	g.Go(func() error {
		totals, err := s.resolver.ThreadTotals(gctx, postIDs)
		if err != nil {
			return err
		}
		ann.ThreadTotals = totals
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ann, nil
}

// GetPostDetail returns a single post with annotations and its comments,
// each carrying the total size of its reply tree and the viewer's
// relationship to the commenter.
func (s *FeedService) GetPostDetail(ctx context.Context, viewerID, postID uint) (*PostDetail, error) {
	start := time.Now()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		err = wrapStorage(err, "Post", postID)
		recordFeedError("post_detail", err)
		return nil, err
	}

	var (
		comments []*models.Comment
		ann      *Annotations
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.commentRepo.ListByPost(gctx, postID)
		if err != nil {
			return models.NewStorageError(err)
		}
		comments = rows
		return nil
	})

	g.Go(func() error {
		a, err := s.annotationsFor(gctx, viewerID, []*models.Post{post})
		if err != nil {
			return err
		}
		ann = a
		return nil
	})

	if err := g.Wait(); err != nil {
		recordFeedError("post_detail", err)
		return nil, err
	}

	commentIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	var (
		replyTotals map[uint]int64
		commentRels map[uint]models.RelationshipType
	)
	tg, tctx := errgroup.WithContext(ctx)
	tg.Go(func() error {
		totals, err := s.resolver.ReplyTotals(tctx, commentIDs)
		if err != nil {
			return err
		}
		replyTotals = totals
		return nil
	})
	tg.Go(func() error {
		rels, err := s.relationshipsToward(tctx, viewerID, commentAuthorIDs(comments))
		if err != nil {
			return err
		}
		commentRels = rels
		return nil
	})
	if err := tg.Wait(); err != nil {
		recordFeedError("post_detail", err)
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		view := CommentView{Comment: *c, ReplyCount: replyTotals[c.ID]}
		if viewerID == 0 || c.UserID != viewerID {
			view.RelationshipType = commentRels[c.UserID]
		}
		views = append(views, view)
	}

	detail := &PostDetail{
		Post:     AnnotatePosts([]*models.Post{post}, *ann)[0],
		Comments: views,
	}
	observability.ObserveFeedAssembly("post_detail", start)
	return detail, nil
}

// GetCommentDetail returns a comment with its direct replies, each carrying
// its descendant count and the viewer's relationship to the replier.
func (s *FeedService) GetCommentDetail(ctx context.Context, viewerID, commentID uint) (*CommentDetail, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, wrapStorage(err, "Comment", commentID)
	}

	nodes, err := s.resolver.TopLevelReplies(ctx, commentID)
	if err != nil {
		return nil, err
	}

	replies, err := s.annotateReplyNodes(ctx, viewerID, nodes)
	if err != nil {
		return nil, err
	}
	return &CommentDetail{Comment: *comment, Replies: replies}, nil
}

// GetReplyDetail returns a reply with its direct children, each carrying its
// descendant count and the viewer's relationship to the replier.
func (s *FeedService) GetReplyDetail(ctx context.Context, viewerID, replyID uint) (*ReplyDetail, error) {
	reply, err := s.resolver.GetReply(ctx, replyID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.resolver.ChildReplies(ctx, replyID)
	if err != nil {
		return nil, err
	}

	children, err := s.annotateReplyNodes(ctx, viewerID, nodes)
	if err != nil {
		return nil, err
	}
	return &ReplyDetail{Reply: *reply, Children: children}, nil
}

// relationshipsToward returns the viewer's relationship to each of the given
// author ids. Anonymous viewers see no relationships.
func (s *FeedService) relationshipsToward(ctx context.Context, viewerID uint, authorIDs []uint) (map[uint]models.RelationshipType, error) {
	if viewerID == 0 || len(authorIDs) == 0 {
		return map[uint]models.RelationshipType{}, nil
	}
	rels, err := s.relRepo.GetRelationshipMap(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	return rels, nil
}

// annotateReplyNodes decorates reply nodes with the viewer's relationship to
// each replier. The viewer's own replies carry no relationship tag.
func (s *FeedService) annotateReplyNodes(ctx context.Context, viewerID uint, nodes []thread.ReplyNode) ([]ReplyView, error) {
	rels, err := s.relationshipsToward(ctx, viewerID, replyAuthorIDs(nodes))
	if err != nil {
		return nil, err
	}

	views := make([]ReplyView, 0, len(nodes))
	for _, n := range nodes {
		view := ReplyView{Reply: *n.Reply, DescendantCount: n.DescendantCount}
		if viewerID == 0 || n.Reply.UserID != viewerID {
			view.RelationshipType = rels[n.Reply.UserID]
		}
		views = append(views, view)
	}
	return views, nil
}

func commentAuthorIDs(comments []*models.Comment) []uint {
	seen := make(map[uint]struct{}, len(comments))
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}
	return ids
}

func replyAuthorIDs(nodes []thread.ReplyNode) []uint {
	seen := make(map[uint]struct{}, len(nodes))
	ids := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n.Reply.UserID]; ok {
			continue
		}
		seen[n.Reply.UserID] = struct{}{}
		ids = append(ids, n.Reply.UserID)
	}
	return ids
}
