package service

import (
	"context"
	"sort"
	"sync"

	"stride/internal/models"

	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. Each can be primed with a
// failure to exercise the storage error paths.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
	err   error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[uint]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uint(len(f.users) + 1)
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Search(_ context.Context, query string, _, _ int) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[uint]*models.Post
	nextID uint
	err    error
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	f := &fakePostRepo{posts: map[uint]*models.Post{}}
	for _, p := range posts {
		f.posts[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakePostRepo) Create(_ context.Context, p *models.Post) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.posts[p.ID] = p
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id uint) (*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) Update(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.posts[p.ID] = &copied
	return nil
}

func (f *fakePostRepo) Complete(_ context.Context, id uint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) sorted() []*models.Post {
	var out []*models.Post
	for _, p := range f.posts {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakePostRepo) ListFollowed(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

func (f *fakePostRepo) ListAll(_ context.Context, _, _ int) ([]*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

func (f *fakePostRepo) ListByOwner(_ context.Context, ownerID uint, _, _ int) ([]*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Post
	for _, p := range f.sorted() {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) ListBookmarked(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[uint]*models.Comment
	nextID   uint
	err      error
}

func newFakeCommentRepo(comments ...*models.Comment) *fakeCommentRepo {
	f := &fakeCommentRepo{comments: map[uint]*models.Comment{}}
	for _, c := range comments {
		f.comments[c.ID] = c
		if c.ID > f.nextID {
			f.nextID = c.ID
		}
	}
	return f
}

func (f *fakeCommentRepo) Create(_ context.Context, c *models.Comment) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	f.comments[c.ID] = c
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCommentRepo) ListByPost(_ context.Context, postID uint) ([]*models.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCommentRepo) CountByPostIDs(_ context.Context, postIDs []uint) (map[uint]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]int64{}
	for _, id := range postIDs {
		for _, c := range f.comments {
			if c.PostID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.comments, id)
	return nil
}

type fakeReplyRepo struct {
	mu      sync.Mutex
	replies map[uint]*models.Reply
	nextID  uint
	err     error

	// comments, when set, lets CountByPostIDs resolve a reply's post the way
	// the SQL join does.
	comments *fakeCommentRepo
}

func newFakeReplyRepo(replies ...*models.Reply) *fakeReplyRepo {
	f := &fakeReplyRepo{replies: map[uint]*models.Reply{}}
	for _, r := range replies {
		f.replies[r.ID] = r
		if r.ID > f.nextID {
			f.nextID = r.ID
		}
	}
	return f
}

func (f *fakeReplyRepo) Create(_ context.Context, r *models.Reply) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.replies[r.ID] = r
	return nil
}

func (f *fakeReplyRepo) GetByID(_ context.Context, id uint) (*models.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.replies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReplyRepo) list(filter func(*models.Reply) bool) []*models.Reply {
	var out []*models.Reply
	for _, r := range f.replies {
		if filter(r) {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeReplyRepo) ListTopLevel(_ context.Context, commentID uint) ([]*models.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(r *models.Reply) bool {
		return r.CommentID == commentID && r.ParentReplyID == nil
	}), nil
}

func (f *fakeReplyRepo) ListChildren(_ context.Context, parentID uint) ([]*models.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(r *models.Reply) bool {
		return r.ParentReplyID != nil && *r.ParentReplyID == parentID
	}), nil
}

func (f *fakeReplyRepo) ListByRootComment(_ context.Context, commentID uint) ([]*models.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(r *models.Reply) bool { return r.CommentID == commentID }), nil
}

func (f *fakeReplyRepo) CountByCommentIDs(_ context.Context, commentIDs []uint) (map[uint]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]int64{}
	for _, id := range commentIDs {
		for _, r := range f.replies {
			if r.CommentID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (f *fakeReplyRepo) CountByPostIDs(_ context.Context, postIDs []uint) (map[uint]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[uint]int64{}
	if f.comments == nil {
		return out, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments.mu.Lock()
	defer f.comments.mu.Unlock()
	for _, postID := range postIDs {
		for _, r := range f.replies {
			c, ok := f.comments.comments[r.CommentID]
			if ok && c.PostID == postID {
				out[postID]++
			}
		}
	}
	return out, nil
}

type fakeRelationshipRepo struct {
	mu    sync.Mutex
	edges map[[2]uint]bool
	err   error
}

func newFakeRelationshipRepo() *fakeRelationshipRepo {
	return &fakeRelationshipRepo{edges: map[[2]uint]bool{}}
}

func (f *fakeRelationshipRepo) Follow(_ context.Context, userID, relatedID uint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[[2]uint{userID, relatedID}] = true
	return nil
}

func (f *fakeRelationshipRepo) Unfollow(_ context.Context, userID, relatedID uint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, [2]uint{userID, relatedID})
	return nil
}

func (f *fakeRelationshipRepo) IsFollowing(_ context.Context, userID, relatedID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[[2]uint{userID, relatedID}], nil
}

func (f *fakeRelationshipRepo) GetRelationshipMap(_ context.Context, userID uint, relatedIDs []uint) (map[uint]models.RelationshipType, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]models.RelationshipType{}
	for _, id := range relatedIDs {
		if f.edges[[2]uint{userID, id}] {
			out[id] = models.RelationshipFollowing
		}
	}
	return out, nil
}

func (f *fakeRelationshipRepo) CountFollowers(_ context.Context, userID uint) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for edge := range f.edges {
		if edge[1] == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRelationshipRepo) CountFollowing(_ context.Context, userID uint) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for edge := range f.edges {
		if edge[0] == userID {
			n++
		}
	}
	return n, nil
}

type fakeBookmarkRepo struct {
	mu    sync.Mutex
	marks map[[2]uint]bool
	err   error
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{marks: map[[2]uint]bool{}}
}

func (f *fakeBookmarkRepo) Bookmark(_ context.Context, userID, postID uint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks[[2]uint{userID, postID}] = true
	return nil
}

func (f *fakeBookmarkRepo) Unbookmark(_ context.Context, userID, postID uint) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.marks, [2]uint{userID, postID})
	return nil
}

func (f *fakeBookmarkRepo) IsBookmarked(_ context.Context, userID, postID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks[[2]uint{userID, postID}], nil
}

func (f *fakeBookmarkRepo) GetBookmarkedPostIDs(_ context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint
	for _, id := range postIDs {
		if f.marks[[2]uint{userID, id}] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeAvatarRepo struct {
	avatars map[string]string
	err     error
}

func (f *fakeAvatarRepo) Upsert(_ context.Context, avatars []models.Avatar) error {
	if f.err != nil {
		return f.err
	}
	for _, a := range avatars {
		f.avatars[a.AvatarName] = a.ImagePath
	}
	return nil
}

func (f *fakeAvatarRepo) GetByName(_ context.Context, name string) (*models.Avatar, error) {
	if f.err != nil {
		return nil, f.err
	}
	path, ok := f.avatars[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Avatar{AvatarName: name, ImagePath: path}, nil
}

func (f *fakeAvatarRepo) GetAll(_ context.Context) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.avatars, nil
}

type recordedEvent struct {
	eventType string
	payload   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) PublishFeed(_ context.Context, eventType string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType: eventType, payload: payload})
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.eventType)
	}
	return out
}
