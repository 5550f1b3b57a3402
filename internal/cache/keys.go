package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%d"
	HomeFeedKeyPrefix = "feed:home:%d"
	ThreadKeyPrefix   = "thread:comment:%d"
)

const (
	UserTTL     = 5 * time.Minute
	PostTTL     = 30 * time.Minute
	HomeFeedTTL = 30 * time.Second
	ThreadTTL   = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func HomeFeedKey(userID uint) string {
	return fmt.Sprintf(HomeFeedKeyPrefix, userID)
}

func ThreadKey(commentID uint) string {
	return fmt.Sprintf(ThreadKeyPrefix, commentID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateHomeFeed(ctx context.Context, userID uint) {
	Invalidate(ctx, HomeFeedKey(userID))
}

func InvalidateThread(ctx context.Context, commentID uint) {
	Invalidate(ctx, ThreadKey(commentID))
}
