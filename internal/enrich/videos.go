package enrich

import (
	"context"

	"github.com/lox/creator-discovery/internal/schema"
	"github.com/lox/creator-discovery/internal/types"
)

// PostSource lists recent posts for a resolved profile
type PostSource interface {
	Name() string
	Posts(ctx context.Context, p types.Profile, count int) ([]schema.Object, error)
}

// PostLink is a post source with its retry budget
type PostLink struct {
	Source   PostSource
	Attempts uint
}

// RecentVideos returns up to n posts that carry a caption or thumbnail. It
// never fails; an unresolvable profile has no videos.
func (r *Resolver) RecentVideos(ctx context.Context, p types.Profile, n int) []types.Video {
	if p.Degraded || p.InternalID == "" || n <= 0 {
		return nil
	}
	state := &attemptLog{identifier: p.Identifier}

	for _, link := range r.config.Posts {
		posts, err := withBudget(ctx, r, link.Source.Name(), link.Attempts, state, func(ctx context.Context) ([]schema.Object, error) {
			return link.Source.Posts(ctx, p, n)
		})
		if err != nil {
			r.logger.Debug("Post source gave up", "identifier", p.Identifier, "source", link.Source.Name(), "error", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		videos := make([]types.Video, 0, n)
		for _, obj := range posts {
			v := schema.Video(obj)
			if v.Caption == "" && v.Thumbnail == "" {
				continue
			}
			videos = append(videos, v)
			if len(videos) == n {
				break
			}
		}
		if len(videos) > 0 {
			return videos
		}
	}
	return nil
}

// PostsClient is the vendor surface used by the post sources
type PostsClient interface {
	UserPosts(ctx context.Context, userID string, count int) ([]schema.Object, error)
	SearchPosts(ctx context.Context, keyword string, count int) ([]schema.Object, error)
	AltUserPosts(ctx context.Context, userID string, count int) ([]schema.Object, error)
}

type userPostsSource struct{ client PostsClient }

// NewUserPostsSource lists posts by internal user id on the primary vendor
func NewUserPostsSource(client PostsClient) PostSource { return userPostsSource{client} }

func (s userPostsSource) Name() string { return "user-posts" }
func (s userPostsSource) Posts(ctx context.Context, p types.Profile, count int) ([]schema.Object, error) {
	return s.client.UserPosts(ctx, p.InternalID, count)
}

type searchPostsSource struct{ client PostsClient }

// NewSearchPostsSource finds posts with a "user:<id>" keyword search
func NewSearchPostsSource(client PostsClient) PostSource { return searchPostsSource{client} }

func (s searchPostsSource) Name() string { return "search-posts" }
func (s searchPostsSource) Posts(ctx context.Context, p types.Profile, count int) ([]schema.Object, error) {
	return s.client.SearchPosts(ctx, "user:"+p.InternalID, count)
}

type altPostsSource struct{ client PostsClient }

// NewAltPostsSource lists posts from the alternate vendor
func NewAltPostsSource(client PostsClient) PostSource { return altPostsSource{client} }

func (s altPostsSource) Name() string { return "alt-user-posts" }
func (s altPostsSource) Posts(ctx context.Context, p types.Profile, count int) ([]schema.Object, error) {
	return s.client.AltUserPosts(ctx, p.InternalID, count)
}
