package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lox/creator-discovery/internal/fetch"
	"github.com/lox/creator-discovery/internal/schema"
)

// UserInfoFetcher serves the primary vendor's profile endpoint
type UserInfoFetcher interface {
	UserInfo(ctx context.Context, username string) (schema.Object, error)
}

// WebUserFetcher serves the primary vendor's web profile endpoint
type WebUserFetcher interface {
	WebUser(ctx context.Context, username string) (schema.Object, error)
}

// UserSearcher serves keyword user search
type UserSearcher interface {
	SearchUsers(ctx context.Context, keyword string, count, cursor int) ([]schema.Object, error)
}

// AltUserInfoFetcher serves the alternate vendor's profile endpoint
type AltUserInfoFetcher interface {
	AltUserInfo(ctx context.Context, username string) (schema.Object, error)
}

var errNotFound = errors.New("no matching user in search results")

type UserInfoProvider struct{ client UserInfoFetcher }

func NewUserInfoProvider(client UserInfoFetcher) *UserInfoProvider {
	return &UserInfoProvider{client: client}
}

func (p *UserInfoProvider) Name() string { return "user-info" }

func (p *UserInfoProvider) TryResolve(ctx context.Context, identifier string) (schema.Object, error) {
	return p.client.UserInfo(ctx, identifier)
}

type WebUserProvider struct{ client WebUserFetcher }

func NewWebUserProvider(client WebUserFetcher) *WebUserProvider {
	return &WebUserProvider{client: client}
}

func (p *WebUserProvider) Name() string { return "web-user" }

func (p *WebUserProvider) TryResolve(ctx context.Context, identifier string) (schema.Object, error) {
	return p.client.WebUser(ctx, identifier)
}

// SearchMatchProvider searches users by the handle and takes the exact match,
// or failing that the closest one
type SearchMatchProvider struct {
	client UserSearcher
	count  int
}

func NewSearchMatchProvider(client UserSearcher) *SearchMatchProvider {
	return &SearchMatchProvider{client: client, count: 10}
}

func (p *SearchMatchProvider) Name() string { return "search-match" }

func (p *SearchMatchProvider) TryResolve(ctx context.Context, identifier string) (schema.Object, error) {
	users, err := p.client.SearchUsers(ctx, identifier, p.count, 0)
	if err != nil {
		return nil, err
	}
	best := closestUser(users, identifier)
	if best == nil {
		return nil, fmt.Errorf("%w: %s", fetch.ErrMalformed, errNotFound)
	}
	return best, nil
}

// closestUser prefers an exact handle match, then a handle containing (or
// contained in) the identifier, then the first result
func closestUser(users []schema.Object, identifier string) schema.Object {
	if len(users) == 0 {
		return nil
	}
	want := strings.ToLower(identifier)
	var partial schema.Object
	for _, u := range users {
		handle := strings.ToLower(schema.String(u, schema.ProfileTable[schema.FieldIdentifier]...))
		if handle == want {
			return u
		}
		if partial == nil && handle != "" && (strings.Contains(handle, want) || strings.Contains(want, handle)) {
			partial = u
		}
	}
	if partial != nil {
		return partial
	}
	return users[0]
}

type AltUserInfoProvider struct{ client AltUserInfoFetcher }

func NewAltUserInfoProvider(client AltUserInfoFetcher) *AltUserInfoProvider {
	return &AltUserInfoProvider{client: client}
}

func (p *AltUserInfoProvider) Name() string { return "alt-user-info" }

func (p *AltUserInfoProvider) TryResolve(ctx context.Context, identifier string) (schema.Object, error) {
	return p.client.AltUserInfo(ctx, identifier)
}
