// Package platform talks to the RapidAPI-hosted TikTok data vendors.
package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/fetch"
)

const (
	PrimaryBaseURL   = "https://scraptik.p.rapidapi.com"
	AlternateBaseURL = "https://tiktok-video-no-watermark2.p.rapidapi.com"
)

// Object is an undecoded vendor JSON object
type Object = map[string]any

// Config holds configuration for one vendor
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewPrimaryConfig returns defaults for the primary vendor
func NewPrimaryConfig() Config {
	return Config{BaseURL: PrimaryBaseURL, Timeout: 12 * time.Second}
}

// NewAlternateConfig returns defaults for the alternate vendor
func NewAlternateConfig() Config {
	return Config{BaseURL: AlternateBaseURL, Timeout: 12 * time.Second}
}

func (c Config) WithAPIKey(apiKey string) Config {
	c.APIKey = apiKey
	return c
}
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c
}
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
func (c Config) WithLogger(logger *log.Logger) Config {
	c.Logger = logger
	return c
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("rapidapi key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Client is a vendor client. The same type serves both vendors; only the
// endpoints each vendor implements will succeed.
type Client struct {
	config Config
	http   *fetch.Client
}

func NewClient(config Config, httpClient *http.Client) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &Client{
		config: config,
		http: fetch.NewClient(httpClient, config.Timeout, map[string]string{
			"X-RapidAPI-Key":  config.APIKey,
			"X-RapidAPI-Host": u.Host,
		}, config.Logger),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (Object, error) {
	var out Object
	if err := c.http.GetJSON(ctx, c.config.BaseURL+path, params, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty body from %s", fetch.ErrMalformed, path)
	}
	return out, nil
}

// UserInfo fetches /user-info by handle and returns the "user" object
func (c *Client) UserInfo(ctx context.Context, username string) (Object, error) {
	data, err := c.get(ctx, "/user-info", url.Values{"unique_id": {username}})
	if err != nil {
		return nil, err
	}
	return objectField(data, "user", "/user-info")
}

// WebUser fetches /web/get-user and returns the "userInfo" object, which
// nests "user" and "stats"
func (c *Client) WebUser(ctx context.Context, username string) (Object, error) {
	data, err := c.get(ctx, "/web/get-user", url.Values{"username": {username}})
	if err != nil {
		return nil, err
	}
	return objectField(data, "userInfo", "/web/get-user")
}

// SearchUsers runs a keyword user search and returns each user_info object
func (c *Client) SearchUsers(ctx context.Context, keyword string, count, cursor int) ([]Object, error) {
	data, err := c.get(ctx, "/search-users", url.Values{
		"keyword": {keyword},
		"count":   {strconv.Itoa(count)},
		"cursor":  {strconv.Itoa(cursor)},
	})
	if err != nil {
		return nil, err
	}
	list, _ := data["user_list"].([]any)
	users := make([]Object, 0, len(list))
	for _, item := range list {
		entry, ok := item.(Object)
		if !ok {
			continue
		}
		if info, ok := entry["user_info"].(Object); ok {
			users = append(users, info)
		}
	}
	return users, nil
}

// AltUserInfo fetches the alternate vendor's /user/info, which may wrap
// the user in "data"
func (c *Client) AltUserInfo(ctx context.Context, username string) (Object, error) {
	data, err := c.get(ctx, "/user/info", url.Values{"unique_id": {username}})
	if err != nil {
		return nil, err
	}
	if inner, ok := data["data"].(Object); ok {
		data = inner
	}
	return objectField(data, "user", "/user/info")
}

// UserPosts lists recent posts by internal user id
func (c *Client) UserPosts(ctx context.Context, userID string, count int) ([]Object, error) {
	data, err := c.get(ctx, "/user-posts", url.Values{
		"user_id":    {userID},
		"count":      {strconv.Itoa(count)},
		"max_cursor": {"0"},
	})
	if err != nil {
		return nil, err
	}
	return awemeList(data, "/user-posts")
}

// SearchPosts runs a keyword post search
func (c *Client) SearchPosts(ctx context.Context, keyword string, count int) ([]Object, error) {
	data, err := c.get(ctx, "/search-posts", url.Values{
		"keyword": {keyword},
		"count":   {strconv.Itoa(count)},
		"offset":  {"0"},
	})
	if err != nil {
		return nil, err
	}
	return awemeList(data, "/search-posts")
}

// AltUserPosts lists recent posts from the alternate vendor
func (c *Client) AltUserPosts(ctx context.Context, userID string, count int) ([]Object, error) {
	data, err := c.get(ctx, "/user/posts", url.Values{
		"user_id": {userID},
		"count":   {strconv.Itoa(count)},
		"cursor":  {"0"},
	})
	if err != nil {
		return nil, err
	}
	if inner, ok := data["data"].(Object); ok {
		if videos, ok := inner["videos"].([]any); ok {
			data = Object{"aweme_list": videos}
		}
	}
	return awemeList(data, "/user/posts")
}

func objectField(data Object, key, path string) (Object, error) {
	obj, ok := data[key].(Object)
	if !ok || len(obj) == 0 {
		return nil, fmt.Errorf("%w: %s has no %q object", fetch.ErrMalformed, path, key)
	}
	return obj, nil
}

func awemeList(data Object, path string) ([]Object, error) {
	list, ok := data["aweme_list"].([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: %s has no posts", fetch.ErrMalformed, path)
	}
	out := make([]Object, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(Object); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}
