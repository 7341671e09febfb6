// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package social aggregates a user's profile and recent posts from the X API.
package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/auth"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/proxy"
)

const (
	upstreamName = "x_api"
	maxPosts     = "10"
)

var (
	// ErrUserNotFound reports a lookup that returned no user object.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUsername reports a handle outside X's username alphabet.
	ErrInvalidUsername = errors.New("invalid username")
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	userIDPattern   = regexp.MustCompile(`^[0-9]{1,32}$`)
)

// Post is one recent post, relayed with every field X returned.
type Post map[string]any

// Profile is the aggregated view served to the front-end.
type Profile struct {
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
	Followers       int64  `json:"followers"`
	Following       int64  `json:"following"`
	CreatedAt       string `json:"created_at"`
	Posts           []Post `json:"posts"`
}

type userResponse struct {
	Data *struct {
		ID              string `json:"id"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
		CreatedAt       string `json:"created_at"`
		PublicMetrics   struct {
			FollowersCount int64 `json:"followers_count"`
			FollowingCount int64 `json:"following_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

type postsResponse struct {
	Data []Post `json:"data"`
}

// Client calls the X v2 API with an app bearer token.
type Client struct {
	upstream *proxy.Client
	baseURL  *url.URL
	bearer   string
}

// NewClient binds baseURL (for example https://api.x.com) and bearer.
func NewClient(upstream *proxy.Client, baseURL *url.URL, bearer string) *Client {
	return &Client{upstream: upstream, baseURL: baseURL, bearer: bearer}
}

// Profile fetches username's profile, then its latest posts.
func (c *Client) Profile(ctx context.Context, username string) (Profile, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	var user userResponse
	if err := c.get(ctx, "/2/users/by/username/"+username, url.Values{
		"user.fields": {"created_at,profile_image_url,public_metrics"},
	}, &user); err != nil {
		return Profile{}, fmt.Errorf("fetch user: %w", err)
	}
	if user.Data == nil {
		return Profile{}, ErrUserNotFound
	}
	if !userIDPattern.MatchString(user.Data.ID) {
		return Profile{}, fmt.Errorf("unexpected user id %q", user.Data.ID)
	}

	var posts postsResponse
	if err := c.get(ctx, "/2/users/"+user.Data.ID+"/tweets", url.Values{
		"max_results":  {maxPosts},
		"tweet.fields": {"created_at,text"},
	}, &posts); err != nil {
		return Profile{}, fmt.Errorf("fetch posts: %w", err)
	}
	if posts.Data == nil {
		posts.Data = []Post{}
	}

	return Profile{
		Username:        user.Data.Username,
		ProfileImageURL: user.Data.ProfileImageURL,
		Followers:       user.Data.PublicMetrics.FollowersCount,
		Following:       user.Data.PublicMetrics.FollowingCount,
		CreatedAt:       user.Data.CreatedAt,
		Posts:           posts.Data,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	header := make(http.Header)
	auth.AttachBearer(header, c.bearer)

	body, err := c.upstream.Get(ctx, upstreamName, target.String(), header)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
