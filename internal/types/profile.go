package types

import "time"

// SourceTag identifies which connector produced a candidate
type SourceTag string

const (
	SourceDirect SourceTag = "direct_search"
	SourceWeb    SourceTag = "web_search"
)

// RawHit is one result item returned by a web search provider
type RawHit struct {
	URL     string    `json:"url"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Source  SourceTag `json:"source"`
}

// Candidate is a validated identifier found by a source connector
type Candidate struct {
	Identifier string    `json:"identifier"`
	Source     SourceTag `json:"source"`
	Origin     string    `json:"origin,omitempty"` // URL or endpoint that produced it
	Context    string    `json:"context,omitempty"`
	// SearchRelevance is the provisional pre-score, nil until assigned
	SearchRelevance *float64 `json:"search_relevance,omitempty"`
}

// HasRelevance reports whether a provisional score has been assigned
func (c Candidate) HasRelevance() bool {
	return c.SearchRelevance != nil
}

// Relevance returns the provisional score or def when unset
func (c Candidate) Relevance(def float64) float64 {
	if c.SearchRelevance == nil {
		return def
	}
	return *c.SearchRelevance
}

// Profile is the canonical enriched creator profile
type Profile struct {
	Identifier  string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Followers   int64  `json:"follower_count"`
	Following   int64  `json:"following_count"`
	Likes       int64  `json:"likes_count"`
	Verified    bool   `json:"verified"`
	AvatarURL   string `json:"profile_pic"`
	InternalID  string `json:"user_id,omitempty"`
	SecUID      string `json:"sec_uid,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Degraded    bool   `json:"degraded"`
}

// Placeholder builds the degraded record used when every provider fails
func Placeholder(identifier string) Profile {
	return Profile{
		Identifier:  identifier,
		DisplayName: identifier,
		Degraded:    true,
	}
}

// Video is one recent post used as scoring evidence
type Video struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Captions returns the non-empty captions of videos
func Captions(videos []Video) []string {
	captions := make([]string, 0, len(videos))
	for _, v := range videos {
		if v.Caption != "" {
			captions = append(captions, v.Caption)
		}
	}
	return captions
}
