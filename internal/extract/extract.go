// Package extract pulls creator handles out of unstructured search-result text.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lox/creator-discovery/internal/types"
)

const (
	minLength = 2
	maxLength = 24
)

// pattern is one rule in the extraction battery. Rules with more than one
// capture group list the display-name group first and the handle group last.
type pattern struct {
	name    string
	re      *regexp.Regexp
	trusted bool
}

// handle captures greedily so that Valid rejects over-long runs instead of
// a truncated prefix slipping through
const handle = `([\w.]+)`

var battery = []pattern{
	{name: "url", trusted: true, re: regexp.MustCompile(`(?i)tiktok\.com/@` + handle)},
	{name: "mention", re: regexp.MustCompile(`(?:^|[^\w.@/])@` + handle + `\b`)},
	{name: "dot_list", re: regexp.MustCompile(`([\p{L}][\p{L}\p{N} ._'-]{0,40}?)\s*[·•]\s*@` + handle + `\b`)},
	{name: "paren", re: regexp.MustCompile(`([\p{L}][\p{L}\p{N} ._'-]{0,40}?)\s*\(@` + handle + `\)`)},
	{name: "numbered", re: regexp.MustCompile(`(?m)^\s*\d+[.)]\s+([^\n@]{1,40}?)\s+[-–:]\s+@` + handle + `\b`)},
	{name: "labeled", re: regexp.MustCompile(`(?i)\b(?:username|handle|account)\s*[:=]\s*@?` + handle + `\b`)},
	{name: "json", re: regexp.MustCompile(`(?i)"(?:username|handle|unique_?id)"\s*:\s*"@?` + handle + `"`)},
	{name: "markdown", re: regexp.MustCompile(`\[@?` + handle + `\]\(https?://[\w.]*tiktok\.com[^)]*\)`)},
}

var validIdentifier = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.]*$`)

var stopList = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"tiktok", "for", "top", "best", "from", "with", "has", "influencer", "creator",
		"africa", "south", "asia", "europe", "america", "north", "usa",
		"marketing", "business", "tech", "fashion", "beauty", "fitness", "food", "travel",
		"srsltid", "html", "www", "http", "https", "com", "net", "org",
		"influencers", "marketers", "followers", "popular", "discover", "account", "accounts",
		"users", "user", "handle", "profile", "website", "site", "page", "pages",
		"search", "find", "results", "trending", "viral", "famous", "category", "categories",
		"report", "analysis", "data", "stats", "statistics", "social", "media", "platform",
		"app", "rketing",
	} {
		stopList[w] = struct{}{}
	}
}

// Valid reports whether id is an acceptable handle
func Valid(id string) bool {
	if len(id) < minLength || len(id) > maxLength {
		return false
	}
	if !validIdentifier.MatchString(id) {
		return false
	}
	_, stop := stopList[strings.ToLower(id)]
	return !stop
}

// IsStopWord reports whether w is on the generic-word stop-list
func IsStopWord(w string) bool {
	_, ok := stopList[strings.ToLower(w)]
	return ok
}

type match struct {
	id      string
	offset  int
	trusted bool
}

// Extract returns the validated, case-folded handles found in the given
// search result fields, deduplicated in first-seen order. URL-embedded
// handles come first; everything else follows in text order.
func Extract(url, title, content string) []string {
	buf := strings.Join([]string{url, title, content}, "\n")

	var matches []match
	for _, p := range battery {
		for _, loc := range p.re.FindAllStringSubmatchIndex(buf, -1) {
			id, offset, ok := pick(buf, loc)
			if !ok {
				continue
			}
			matches = append(matches, match{id: id, offset: offset, trusted: p.trusted})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].trusted != matches[j].trusted {
			return matches[i].trusted
		}
		return matches[i].offset < matches[j].offset
	})

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.id)
	}
	return Dedupe(ids)
}

// FromHits runs Extract over each hit, stopping once limit identifiers are
// collected (limit <= 0 means no limit)
func FromHits(hits []types.RawHit, limit int) []types.Candidate {
	var out []types.Candidate
	seen := make(map[string]struct{})
	for _, h := range hits {
		for _, id := range Extract(h.URL, h.Title, h.Content) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, types.Candidate{
				Identifier: id,
				Source:     h.Source,
				Origin:     h.URL,
				Context:    snippet(h.Content, 300),
			})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// pick chooses the handle from a submatch: the last group is tried first,
// then the first group.
func pick(buf string, loc []int) (string, int, bool) {
	groups := len(loc)/2 - 1
	order := []int{groups}
	if groups > 1 {
		order = append(order, 1)
	}
	for _, g := range order {
		start, end := loc[2*g], loc[2*g+1]
		if start < 0 {
			continue
		}
		id := normalize(buf[start:end])
		if Valid(id) {
			return id, start, true
		}
	}
	return "", 0, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimPrefix(strings.TrimSpace(s), "@"), "."))
}

// Dedupe removes case-insensitive duplicates, keeping first-seen order
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		key := strings.ToLower(id)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}
	return out
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
