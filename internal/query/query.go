// Package query derives topic, location and role terms from a free-text
// creator search.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lox/creator-discovery/internal/types"
)

// creatorNouns mark a query as looking for an individual creator
var creatorNouns = []string{
	"influencer", "influencers", "creator", "creators", "tiktoker", "tiktokers",
	"blogger", "bloggers", "vlogger", "vloggers", "youtuber", "youtubers", "personality", "personalities",
}

// professionNouns are roles a creator's bio can claim
var professionNouns = []string{
	"expert", "experts", "chef", "chefs", "cook", "doctor", "doctors", "nurse", "engineer", "engineers",
	"developer", "developers", "coach", "coaches", "trainer", "trainers", "lawyer", "lawyers",
	"teacher", "teachers", "photographer", "photographers", "designer", "designers", "artist", "artists",
	"comedian", "comedians", "dancer", "dancers", "musician", "musicians", "analyst", "analysts",
	"researcher", "researchers", "consultant", "consultants", "hacker", "hackers", "specialist",
	"specialists", "professional", "professionals", "entrepreneur", "entrepreneurs", "stylist", "stylists",
}

var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "top": {}, "best": {}, "most": {}, "popular": {}, "famous": {},
	"on": {}, "of": {}, "in": {}, "from": {}, "for": {}, "and": {}, "or": {}, "who": {}, "with": {}, "that": {}, "about": {},
	"tiktok": {}, "accounts": {}, "account": {}, "content": {}, "find": {}, "me": {}, "some": {},
	"good": {}, "great": {}, "make": {}, "makes": {}, "making": {}, "create": {}, "creates": {}, "post": {}, "posts": {},
}

var (
	wordPattern         = regexp.MustCompile(`[\p{L}\p{N}+#]+`)
	locationPreposition = regexp.MustCompile(`(?i)\s(?:from|in|based in)\s`)
)

// Analyze builds a SearchQuery from raw text
func Analyze(raw string) types.SearchQuery {
	raw = strings.TrimSpace(raw)
	q := types.SearchQuery{Raw: raw}

	topicPart, locationPart := SplitLocation(raw)
	if locationPart != "" {
		q.LocationTerms = words(locationPart)
	}

	for _, w := range words(raw) {
		switch {
		case contains(creatorNouns, w):
			q.SeekingCreator = true
		case contains(professionNouns, w):
			q.SeekingCreator = true
			q.ProfessionTerms = appendUnique(q.ProfessionTerms, singular(w))
		}
	}

	for _, w := range words(topicPart) {
		if contains(creatorNouns, w) || contains(professionNouns, w) {
			continue
		}
		if _, filler := fillerWords[w]; filler {
			continue
		}
		q.TopicTerms = appendUnique(q.TopicTerms, w)
	}
	return q
}

// knownPlaces lets a lowercase "in <place>" count as a location
var knownPlaces = map[string]struct{}{
	"africa": {}, "asia": {}, "europe": {}, "america": {}, "australia": {}, "oceania": {},
	"south": {}, "north": {}, "east": {}, "west": {}, "central": {}, "new": {}, "los": {}, "san": {},
	"nigeria": {}, "lagos": {}, "abuja": {}, "kenya": {}, "nairobi": {}, "ghana": {}, "accra": {},
	"egypt": {}, "cairo": {}, "morocco": {}, "ethiopia": {}, "uganda": {}, "tanzania": {},
	"usa": {}, "us": {}, "uk": {}, "uae": {}, "canada": {}, "mexico": {}, "brazil": {}, "argentina": {},
	"london": {}, "paris": {}, "berlin": {}, "madrid": {}, "rome": {}, "dubai": {}, "tokyo": {},
	"seoul": {}, "india": {}, "mumbai": {}, "delhi": {}, "pakistan": {}, "indonesia": {}, "philippines": {},
	"germany": {}, "france": {}, "spain": {}, "italy": {}, "japan": {}, "korea": {}, "china": {},
	"toronto": {}, "chicago": {}, "miami": {}, "texas": {}, "california": {}, "florida": {},
}

// SplitLocation splits on the last location preposition, returning the
// topic part and location part. "from" and "based in" always introduce a
// location; a bare "in" only does when the next word is capitalized or a
// known place, so "influencers in tech" keeps tech as the topic.
func SplitLocation(raw string) (topic, location string) {
	padded := " " + raw + " "
	locs := locationPreposition.FindAllStringIndex(padded, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		rest := strings.Trim(strings.TrimSpace(padded[loc[1]:]), ".,!?")
		if rest == "" {
			continue
		}
		prep := strings.ToLower(strings.TrimSpace(padded[loc[0]:loc[1]]))
		if prep == "in" && !placeLike(strings.Fields(rest)[0]) {
			continue
		}
		return strings.TrimSpace(padded[:loc[0]]), rest
	}
	return raw, ""
}

func placeLike(word string) bool {
	word = strings.Trim(word, ".,!?")
	if word == "" {
		return false
	}
	if r := []rune(word)[0]; unicode.IsUpper(r) {
		return true
	}
	_, ok := knownPlaces[strings.ToLower(word)]
	return ok
}

// StripRoleNouns removes creator nouns, leaving the subject of the query
func StripRoleNouns(raw string) string {
	var kept []string
	for _, f := range strings.Fields(raw) {
		if contains(creatorNouns, strings.ToLower(strings.Trim(f, ".,!?"))) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// IsCreatorNoun reports whether w names a creator type
func IsCreatorNoun(w string) bool {
	return contains(creatorNouns, strings.ToLower(w))
}

func words(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

func contains(list []string, w string) bool {
	for _, item := range list {
		if item == w {
			return true
		}
	}
	return false
}

func appendUnique(list []string, w string) []string {
	if contains(list, w) {
		return list
	}
	return append(list, w)
}

func singular(w string) string {
	switch {
	case strings.HasSuffix(w, "ches"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return strings.TrimSuffix(w, "s")
	default:
		return w
	}
}
