// Package niche detects creators genuinely focused on security and privacy,
// as opposed to accounts that only carry the words in their handle.
package niche

import (
	"strings"

	"github.com/lox/creator-discovery/internal/types"
)

// MinScore is the lowest niche score kept by the niche filter
const MinScore = 0.2

var detectorTerms = []string{
	"security", "privacy", "cybersecurity", "hacker", "hacking", "infosec",
	"cyber", "encryption", "vpn", "data protection", "opsec", "osint",
	"penetration test", "pentest", "secure", "protection", "firewall",
	"malware", "phishing", "breach", "exploit", "vulnerability", "ciso",
	"security expert", "security professional", "privacy advocate", "digital privacy",
	"identity theft", "online safety", "digital security", "threat", "cybercrime",
	"cyberthreats", "secure messaging", "2fa", "mfa", "authentication",
	"security awareness", "security tips", "privacy tips", "data breach", "information security",
	"personal data", "surveillance", "cyber attack", "digital footprint", "anonymity",
}

var professionalTerms = []string{
	"security researcher", "privacy researcher", "cybersecurity expert", "ethical hacker",
	"security analyst", "privacy advocate", "infosec", "security engineer", "ciso",
	"security professional", "cybersecurity professional", "penetration tester",
	"privacy lawyer", "cybersecurity consultant", "security specialist", "digital forensics",
	"security consultant", "security advisor", "privacy consultant", "security auditor",
	"red team", "blue team", "security architect", "information security", "it security",
}

var credentials = []string{"cissp", "ceh", "security+", "sec+", "cisa", "oscp", "ccsp"}

var displayNameTerms = []string{"security", "cyber", "hacker", "privacy", "infosec", "encryption", "malware", "digital safety"}

var scoringTerms = []string{
	"security", "privacy", "cybersecurity", "hacker", "infosec", "cyber",
	"encryption", "vpn", "data protection", "malware", "phishing",
	"exploit", "vulnerability", "threat", "secure", "authentication",
	"information security", "digital privacy", "identity protection",
}

var queryTerms = []string{
	"security", "privacy", "cybersecurity", "cyber", "infosec", "hacker", "hacking",
	"encryption", "data protection", "opsec", "osint", "pentest", "malware", "phishing",
}

// follower tiers for the niche score, highest first
var followerTiers = []struct {
	above int64
	score float64
}{
	{500_000, 0.5},
	{100_000, 0.4},
	{50_000, 0.3},
	{10_000, 0.2},
	{5_000, 0.1},
	{1_000, 0.05},
}

// Concerns reports whether a query is about security or privacy
func Concerns(raw string) bool {
	return countTerms(strings.ToLower(raw), queryTerms) > 0
}

// SubTopics names the niche sub-topics a query mentions, for query rewriting
func SubTopics(raw string) []string {
	lower := strings.ToLower(raw)
	var topics []string
	if strings.Contains(lower, "security") || strings.Contains(lower, "cyber") || strings.Contains(lower, "infosec") || strings.Contains(lower, "hack") {
		topics = append(topics, "cybersecurity")
	}
	if strings.Contains(lower, "privacy") || strings.Contains(lower, "data protection") {
		topics = append(topics, "data privacy")
	}
	if len(topics) == 0 {
		topics = append(topics, "cybersecurity")
	}
	return topics
}

// Focused applies the strict niche rules: a follower minimum that is higher
// for generic handles, then any of a security display name with a real
// audience, professional vocabulary, two or more bio terms, a credential, or
// mostly on-topic recent captions.
func Focused(p types.Profile, captions []string) bool {
	if genericHandle(p.Identifier) {
		if p.Followers < 5000 {
			return false
		}
	} else if p.Followers < 1000 {
		return false
	}

	name := strings.ToLower(p.DisplayName)
	if p.Followers > 10_000 && countTerms(name, displayNameTerms) > 0 {
		return true
	}

	bio := strings.ToLower(p.Bio)
	if bio != "" {
		if countTerms(bio, professionalTerms) > 0 {
			return true
		}
		if countTerms(bio, detectorTerms) >= 2 {
			return true
		}
		if countTerms(bio, credentials) > 0 {
			return true
		}
	}

	if len(captions) >= 3 {
		onTopic := 0
		for _, c := range head(captions, 8) {
			if countTerms(strings.ToLower(c), detectorTerms) > 0 {
				onTopic++
			}
		}
		needed := float64(len(captions)) / 2
		if needed > 4 {
			needed = 4
		}
		if float64(onTopic) >= needed {
			return true
		}
	}
	return false
}

// Score is the continuous niche relevance in [0,1]
func Score(p types.Profile, captions []string) float64 {
	score := 0.0
	for _, tier := range followerTiers {
		if p.Followers > tier.above {
			score += tier.score
			break
		}
	}

	if countTerms(strings.ToLower(p.DisplayName), scoringTerms) > 0 {
		score += 0.2
	}

	if n := countTerms(strings.ToLower(p.Bio), scoringTerms); n > 0 {
		score += minf(0.4, float64(n)*0.1)
	}

	weighted := 0.0
	for i, c := range head(captions, 5) {
		if countTerms(strings.ToLower(c), scoringTerms) > 0 {
			// newer captions weigh more
			weighted += 1 - float64(i)*0.1
		}
	}
	score += minf(0.3, weighted*0.1)

	handle := strings.ToLower(p.Identifier)
	switch {
	case strings.Contains(handle, "cyber"), strings.Contains(handle, "infosec"), strings.Contains(handle, "malware"):
		score += 0.15
	case genericHandle(handle):
		score += 0.1
	}

	if genericHandle(handle) && strings.TrimSpace(p.Bio) == "" && p.Followers < 5000 {
		score -= 0.5
	}
	return types.Clamp(score)
}

func genericHandle(handle string) bool {
	h := strings.ToLower(handle)
	return strings.Contains(h, "privacy") || strings.Contains(h, "security")
}

func countTerms(text string, terms []string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
