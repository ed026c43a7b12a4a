// Package classifier decides from a raw utterance whether fashion context
// should be fetched before the model is called, and with which tag.
package classifier

import (
	"strings"
	"unicode"
)

// Kind is the kind of tool context to fetch.
type Kind string

const (
	KindTrend  Kind = "trend"
	KindTip    Kind = "tip"
	KindSeason Kind = "season"
)

// Request is an immutable tool context request derived from an utterance.
type Request struct {
	Kind Kind   `json:"kind"`
	Tag  string `json:"tag"`
}

// TagRule maps a set of keywords to a category or occasion tag.
type TagRule struct {
	Tag      string
	Keywords []string
}

// Rule detects one kind of context need. Rules are evaluated in order and the
// first whose Keywords match wins. Tags are then scanned in order; Default
// applies when none match.
type Rule struct {
	Kind     Kind
	Keywords []string
	Tags     []TagRule
	Default  string
}

var categoryTags = []TagRule{
	{Tag: "women", Keywords: []string{"women", "woman", "womens", "female", "ladies", "lady", "girl", "girls", "her"}},
	{Tag: "men", Keywords: []string{"men", "man", "mens", "male", "guy", "guys", "gents", "boy", "boys", "him"}},
	{Tag: "accessories", Keywords: []string{"accessory", "accessories", "bag", "bags", "handbag", "jewelry", "jewellery", "watch", "watches", "sunglasses", "belt", "belts", "scarf", "scarves"}},
}

// DefaultRules is the production rule table. Trend outranks season, which
// outranks occasion.
var DefaultRules = []Rule{
	{
		Kind:     KindTrend,
		Keywords: []string{"trend", "trends", "trending", "trendy", "popular", "latest", "current", "hot", "viral"},
		Tags:     categoryTags,
		Default:  "all",
	},
	{
		Kind:     KindSeason,
		Keywords: []string{"season", "seasonal", "spring", "summer", "autumn", "fall", "winter", "monsoon"},
		Tags:     categoryTags,
		Default:  "men",
	},
	{
		Kind:     KindTip,
		Keywords: []string{"office", "work", "formal", "party", "wedding", "casual", "occasion", "event", "interview", "meeting", "reception", "gala", "club", "weekend"},
		Tags: []TagRule{
			{Tag: "office", Keywords: []string{"office", "work", "interview", "meeting", "workplace"}},
			{Tag: "formal", Keywords: []string{"formal", "gala"}},
			{Tag: "party", Keywords: []string{"party", "club", "clubbing"}},
			{Tag: "wedding", Keywords: []string{"wedding", "reception", "bridal"}},
			{Tag: "casual", Keywords: []string{"casual", "weekend", "everyday"}},
		},
		Default: "casual",
	},
}

// Classifier applies a rule table to utterances. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New creates a classifier over rules, or DefaultRules when none are given.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the context request for utterance, or false when no rule
// matches. It never fails.
func (c *Classifier) Classify(utterance string) (Request, bool) {
	words := tokenize(utterance)
	if len(words) == 0 {
		return Request{}, false
	}

	for _, rule := range c.rules {
		if !containsAny(words, rule.Keywords) {
			continue
		}
		tag := rule.Default
		for _, t := range rule.Tags {
			if containsAny(words, t.Keywords) {
				tag = t.Tag
				break
			}
		}
		return Request{Kind: rule.Kind, Tag: tag}, true
	}

	return Request{}, false
}

// tokenize lower-cases s and splits it into letter runs, so "women" never
// matches the keyword "men" and "what's" yields "what" and "s".
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[f] = struct{}{}
	}
	return words
}

func containsAny(words map[string]struct{}, keywords []string) bool {
	for _, k := range keywords {
		if _, ok := words[k]; ok {
			return true
		}
	}
	return false
}
