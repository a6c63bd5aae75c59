// Package retrieval classifies free-text queries into one of five
// strategies and routes each to the store adapter (vector, temporal,
// pickaxe, blame, structured) or the version-control tool directly,
// merging and deduplicating results by chunk ID.
package retrieval

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Strategy is the closed enumeration of retrieval paths a query can take.
type Strategy string

const (
	StrategyPickaxe        Strategy = "pickaxe"
	StrategyBlame          Strategy = "blame"
	StrategyTemporalVector Strategy = "temporal_vector"
	StrategyStructuredGit  Strategy = "structured_git"
	StrategyVector         Strategy = "vector"
)

// Classification is the dispatcher's decision for one query: which
// strategy to route through and the parameters extracted from the query
// text that strategy needs.
type Classification struct {
	Strategy       Strategy
	SearchString   string // pickaxe
	File           string // blame, structured_git
	Line           int    // blame
	DateCutoff     string // temporal_vector: ISO date, exclusive lower bound
	Author         string // structured_git
}

var (
	pickaxeRe = regexp.MustCompile(`(?i)when was ([a-zA-Z0-9_.]+) (?:introduced|added|removed)|first (?:introduced|added) ([a-zA-Z0-9_.]+)`)
	blameRe   = regexp.MustCompile(`(?i)who (?:wrote|changed|modified)|this (?:line|function)|blame`)
	blameFile = regexp.MustCompile(`\S+\.\w{1,5}`)
	blameLine = regexp.MustCompile(`(?i)line\s*(\d+)`)

	temporalRe = regexp.MustCompile(`(?i)recently|last week|last month|yesterday|this year|since|\b20\d{2}\b`)

	structuredRe    = regexp.MustCompile(`(?i)what changed in|commits by|in (\S+\.\w{1,5})`)
	structuredAuth  = regexp.MustCompile(`(?i)commits by (\S+(?:\s+\S+)?)`)
	structuredFile  = regexp.MustCompile(`(?i)(?:what changed in|in)\s+(\S+\.\w{1,5})`)
)

// Classify inspects query and returns the strategy it routes to plus any
// parameters that strategy extracts from the text. now is injected so
// temporal-cutoff computation stays deterministic in tests.
func Classify(queryText string, now time.Time) Classification {
	if m := pickaxeRe.FindStringSubmatch(queryText); m != nil {
		target := m[1]
		if target == "" {
			target = m[2]
		}
		return Classification{Strategy: StrategyPickaxe, SearchString: target}
	}

	if blameRe.MatchString(queryText) {
		c := Classification{Strategy: StrategyBlame}
		if m := blameFile.FindString(queryText); m != "" {
			c.File = m
		}
		if m := blameLine.FindStringSubmatch(queryText); m != nil {
			c.Line, _ = strconv.Atoi(m[1])
		}
		return c
	}

	if temporalRe.MatchString(queryText) {
		return Classification{Strategy: StrategyTemporalVector, DateCutoff: temporalCutoff(queryText, now)}
	}

	if structuredRe.MatchString(queryText) {
		c := Classification{Strategy: StrategyStructuredGit}
		if m := structuredAuth.FindStringSubmatch(queryText); m != nil {
			c.Author = strings.TrimSpace(m[1])
		}
		if m := structuredFile.FindStringSubmatch(queryText); m != nil {
			c.File = m[1]
		}
		return c
	}

	return Classification{Strategy: StrategyVector}
}

// temporalCutoff converts a time-expression trigger into an ISO-8601
// cutoff date, used as `date > 'cutoff'` by the vector store's
// GTDate predicate.
func temporalCutoff(queryText string, now time.Time) string {
	lower := strings.ToLower(queryText)
	var cutoff time.Time
	switch {
	case strings.Contains(lower, "yesterday"):
		cutoff = now.AddDate(0, 0, -1)
	case strings.Contains(lower, "last week"):
		cutoff = now.AddDate(0, 0, -7)
	case strings.Contains(lower, "last month"):
		cutoff = now.AddDate(0, -1, 0)
	case strings.Contains(lower, "this year"):
		cutoff = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	case strings.Contains(lower, "recently"):
		cutoff = now.AddDate(0, 0, -14)
	default:
		if m := regexp.MustCompile(`\b(20\d{2})\b`).FindStringSubmatch(lower); m != nil {
			year, _ := strconv.Atoi(m[1])
			cutoff = time.Date(year, 1, 1, 0, 0, 0, 0, now.Location())
		} else if strings.Contains(lower, "since") {
			cutoff = now.AddDate(0, -1, 0)
		} else {
			cutoff = now.AddDate(-100, 0, 0)
		}
	}
	return cutoff.UTC().Format(time.RFC3339)
}
