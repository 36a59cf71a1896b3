// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package cache

import (
	"strings"
	"sync"
)

// AhoCorasick finds every occurrence of a set of patterns in one pass over
// the text, in O(n + m + z) for text length n, total pattern length m and
// z matches. Matching is case-insensitive.
//
//	ac := NewAhoCorasick()
//	ac.AddPattern("headlesschrome", "headless")
//	ac.AddPattern("selenium", "automation")
//	ac.Build()
//	matches := ac.Search(userAgent)
type AhoCorasick struct {
	mu       sync.RWMutex
	root     *acNode
	patterns []Pattern
	built    bool
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int // indices into patterns ending here
}

// Pattern is a search term with caller data attached.
type Pattern struct {
	Text string
	Data any
}

// Match is one occurrence of a pattern. Position is a byte offset into the
// lower-cased text.
type Match struct {
	Pattern  string
	Data     any
	Position int
}

// NewAhoCorasick creates an empty automaton.
func NewAhoCorasick() *AhoCorasick {
	return &AhoCorasick{root: newACNode()}
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

// AddPattern registers a pattern. Build must be called again before searching.
func (ac *AhoCorasick) AddPattern(pattern string, data any) {
	if pattern == "" {
		return
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.patterns = append(ac.patterns, Pattern{Text: strings.ToLower(pattern), Data: data})
	ac.built = false
}

// AddPatterns registers several patterns sharing the same data.
func (ac *AhoCorasick) AddPatterns(patterns []string, data any) {
	for _, p := range patterns {
		ac.AddPattern(p, data)
	}
}

// Build constructs the trie and failure links.
func (ac *AhoCorasick) Build() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.built {
		return
	}

	ac.root = newACNode()
	for i, p := range ac.patterns {
		node := ac.root
		for _, ch := range p.Text {
			next, ok := node.children[ch]
			if !ok {
				next = newACNode()
				node.children[ch] = next
			}
			node = next
		}
		node.output = append(node.output, i)
	}

	queue := make([]*acNode, 0, len(ac.root.children))
	for _, child := range ac.root.children {
		child.failure = ac.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = ac.root
				continue
			}
			child.failure = fail.children[ch]
			child.output = append(child.output, child.failure.output...)
		}
	}

	ac.built = true
}

// Search returns all matches in text. An unbuilt automaton matches nothing.
func (ac *AhoCorasick) Search(text string) []Match {
	var matches []Match
	ac.walk(text, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

// SearchFirst returns the first match in text.
func (ac *AhoCorasick) SearchFirst(text string) (Match, bool) {
	var first Match
	found := false
	ac.walk(text, func(m Match) bool {
		first, found = m, true
		return false
	})
	return first, found
}

// Contains reports whether any pattern occurs in text.
func (ac *AhoCorasick) Contains(text string) bool {
	_, found := ac.SearchFirst(text)
	return found
}

// PatternCount returns the number of registered patterns.
func (ac *AhoCorasick) PatternCount() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return len(ac.patterns)
}

// walk feeds matches to yield until it returns false.
func (ac *AhoCorasick) walk(text string, yield func(Match) bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return
	}

	lower := strings.ToLower(text)
	node := ac.root

	for i, ch := range lower {
		for node != ac.root && node.children[ch] == nil {
			node = node.failure
		}
		next, ok := node.children[ch]
		if !ok {
			continue
		}
		node = next

		end := i + len(string(ch))
		for _, idx := range node.output {
			p := ac.patterns[idx]
			if !yield(Match{Pattern: p.Text, Data: p.Data, Position: end - len(p.Text)}) {
				return
			}
		}
	}
}

// UserAgentCategory labels a family of user-agent signatures.
type UserAgentCategory string

const (
	UACategoryAutomation UserAgentCategory = "automation"
	UACategoryHeadless   UserAgentCategory = "headless"
	UACategoryHTTPClient UserAgentCategory = "http_client"
	UACategoryCrawler    UserAgentCategory = "crawler"
	UACategoryAnonymizer UserAgentCategory = "anonymizer"
)

// DefaultUserAgentSignatures lists the substrings that mark a user agent as
// non-human, grouped by category.
var DefaultUserAgentSignatures = map[UserAgentCategory][]string{
	UACategoryAutomation: {
		"selenium", "webdriver", "puppeteer", "playwright", "phantomjs",
		"nightmare", "cypress", "slimerjs", "zombie.js",
	},
	UACategoryHeadless: {
		"headlesschrome", "headless",
	},
	UACategoryHTTPClient: {
		"python-requests", "python-urllib", "aiohttp", "curl/", "wget/",
		"go-http-client", "okhttp", "axios/", "node-fetch", "java/",
		"libwww-perl", "httpclient", "scrapy",
	},
	UACategoryCrawler: {
		"bot", "spider", "crawler", "scraper", "googlebot", "bingbot",
		"yandexbot", "baiduspider", "facebookexternalhit",
	},
	UACategoryAnonymizer: {
		"vpn", "proxy", "anonymizer", "tor browser",
	},
}

// UserAgentDetector classifies user-agent strings against signature families.
type UserAgentDetector struct {
	ac *AhoCorasick
}

// UserAgentVerdict is the detector output for one user agent.
type UserAgentVerdict struct {
	Categories map[UserAgentCategory]bool
	Matches    []Match
}

// Automated reports whether any automation, headless, HTTP client or crawler
// signature matched.
func (v UserAgentVerdict) Automated() bool {
	return v.Categories[UACategoryAutomation] || v.Categories[UACategoryHeadless] ||
		v.Categories[UACategoryHTTPClient] || v.Categories[UACategoryCrawler]
}

// NewUserAgentDetector builds a detector from signatures, or from
// DefaultUserAgentSignatures when signatures is nil.
func NewUserAgentDetector(signatures map[UserAgentCategory][]string) *UserAgentDetector {
	if signatures == nil {
		signatures = DefaultUserAgentSignatures
	}
	ac := NewAhoCorasick()
	for category, patterns := range signatures {
		ac.AddPatterns(patterns, category)
	}
	ac.Build()
	return &UserAgentDetector{ac: ac}
}

// Detect classifies userAgent.
func (d *UserAgentDetector) Detect(userAgent string) UserAgentVerdict {
	verdict := UserAgentVerdict{Categories: make(map[UserAgentCategory]bool)}
	for _, m := range d.ac.Search(userAgent) {
		if category, ok := m.Data.(UserAgentCategory); ok {
			verdict.Categories[category] = true
		}
		verdict.Matches = append(verdict.Matches, m)
	}
	return verdict
}

// IsAutomated is shorthand for Detect(userAgent).Automated().
func (d *UserAgentDetector) IsAutomated(userAgent string) bool {
	return d.Detect(userAgent).Automated()
}
