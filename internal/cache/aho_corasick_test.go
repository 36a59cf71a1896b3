// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package cache

import (
	"sync"
	"testing"
)

func TestAhoCorasick_Search(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("he", 1)
	ac.AddPattern("she", 2)
	ac.AddPattern("his", 3)
	ac.AddPattern("hers", 4)
	ac.Build()

	matches := ac.Search("ushers")
	got := make(map[string]int)
	for _, m := range matches {
		got[m.Pattern] = m.Position
	}

	want := map[string]int{"she": 1, "he": 2, "hers": 2}
	if len(got) != len(want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
	for p, pos := range want {
		if got[p] != pos {
			t.Errorf("position of %q = %d, want %d", p, got[p], pos)
		}
	}
}

func TestAhoCorasick_CaseInsensitive(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("HeadlessChrome", nil)
	ac.Build()

	if !ac.Contains("Mozilla/5.0 HEADLESSCHROME/120") {
		t.Error("expected case-insensitive match")
	}
}

func TestAhoCorasick_NotBuilt(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("selenium", nil)

	if ac.Contains("selenium") {
		t.Error("unbuilt automaton should not match")
	}

	ac.Build()
	if !ac.Contains("selenium") {
		t.Error("built automaton should match")
	}

	ac.AddPattern("puppeteer", nil)
	if ac.Contains("puppeteer") {
		t.Error("adding a pattern should require a rebuild")
	}
}

func TestAhoCorasick_EmptyPatternIgnored(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("", nil)
	if ac.PatternCount() != 0 {
		t.Errorf("PatternCount = %d, want 0", ac.PatternCount())
	}
}

func TestAhoCorasick_SearchFirst(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPatterns([]string{"curl/", "wget/"}, "client")
	ac.Build()

	m, ok := ac.SearchFirst("agent wget/1.21 then curl/8.0")
	if !ok || m.Pattern != "wget/" || m.Data != "client" {
		t.Errorf("SearchFirst = %+v, %v", m, ok)
	}
}

func TestAhoCorasick_Concurrent(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPatterns([]string{"bot", "spider"}, nil)
	ac.Build()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !ac.Contains("Googlebot/2.1") {
					t.Error("expected match")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestUserAgentDetector(t *testing.T) {
	d := NewUserAgentDetector(nil)

	tests := []struct {
		name      string
		ua        string
		automated bool
		category  UserAgentCategory
	}{
		{"headless chrome", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 HeadlessChrome/120.0", true, UACategoryHeadless},
		{"selenium", "Mozilla/5.0 Selenium/4.1", true, UACategoryAutomation},
		{"python requests", "python-requests/2.31.0", true, UACategoryHTTPClient},
		{"crawler", "Mozilla/5.0 (compatible; Googlebot/2.1)", true, UACategoryCrawler},
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := d.Detect(tt.ua)
			if verdict.Automated() != tt.automated {
				t.Errorf("Automated = %v, want %v (matches %+v)", verdict.Automated(), tt.automated, verdict.Matches)
			}
			if tt.category != "" && !verdict.Categories[tt.category] {
				t.Errorf("expected category %s, got %v", tt.category, verdict.Categories)
			}
		})
	}
}

func TestUserAgentDetector_AnonymizerIsNotAutomation(t *testing.T) {
	d := NewUserAgentDetector(nil)
	verdict := d.Detect("SomeApp VPN client")
	if !verdict.Categories[UACategoryAnonymizer] {
		t.Error("expected anonymizer category")
	}
	if verdict.Automated() {
		t.Error("anonymizer alone should not count as automation")
	}
}
