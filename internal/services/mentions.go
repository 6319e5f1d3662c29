package services

import (
	"sort"
	"strings"
)

// Segment is one piece of rendered text. UserID is empty for plain text and
// set for a clickable mention span.
type Segment struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// mentionCandidates returns directory entries ordered longest-name-first, so
// a short name never swallows a longer one it prefixes ("Ann" must not match
// where "Anna Smith" was mentioned).
func mentionCandidates(directory map[string]string) []struct{ id, name string } {
	candidates := make([]struct{ id, name string }, 0, len(directory))
	for id, name := range directory {
		if name == "" {
			continue
		}
		candidates = append(candidates, struct{ id, name string }{id, name})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].name) != len(candidates[j].name) {
			return len(candidates[i].name) > len(candidates[j].name)
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates
}

// matchAt tries to match a directory name right after an '@' at text[pos:].
func matchAt(text string, pos int, candidates []struct{ id, name string }) (id string, length int, ok bool) {
	rest := text[pos:]
	for _, c := range candidates {
		if len(rest) >= len(c.name) && strings.EqualFold(rest[:len(c.name)], c.name) {
			return c.id, len(c.name), true
		}
	}
	return "", 0, false
}

// ParseMentions scans text for @FullName substrings matched against the user
// directory (id → full name) and returns the distinct matched user ids in
// order of first appearance.
func ParseMentions(text string, directory map[string]string) []string {
	candidates := mentionCandidates(directory)
	seen := make(map[string]bool)
	var ids []string

	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		id, length, ok := matchAt(text, i+1, candidates)
		if !ok {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		i += length
	}
	return ids
}

// RenderMentions re-parses the same text against the same directory and
// splits it into plain and mention segments for clickable rendering.
func RenderMentions(text string, directory map[string]string) []Segment {
	candidates := mentionCandidates(directory)
	var segments []Segment
	plainStart := 0

	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		id, length, ok := matchAt(text, i+1, candidates)
		if !ok {
			continue
		}
		if i > plainStart {
			segments = append(segments, Segment{Text: text[plainStart:i]})
		}
		segments = append(segments, Segment{Text: text[i+1 : i+1+length], UserID: id})
		i += length
		plainStart = i + 1
	}
	if plainStart < len(text) {
		segments = append(segments, Segment{Text: text[plainStart:]})
	}
	return segments
}
