// Package mentions extracts @-mentions from comment content and resolves
// them against candidate users for notification dispatch.
package mentions

import (
	"regexp"
	"strings"

	"colloquy/internal/models"
)

// mentionRe requires the @ to start the string or follow a non-word
// character, so email addresses in the content are not read as mentions.
var mentionRe = regexp.MustCompile(`(?:^|[^\w@])@(\w+)`)

// Resolved is one mention matched to a real user.
type Resolved struct {
	UserID      uint
	DisplayName string
	Token       string
}

// Resolver matches extracted tokens against user display names.
// Matching is case-insensitive with whitespace stripped, so "@janedoe"
// resolves the display name "Jane Doe".
type Resolver struct {
	maxMentions int
}

// NewResolver returns a Resolver that caps extraction at maxMentions tokens
// per comment.
func NewResolver(maxMentions int) *Resolver {
	return &Resolver{maxMentions: maxMentions}
}

// Extract returns the deduplicated, lowercased mention tokens in content, in
// order of first appearance, capped at the configured maximum.
func (r *Resolver) Extract(content string) []string {
	matches := mentionRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		token := strings.ToLower(m[1])
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
		if len(tokens) == r.maxMentions {
			break
		}
	}
	return tokens
}

// Resolve matches content's mention tokens against candidates, excluding the
// author's own account. Candidates whose normalized display name equals a
// token are returned once each, in token order.
func (r *Resolver) Resolve(content string, candidates []models.User, authorID *uint) []Resolved {
	tokens := r.Extract(content)
	if len(tokens) == 0 {
		return nil
	}

	byName := make(map[string]*models.User, len(candidates))
	for i := range candidates {
		byName[NormalizeName(candidates[i].DisplayName)] = &candidates[i]
	}

	out := make([]Resolved, 0, len(tokens))
	for _, token := range tokens {
		user, ok := byName[token]
		if !ok {
			continue
		}
		if authorID != nil && user.ID == *authorID {
			continue // self-mentions never notify
		}
		out = append(out, Resolved{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			Token:       token,
		})
	}
	return out
}

// NormalizeName lowercases a display name and strips all whitespace, producing
// the token form used for matching ("Jane Doe" -> "janedoe").
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
