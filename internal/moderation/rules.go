package moderation

import "regexp"

// Default rule tables. These are the compiled-in baseline; an operator can
// swap them out through Engine options without touching the decision ladder.

var defaultSpamKeywords = []string{
	"buy now",
	"click here",
	"limited offer",
	"act now",
	"free money",
	"make money fast",
	"work from home",
	"100% free",
	"no obligation",
	"winner",
	"congratulations you",
	"crypto giveaway",
	"investment opportunity",
	"casino",
	"viagra",
}

var defaultProfanity = []string{
	"damn",
	"hell",
	"crap",
	"bastard",
	"bollocks",
	"bullshit",
	"asshole",
	"shit",
	"fuck",
}

var (
	// Four or more of the same character in a row ("loooool", "!!!!").
	repeatedRunRe = regexp.MustCompile(`(.)\1{3,}`)

	// Tokens that are mostly digits, a common spam signature for phone
	// numbers and promo codes.
	digitHeavyRe = regexp.MustCompile(`\b\d[\d\-]{6,}\b`)

	// Bare links.
	linkRe = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+\.\S+`)

	wordRe = regexp.MustCompile(`[A-Za-z]+`)
)

// containsLink reports whether the content carries at least one URL.
func containsLink(content string) bool {
	return linkRe.MatchString(content)
}

// excessiveCaps reports whether more than 70% of the letters are uppercase,
// ignoring short strings where a few capitals dominate by accident.
func excessiveCaps(content string) bool {
	var letters, upper int
	for _, r := range content {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
			upper++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	if letters < 12 {
		return false
	}
	return float64(upper)/float64(letters) > 0.7
}
