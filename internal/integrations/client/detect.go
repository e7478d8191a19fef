package client

import "regexp"

var decisionPhrases = regexp.MustCompile(`(?i)decision|decided|go with|agreed to|we will|let's do`)

// LooksLikeDecision reports whether a chat message reads like a team decision.
// Bots use it to offer a one-click capture; it never creates anything itself.
func LooksLikeDecision(text string) bool {
	return decisionPhrases.MatchString(text)
}
