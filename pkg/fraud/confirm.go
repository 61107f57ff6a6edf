package fraud

import (
	"sort"
	"strings"
	"unicode"
)

// Phrases that signal the customer made the transaction.
var positivePhrases = []string{
	"yes", "yeah", "yep", "yup", "correct", "right",
	"i did", "i made it", "i made that", "that was me", "it was me", "that's me",
	"i authorized", "i authorised", "i recognize", "i recognise", "legit", "legitimate",
}

// Phrases that signal the customer did not make it.
var negativePhrases = []string{
	"no", "nope", "nah", "never",
	"not me", "wasn't me", "was not me", "i didn't", "i did not",
	"don't recognize", "do not recognize", "don't recognise", "do not recognise",
	"not right", "not correct", "isn't right", "isn't correct", "not legit",
	"fraud", "fraudulent", "stolen", "unauthorized", "unauthorised",
}

// ClassifyConfirmation maps a free-text reply to "did you make this
// transaction?" onto an outcome. Phrases are matched on whole words after
// negative phrases have been consumed, so "I did not" never counts as "I did".
// A reply with both or neither signal is ambiguous and stays pending review.
func ClassifyConfirmation(reply string) Status {
	text := " " + normalizeReply(reply) + " "
	negative := false
	for _, phrase := range longestFirst(negativePhrases) {
		needle := " " + phrase + " "
		for strings.Contains(text, needle) {
			negative = true
			text = strings.Replace(text, needle, " ", 1)
		}
	}
	positive := false
	for _, phrase := range positivePhrases {
		if strings.Contains(text, " "+phrase+" ") {
			positive = true
			break
		}
	}
	switch {
	case positive && !negative:
		return StatusConfirmedSafe
	case negative && !positive:
		return StatusConfirmedFraud
	default:
		return StatusPendingReview
	}
}

func normalizeReply(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "’", "'"))
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func longestFirst(phrases []string) []string {
	out := append([]string(nil), phrases...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
