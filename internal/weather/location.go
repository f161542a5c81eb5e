package weather

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LocationTemplate is one phrasing a place name can be pulled out of.
type LocationTemplate struct {
	Name    string
	Pattern *regexp.Regexp
	// TrimLowercaseLead drops lowercase words in front of the first capitalized one,
	// for templates whose capture can swallow part of the sentence.
	TrimLowercaseLead bool
}

// end of a captured place: a trailing time word, punctuation or end of text.
const placeEnd = `(?:\s+(?:today|tonight|tomorrow|now|right now|this week|this weekend|please)\b|\s*[?.!,;]|\s*$)`

// LocationTemplates are evaluated in order and the first usable capture wins, so more
// specific phrasings must come before general ones ("weather in London" must never
// reach the bare-name template).
var LocationTemplates = []LocationTemplate{
	{
		Name:    "weather in X",
		Pattern: regexp.MustCompile(`(?i)\b(?:weather|temperature|forecast|climate|humidity|wind|rain)\s+(?:like\s+|going to be\s+)?(?:today\s+|tomorrow\s+|now\s+)?(?:in|at|for|around)\s+(\p{L}[\p{L}\s\-']*?)` + placeEnd),
	},
	{
		Name:    "is it raining in X",
		Pattern: regexp.MustCompile(`(?i)\b(?:is\s+it|will\s+it\s+be|will\s+it)\s+(?:raining|rain|sunny|cloudy|windy|cold|hot|warm|snowing|snow)\s+(?:in|at)\s+(\p{L}[\p{L}\s\-']*?)` + placeEnd),
	},
	{
		Name:    "in X weather",
		Pattern: regexp.MustCompile(`(?i)\b(?:in|at|for)\s+(\p{L}[\p{L}\-']*(?:\s+\p{L}[\p{L}\-']*){0,2})(?:'s)?\s+(?:weather|forecast|temperature)\b`),
	},
	{
		Name:              "X weather",
		Pattern:           regexp.MustCompile(`(?i)(?:^|[\s,;:])(\p{L}[\p{L}\-']*(?:\s+\p{L}[\p{L}\-']*){0,2})(?:'s)?\s+(?:weather|forecast|temperature)\b`),
		TrimLowercaseLead: true,
	},
	{
		Name:    "bare X",
		Pattern: regexp.MustCompile(`^\s*(\p{Lu}\p{Ll}+(?:[\s\-]\p{Lu}\p{Ll}+){0,2})\s*[?.!]*\s*$`),
	},
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// question words
		"what", "what's", "whats", "where", "when", "how", "how's", "hows", "why", "who", "which",
		"is", "are", "was", "will", "would", "could", "can", "should", "do", "does", "did",
		// imperatives and filler
		"tell", "show", "give", "get", "check", "find", "let", "know", "please", "me", "us", "i", "i'm", "i'd", "you",
		"my", "your", "it", "the", "a", "an", "and", "or", "of", "to", "about", "like", "in", "at", "for",
		"hello", "hi", "hey", "thanks", "thank", "good", "morning", "evening", "today", "tonight", "eubyte",
		"tomorrow", "now", "right", "this", "week", "weekend", "current", "currently", "local",
		// weather vocabulary
		"weather", "temperature", "forecast", "rain", "raining", "sunny", "cloudy", "wind", "windy",
		"humidity", "climate", "hot", "cold", "warm", "snow", "snowing", "outside",
	} {
		stopWords[w] = struct{}{}
	}
}

func isStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

// ExtractLocation guesses a place name from free chat text. It is a best-effort
// heuristic, not geocoding: the result is only ever used as a weather query.
func ExtractLocation(message string) (string, bool) {
	for _, tpl := range LocationTemplates {
		m := tpl.Pattern.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		capture := m[1]
		if tpl.TrimLowercaseLead {
			capture = trimLowercaseLead(capture)
		}
		if place := cleanPlace(capture); place != "" {
			return place, true
		}
	}
	return firstCapitalized(message)
}

// cleanPlace trims punctuation and drops leading stop words; an all-stop-word capture
// ("what is the weather") yields "".
func cleanPlace(raw string) string {
	words := strings.Fields(strings.TrimRight(strings.TrimSpace(raw), "?.!,;:"))
	for len(words) > 0 && isStopWord(strings.Trim(words[0], "?.!,;:'\"")) {
		words = words[1:]
	}
	for len(words) > 0 && isStopWord(strings.Trim(words[len(words)-1], "?.!,;:'\"")) {
		words = words[:len(words)-1]
	}
	place := strings.TrimRight(strings.Join(words, " "), "?.!,;:'\"")
	return strings.TrimSuffix(place, "'s")
}

// trimLowercaseLead keeps the capture from its first capitalized word on;
// all-lowercase captures are returned unchanged.
func trimLowercaseLead(raw string) string {
	words := strings.Fields(raw)
	for i, w := range words {
		if r, _ := utf8.DecodeRuneInString(w); unicode.IsUpper(r) {
			return strings.Join(words[i:], " ")
		}
	}
	return raw
}

func firstCapitalized(message string) (string, bool) {
	for _, tok := range strings.Fields(message) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(tok) < 3 {
			continue
		}
		first, _ := utf8.DecodeRuneInString(tok)
		if !unicode.IsUpper(first) || isStopWord(tok) {
			continue
		}
		return tok, true
	}
	return "", false
}

var weatherKeywords = []string{
	"weather", "temperature", "forecast", "rain", "sunny", "cloudy", "wind", "humidity", "climate",
}

// MentionsWeather reports whether the text contains any weather vocabulary.
func MentionsWeather(text string) bool {
	tl := strings.ToLower(text)
	for _, kw := range weatherKeywords {
		if strings.Contains(tl, kw) {
			return true
		}
	}
	return false
}
