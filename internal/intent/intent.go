// Package intent maps final transcripts onto the fixed command grammar.
// Parsing is deliberately rigid: a transcript either matches one of the
// known phrasings exactly or it is Unknown. There is no fuzzy matching and
// no free-form understanding.
package intent

import (
	"regexp"
	"strings"
)

// Kind identifies one of the supported commands.
type Kind int

const (
	// Unknown is the fallback for anything the grammar does not cover.
	Unknown Kind = iota
	Play
	NowPlaying
	Pause
	Resume
	Next
	Clear
	Stop
)

var kindNames = map[Kind]string{
	Unknown:    "unknown",
	Play:       "play",
	NowPlaying: "now-playing",
	Pause:      "pause",
	Resume:     "resume",
	Next:       "next",
	Clear:      "clear",
	Stop:       "stop",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Intent is one parsed command. Raw always holds the transcript exactly as
// it was handed to Parse so Unknown intents can be reported verbatim.
type Intent struct {
	Kind Kind

	// Song is the requested track or search query. Only set for Play.
	Song string

	// Raw is the transcript that was parsed, untouched.
	Raw string
}

// pattern pairs a compiled regex with the Kind it produces. Group 1, when
// present, carries the song query.
type pattern struct {
	re   *regexp.Regexp
	kind Kind
}

var patterns = []pattern{
	// Play needs a non-empty query: "play" alone or "play " with nothing
	// after it stays Unknown.
	{regexp.MustCompile(`(?i)^play\s+(\S.*)$`), Play},
	{regexp.MustCompile(`(?i)^(?:now\s+playing|what(?:'s|\s+is)\s+playing)$`), NowPlaying},
	{regexp.MustCompile(`(?i)^pause$`), Pause},
	{regexp.MustCompile(`(?i)^(?:resume|unpause|continue)$`), Resume},
	{regexp.MustCompile(`(?i)^(?:next|skip)$`), Next},
	{regexp.MustCompile(`(?i)^(?:clear|clear\s+(?:the\s+)?queue)$`), Clear},
	{regexp.MustCompile(`(?i)^stop$`), Stop},
}

// Parse matches a final transcript against the command grammar. Matching
// runs over a trimmed copy with trailing punctuation stripped; Raw keeps
// the input untouched.
func Parse(text string) Intent {
	cleaned := normalize(text)
	if cleaned == "" {
		return Intent{Kind: Unknown, Raw: text}
	}
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		in := Intent{Kind: p.kind, Raw: text}
		if p.kind == Play {
			in.Song = strings.TrimSpace(m[1])
		}
		return in
	}
	return Intent{Kind: Unknown, Raw: text}
}

// normalize trims whitespace and the sentence punctuation STT likes to
// append. Interior punctuation is left alone so song titles survive.
func normalize(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimRight(s, ".!?,")
	return strings.TrimSpace(s)
}

// StripWakePhrase removes a leading wake phrase (plus separating
// punctuation) from a transcript. The keyword scan window can bleed into
// the utterance, leaving the wake phrase at the front of the command.
func StripWakePhrase(text, phrase string) string {
	if phrase == "" {
		return text
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(phrase) {
		return text
	}
	if !strings.EqualFold(trimmed[:len(phrase)], phrase) {
		return text
	}
	rest := trimmed[len(phrase):]
	if rest != "" && !isSeparator(rest[0]) {
		// The phrase is a prefix of a longer word ("jarvisson").
		return text
	}
	return strings.TrimLeft(rest, " \t,.!?:;")
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '\t', ',', '.', '!', '?', ':', ';':
		return true
	}
	return false
}
