package meetingextract

import "strings"

var transcriptHeaderPrefixes = []string{"회의록:", "회의록", "meeting notes:", "meeting notes"}

// ParseTranscriptLines turns a free-form pasted note (optionally starting
// with a "회의록:" header, one utterance per line, "speaker: text") into
// speaker/text pairs; a line with no colon is attributed to "참석자". Each
// line is stamped 20s apart starting at t=0, matching the chat-registered
// meeting path that has no real recording clock.
func ParseTranscriptLines(text string) []TranscriptPair {
	cleaned := strings.TrimSpace(text)
	lowered := strings.ToLower(cleaned)
	for _, prefix := range transcriptHeaderPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}

	var lines []string
	for _, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = []string{cleaned}
	}

	out := make([]TranscriptPair, 0, len(lines))
	for i, line := range lines {
		speaker, utterance := "참석자", line
		if idx := strings.Index(line, ":"); idx >= 0 {
			s := strings.TrimSpace(line[:idx])
			u := strings.TrimSpace(line[idx+1:])
			if s != "" {
				speaker = s
			}
			if u != "" {
				utterance = u
			}
		}
		out = append(out, TranscriptPair{TsMs: int64(i) * 20000, Speaker: speaker, Text: utterance})
	}
	return out
}

// TranscriptPair is the speaker/text/offset triple parsed out of a pasted
// note, shaped to convert 1:1 into domain.TranscriptLine.
type TranscriptPair struct {
	TsMs    int64
	Speaker string
	Text    string
}
