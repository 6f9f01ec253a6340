package planner

import (
	"regexp"
	"strings"
)

var referenceTokens = []string{"그거", "그 일정", "그 작업", "이거", "방금", "아까", "that", "it", "those"}

var yesTokens = map[string]bool{
	"응": true, "네": true, "예": true, "승인": true, "확인": true, "좋아": true, "진행": true,
	"ok": true, "yes": true, "approve": true, "go ahead": true,
}
var noTokens = map[string]bool{
	"아니": true, "아니요": true, "거절": true, "취소": true, "중단": true, "안해": true,
	"no": true, "nope": true, "reject": true, "cancel": true, "stop": true,
}

// HasReferencePhrase reports whether text uses an anaphoric reference
// ("that one", "it") rather than naming a target explicitly.
func HasReferencePhrase(text string) bool {
	lowered := strings.ToLower(text)
	for _, tok := range referenceTokens {
		if strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}

// IsAffirmative reports whether text is a yes/approve style reply.
func IsAffirmative(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}
	if yesTokens[lowered] {
		return true
	}
	for _, tok := range []string{"승인해", "진행해", "yes", "approve", "go ahead"} {
		if strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}

// IsNegative reports whether text is a no/reject style reply.
func IsNegative(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}
	if noTokens[lowered] {
		return true
	}
	for _, tok := range []string{"거절", "취소", "cancel", "reject", "멈춰"} {
		if strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}

var uuidRe = regexp.MustCompile(`\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)

// ExtractUUID pulls the first UUID-looking token out of text, if any.
func ExtractUUID(text string) string {
	return uuidRe.FindString(strings.ToLower(text))
}

// LooksLikeDueChange reports whether text is asking to change a deadline
// rather than merely mentioning one.
func LooksLikeDueChange(text string) bool {
	lowered := strings.ToLower(text)
	hasDue := strings.Contains(text, "마감") || strings.Contains(lowered, "due") || strings.Contains(lowered, "deadline")
	hasChange := false
	for _, tok := range []string{"변경", "옮겨", "바꿔", "조정", "미뤄", "당겨"} {
		if strings.Contains(text, tok) {
			hasChange = true
			break
		}
	}
	if !hasChange {
		for _, tok := range []string{"change", "move", "shift"} {
			if strings.Contains(lowered, tok) {
				hasChange = true
				break
			}
		}
	}
	return hasDue && hasChange
}

var ampmRe = regexp.MustCompile(`(\d{1,2})\s*(am|pm)`)
var hourSiRe = regexp.MustCompile(`(\d{1,2})\s*시`)
var afterRe = regexp.MustCompile(`(?:after|이후)\s*(\d{1,2})`)

// ExtractCutoffHour resolves an explicit hour (0-23) out of free text,
// understanding 12-hour am/pm, Korean "시" hour markers, and "after N".
func ExtractCutoffHour(text string) (int, bool) {
	lowered := strings.ToLower(text)

	if m := ampmRe.FindStringSubmatch(lowered); m != nil {
		hour := atoiSafe(m[1])
		if m[2] == "pm" && hour < 12 {
			hour += 12
		}
		if m[2] == "am" && hour == 12 {
			hour = 0
		}
		if hour >= 0 && hour <= 23 {
			return hour, true
		}
	}

	if m := hourSiRe.FindStringSubmatch(text); m != nil {
		hour := atoiSafe(m[1])
		if strings.Contains(text, "오후") && hour < 12 {
			hour += 12
		}
		if strings.Contains(text, "오전") && hour == 12 {
			hour = 0
		}
		if hour >= 0 && hour <= 23 {
			return hour, true
		}
	}

	if m := afterRe.FindStringSubmatch(lowered); m != nil {
		hour := atoiSafe(m[1])
		if hour >= 0 && hour <= 23 {
			return hour, true
		}
	}

	if strings.Contains(text, "저녁") {
		return 18, true
	}
	return 0, false
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// LooksLikeMeetingNote detects a pasted transcript: an explicit header, or
// at least two non-empty lines of which at least one looks like
// "speaker: utterance" (a colon within the first 20 bytes).
func LooksLikeMeetingNote(text string) bool {
	lowered := strings.ToLower(text)
	if strings.Contains(text, "회의록") || strings.Contains(lowered, "meeting notes") || strings.Contains(text, "회의 내용") {
		return true
	}
	lines := nonEmptyLines(text)
	speakerLike := 0
	for _, line := range lines {
		if idx := strings.Index(line, ":"); idx >= 0 && idx <= 20 {
			speakerLike++
		}
	}
	return len(lines) >= 2 && speakerLike >= 1
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

var assistantTitleMarkers = []string{
	"할일을 생성했습니다:", "완료 처리했습니다:", "이미 완료 상태입니다:",
	"우선순위를 변경했습니다:", "마감일을 변경했습니다:",
}

var leadingOrdinalRe = regexp.MustCompile(`^\d+\.\s*`)

// ExtractAssistantTitles pulls task titles back out of this executor's own
// past replies, so a follow-up turn like "그거 완료 처리해줘" can resolve
// against what was just reported rather than requiring the user to repeat
// the title.
func ExtractAssistantTitles(text string) []string {
	var titles []string
	for _, rawLine := range strings.Split(text, "\n") {
		line := leadingOrdinalRe.ReplaceAllString(strings.TrimSpace(rawLine), "")
		if line == "" {
			continue
		}
		for _, marker := range assistantTitleMarkers {
			idx := strings.Index(line, marker)
			if idx < 0 {
				continue
			}
			value := strings.TrimSpace(line[idx+len(marker):])
			if i := strings.Index(value, "->"); i >= 0 {
				value = strings.TrimSpace(value[:i])
			}
			if i := strings.Index(value, "(요청:"); i >= 0 {
				value = strings.TrimSpace(value[:i])
			}
			if value != "" {
				titles = append(titles, value)
			}
			break
		}
	}
	return titles
}

var taskKeywordStripTokens = []string{
	"완료", "처리", "해주세요", "해줘", "우선순위", "priority", "바꿔줘", "변경", "설정",
	"으로", "로", "를", "을", "높음", "중간", "낮음", "긴급", "high", "medium", "low", "critical",
	"작업", "할일", ":",
}

var taskKeywordDropTokens = map[string]bool{
	"오늘": true, "내일": true, "모레": true, "이번주": true, "다음주": true,
	"월요일": true, "화요일": true, "수요일": true, "목요일": true, "금요일": true, "토요일": true, "일요일": true,
	"오전": true, "오후": true, "밤": true, "아침": true, "저녁": true, "까지": true, "마감": true,
}

var trailingParticleRe = regexp.MustCompile(`(은|는|이|가|을|를|에|에서|로|으로)$`)
var nonWordRe = regexp.MustCompile(`[^\w가-힣]`)

// ExtractTaskKeyword strips intent/particle noise from raw text, leaving a
// best-effort task title fragment. Returns "" when nothing substantive
// remains (fewer than 2 runes).
func ExtractTaskKeyword(rawText string) string {
	cleaned := rawText
	for _, tok := range taskKeywordStripTokens {
		cleaned = strings.ReplaceAll(cleaned, tok, " ")
	}

	var parts []string
	for _, token := range strings.Fields(cleaned) {
		normalized := nonWordRe.ReplaceAllString(strings.ToLower(token), "")
		normalized = trailingParticleRe.ReplaceAllString(normalized, "")
		if normalized == "" || taskKeywordDropTokens[normalized] {
			continue
		}
		parts = append(parts, normalized)
	}

	keyword := strings.TrimSpace(strings.Join(parts, " "))
	if len([]rune(keyword)) < 2 {
		return ""
	}
	return keyword
}
