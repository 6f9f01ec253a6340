package meetingextract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
	"github.com/hawlion/ai-planner/internal/llm"
)

const maxTranscriptLines = 180

type actionItemOutput struct {
	Title        string  `json:"title"`
	AssigneeName *string `json:"assignee_name"`
	Due          *string `json:"due"`
	EffortMin    int     `json:"effort_minutes"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale"`
}

type actionItemsEnvelope struct {
	Items []actionItemOutput `json:"items"`
}

func validateEnvelope(e actionItemsEnvelope) error {
	for i, item := range e.Items {
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("item %d: empty title", i)
		}
	}
	return nil
}

// ExtractPrimary asks the LLM configured for PurposeActionExtract to read
// the meeting transcript + summary and return structured action-item
// drafts. Candidates are deduplicated by lowercased title, same as
// ExtractFallback. Callers fall back to ExtractFallback when this returns
// an error or the client reports unavailable.
func ExtractPrimary(
	ctx context.Context,
	client llm.LLMClient,
	meeting domain.Meeting,
	baseTime time.Time,
	timezone string,
	parseDue func(hint string, base time.Time) *time.Time,
) ([]Draft, error) {
	if len(meeting.Transcript) == 0 && meeting.Summary == "" {
		return nil, nil
	}

	lines := make([]string, 0, len(meeting.Transcript))
	for i, u := range meeting.Transcript {
		if i >= maxTranscriptLines {
			break
		}
		speaker := u.Speaker
		if speaker == "" {
			speaker = "참석자"
		}
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", speaker, text))
	}

	systemPrompt := "You extract concrete meeting action items only." +
		` Return strict JSON object only with shape:` +
		` {"items":[{"title":string,"assignee_name":string|null,"due":string|null,` +
		`"effort_minutes":int,"confidence":number,"rationale":string}]}.` +
		" Exclude vague ideas. Use null when unknown." +
		" confidence must be between 0 and 1." +
		" due should be an ISO-8601 datetime if inferable, else null."

	userPrompt := fmt.Sprintf(
		"timezone=%s\nbase_datetime=%s\nsummary=%s\ntranscript:\n%s",
		timezone, baseTime.Format(time.RFC3339), strings.TrimSpace(meeting.Summary), strings.Join(lines, "\n"),
	)

	resp, err := client.Generate(ctx, llm.GenerateRequest{
		Purpose:      llm.PurposeActionExtract,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("meetingextract: llm generate: %w", err)
	}

	envelope, err := llm.ExtractJSON[actionItemsEnvelope](resp.Text, validateEnvelope)
	if err != nil {
		return nil, fmt.Errorf("meetingextract: parsing llm output: %w", err)
	}

	seen := make(map[string]bool)
	var drafts []Draft
	for _, item := range envelope.Items {
		key := strings.ToLower(strings.TrimSpace(item.Title))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		var dueAt *time.Time
		if item.Due != nil && *item.Due != "" && parseDue != nil {
			dueAt = parseDue(*item.Due, baseTime)
		}

		effort := item.EffortMin
		if effort < domain.MinEffortMinutes {
			effort = 60
		}
		effort = domain.ClampEffort(effort)

		confidence := item.Confidence
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}

		rationale := item.Rationale
		if rationale == "" {
			rationale = "LLM extraction"
		}

		drafts = append(drafts, Draft{
			Title:        strings.TrimSpace(item.Title),
			AssigneeName: item.AssigneeName,
			Due:          dueAt,
			EffortMin:    effort,
			Confidence:   confidence,
			Rationale:    rationale,
		})
	}
	return drafts, nil
}
