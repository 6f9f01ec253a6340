package meetingextract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawlion/ai-planner/internal/domain"
)

func TestExtractFallback_DetectsActionHintAndAssignee(t *testing.T) {
	base := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	meeting := domain.Meeting{
		Transcript: []domain.TranscriptLine{
			{Speaker: "철수", Text: "영희가 분기보고서를 내일까지 작성해주세요"},
			{Speaker: "민수", Text: "네 알겠습니다 좋은 하루 되세요"},
		},
	}

	drafts := ExtractFallback(meeting, base, func(hint string, b time.Time) *time.Time {
		d := b.Add(24 * time.Hour)
		return &d
	})

	require.Len(t, drafts, 1)
	assert.Contains(t, drafts[0].Title, "분기보고서")
	require.NotNil(t, drafts[0].AssigneeName)
	assert.Equal(t, "영희", *drafts[0].AssigneeName)
	require.NotNil(t, drafts[0].Due)
	assert.Greater(t, drafts[0].Confidence, 0.5)
}

func TestExtractFallback_DedupesByLowercasedTitle(t *testing.T) {
	base := time.Now()
	meeting := domain.Meeting{
		Transcript: []domain.TranscriptLine{
			{Speaker: "철수", Text: "보고서 작성해주세요"},
			{Speaker: "영희", Text: "보고서 작성해주세요"},
		},
	}

	drafts := ExtractFallback(meeting, base, nil)
	assert.Len(t, drafts, 1)
}

func TestExtractFallback_SkipsLinesWithoutHintOrDeadline(t *testing.T) {
	meeting := domain.Meeting{
		Transcript: []domain.TranscriptLine{
			{Speaker: "철수", Text: "오늘 날씨가 좋네요"},
		},
	}

	drafts := ExtractFallback(meeting, time.Now(), nil)
	assert.Empty(t, drafts)
}

func TestExtractFallback_IncludesSummaryLine(t *testing.T) {
	meeting := domain.Meeting{
		Summary: "다음 주까지 예산안을 검토해야 합니다",
	}

	drafts := ExtractFallback(meeting, time.Now(), nil)
	require.Len(t, drafts, 1)
	assert.Contains(t, drafts[0].Title, "예산안")
}

func TestExtractFallback_DefaultsAssigneeToSpeakerWhenNoNamePattern(t *testing.T) {
	meeting := domain.Meeting{
		Transcript: []domain.TranscriptLine{
			{Speaker: "진행자", Text: "전체 일정을 정리해야 할 것 같습니다"},
		},
	}

	drafts := ExtractFallback(meeting, time.Now(), nil)
	require.Len(t, drafts, 1)
	require.NotNil(t, drafts[0].AssigneeName)
	assert.Equal(t, "진행자", *drafts[0].AssigneeName)
}

func TestParseEffort_HoursAndMinutes(t *testing.T) {
	assert.Equal(t, 120, parseEffort("2시간 정도 필요합니다"))
	assert.Equal(t, 30, parseEffort("30분이면 됩니다"))
	assert.Equal(t, 60, parseEffort("특별한 언급 없음"))
}

func TestComputeConfidence_BoundsAndAdjustments(t *testing.T) {
	assert.InDelta(t, 0.95, computeConfidence(true, true, true, 60), 0.0001)
	assert.InDelta(t, 0.35, computeConfidence(false, false, false, 60), 0.0001)
	assert.InDelta(t, 0.25, computeConfidence(false, false, false, 200), 0.0001)
}
