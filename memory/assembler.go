package memory

import (
	"fmt"
	"strings"

	"github.com/sageai/sage-go-sdk/core"
)

// AssistantLabel is the agent's name as it appears in assembled history.
const AssistantLabel = "Sage"

// NoHistorySentinel is emitted in place of the history section when the
// session has no prior turns, so the prompt block is never empty.
const NoHistorySentinel = "No prior conversations."

const timestampLayout = "2006-01-02 15:04:05"

// BuildContext merges the latest rolling summary, semantic hits and recent
// turns into one prompt-ready text block. Pure and side-effect free.
//
// Sections appear in a fixed order and are omitted when empty. Hits are
// not deduplicated against recent turns (overlap is accepted). The block
// is not truncated by token count either: bounding total size is the
// caller's job through its choice of recent limit and k, which are small
// constants in practice.
func BuildContext(turns []core.Turn, hits []core.Hit, summary, userName string) string {
	if userName == "" {
		userName = "User"
	}

	var parts []string

	if summary != "" {
		parts = append(parts, "[PRIORITY SNAPSHOT — auto-generated summary]")
		parts = append(parts, summary)
		parts = append(parts, "[END SNAPSHOT]\n")
	}

	if len(hits) > 0 {
		parts = append(parts, "[RELATED PAST CONTEXT — semantically retrieved]")
		for _, h := range hits {
			parts = append(parts, "  "+h.Document)
		}
		parts = append(parts, "[END RELATED CONTEXT]\n")
	}

	if len(turns) > 0 {
		parts = append(parts, fmt.Sprintf("[RECENT HISTORY — last %d exchanges]", len(turns)))
		for _, t := range turns {
			ts := t.CreatedAt.Format(timestampLayout)
			parts = append(parts, fmt.Sprintf("[%s — %s] %s", ts, userName, t.UserMsg))
			parts = append(parts, fmt.Sprintf("[%s — %s] %s", ts, AssistantLabel, t.AgentMsg))
			parts = append(parts, "")
		}
		parts = append(parts, "[END HISTORY]")
	} else {
		parts = append(parts, NoHistorySentinel)
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
