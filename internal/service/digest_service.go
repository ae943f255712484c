package service

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"optiday/internal/model"
	"optiday/internal/planner"
)

// DigestService builds human-readable summaries for daily notifications.
// It only reads session state.
type DigestService struct{}

func NewDigestService() *DigestService {
	return &DigestService{}
}

func (s *DigestService) DailySummary(view planner.View, now time.Time) string {
	pending := model.PendingTasks(view.Tasks)
	sort.SliceStable(pending, func(i, j int) bool {
		return priorityRank(pending[i].Priority) < priorityRank(pending[j].Priority)
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>Pending tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing pending\n")
	} else {
		total := 0
		for _, task := range pending {
			builder.WriteString(formatTask(task))
			total += task.Duration
		}
		builder.WriteString(fmt.Sprintf("⏱ Total: %s\n", FormatMinutes(total)))
	}

	builder.WriteString("\n🗂 <b>Schedule</b>\n")
	if view.Schedule == nil {
		builder.WriteString("— no schedule yet, send /plan to build one\n")
	} else {
		for _, item := range view.Schedule.Items {
			builder.WriteString(fmt.Sprintf("%s–%s %s\n", item.StartTime, item.EndTime, html.EscapeString(item.Activity)))
		}
	}

	return strings.TrimSpace(builder.String())
}

func formatTask(task model.Task) string {
	icon := "🟢"
	switch task.Priority {
	case model.PriorityHigh:
		icon = "🔴"
	case model.PriorityMedium:
		icon = "🟡"
	}
	title := html.EscapeString(strings.TrimSpace(task.Title))
	return fmt.Sprintf("%s %s · %s\n", icon, title, FormatMinutes(task.Duration))
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 0
	case model.PriorityMedium:
		return 1
	default:
		return 2
	}
}

// FormatMinutes renders a duration like "1h 30m" or "45m".
func FormatMinutes(minutes int) string {
	hours, rest := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
}
