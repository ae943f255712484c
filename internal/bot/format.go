package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"optiday/internal/model"
	"optiday/internal/planner"
	"optiday/internal/service"
)

type palette struct {
	header  string
	task    string
	brk     string
	routine string
}

var palettes = map[model.Theme]palette{
	model.ThemeLight: {header: "☀️", task: "🔵", brk: "☕", routine: "🔁"},
	model.ThemeDark:  {header: "🌙", task: "🟣", brk: "🍵", routine: "🌀"},
}

func paletteFor(theme model.Theme) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[model.ThemeLight]
}

// parseDurationInput reads "45", "90 min", "1.5h", "2 days" and similar.
func parseDurationInput(text string) (float64, model.DurationUnit, error) {
	clean := strings.ToLower(strings.TrimSpace(text))
	if clean == "" {
		return 0, "", fmt.Errorf("empty duration")
	}
	clean = strings.ReplaceAll(clean, ",", ".")

	split := strings.IndexFunc(clean, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unitText := clean, ""
	if split >= 0 {
		number, unitText = strings.TrimSpace(clean[:split]), strings.TrimSpace(clean[split:])
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value <= 0 {
		return 0, "", fmt.Errorf("invalid duration %q", text)
	}

	switch unitText {
	case "", "m", "min", "mins", "minute", "minutes":
		return value, model.UnitMinutes, nil
	case "h", "hr", "hrs", "hour", "hours":
		return value, model.UnitHours, nil
	case "d", "day", "days":
		return value, model.UnitDays, nil
	default:
		return 0, "", fmt.Errorf("unknown unit %q", unitText)
	}
}

// applyPreferenceEdit updates one field of prefs from "/prefs <field> <value>" arguments.
func applyPreferenceEdit(prefs model.UserPreferences, args string) (model.UserPreferences, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return prefs, fmt.Errorf("expected a field and a value")
	}
	field, value := strings.ToLower(fields[0]), fields[1]

	switch field {
	case "start":
		clock, err := model.ParseClock(value)
		if err != nil {
			return prefs, err
		}
		prefs.StartOfDay = clock
	case "end":
		clock, err := model.ParseClock(value)
		if err != nil {
			return prefs, err
		}
		prefs.EndOfDay = clock
	case "breaks":
		switch strings.ToLower(value) {
		case "on", "yes", "true":
			prefs.IncludeBreaks = true
		case "off", "no", "false":
			prefs.IncludeBreaks = false
		default:
			return prefs, fmt.Errorf("breaks must be on or off")
		}
	case "focus":
		focus, err := model.ParseFocus(value)
		if err != nil {
			return prefs, err
		}
		prefs.FocusPreference = focus
	default:
		return prefs, fmt.Errorf("unknown field %q", field)
	}
	return prefs, nil
}

func formatPreferences(prefs model.UserPreferences) string {
	breaks := "off"
	if prefs.IncludeBreaks {
		breaks = "on"
	}
	var b strings.Builder
	b.WriteString("⚙️ <b>Preferences</b>\n")
	b.WriteString(fmt.Sprintf("• Start of day: <b>%s</b>\n", escape(prefs.StartOfDay)))
	b.WriteString(fmt.Sprintf("• End of day: <b>%s</b>\n", escape(prefs.EndOfDay)))
	b.WriteString(fmt.Sprintf("• Breaks: <b>%s</b>\n", breaks))
	b.WriteString(fmt.Sprintf("• Peak focus: <b>%s</b>\n\n", escape(string(prefs.FocusPreference))))
	b.WriteString("Change with <code>/prefs start 08:30</code>, <code>/prefs end 18:00</code>, " +
		"<code>/prefs breaks off</code> or <code>/prefs focus afternoon</code>.")
	return b.String()
}

func formatTaskList(view planner.View) string {
	var b strings.Builder
	b.WriteString(errorBanner(view.Error))
	b.WriteString("📋 <b>Tasks</b>\n")
	if len(view.Tasks) == 0 {
		b.WriteString("No tasks yet. Add one with /newtask.")
		return b.String()
	}

	pending := 0
	for i, task := range view.Tasks {
		mark := "⬜"
		title := escape(normalizeTitle(task.Title))
		if task.IsCompleted {
			mark = "✅"
			title = "<s>" + title + "</s>"
		} else {
			pending++
		}
		b.WriteString(fmt.Sprintf("%s <b>%d.</b> %s %s · %s\n", mark, i+1, priorityIcon(task.Priority), title, service.FormatMinutes(task.Duration)))
	}
	b.WriteString(fmt.Sprintf("\n%d pending of %d. ", pending, len(view.Tasks)))
	if pending > 0 {
		b.WriteString("Send /plan to build your day.")
	} else {
		b.WriteString("Uncheck or add a task to plan again.")
	}
	return b.String()
}

func formatSchedule(view planner.View) string {
	var b strings.Builder
	b.WriteString(errorBanner(view.Error))

	p := paletteFor(view.Theme)
	switch {
	case view.State == planner.StateGenerating && view.Schedule == nil:
		b.WriteString("⏳ Building your schedule…")
		return b.String()
	case view.Schedule == nil:
		b.WriteString("🗓 No schedule yet. Send /plan to build one.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s <b>Your day</b>\n", p.header))
	if view.State == planner.StateGenerating {
		b.WriteString("<i>Refreshing, showing the previous plan.</i>\n")
	}
	b.WriteString(fmt.Sprintf("<i>%s</i>\n\n", escape(view.Schedule.DailySummary)))
	for _, item := range view.Schedule.Items {
		icon := p.task
		switch item.Type {
		case model.ItemBreak:
			icon = p.brk
		case model.ItemRoutine:
			icon = p.routine
		}
		b.WriteString(fmt.Sprintf("%s <code>%s–%s</code> <b>%s</b> (%s)\n", icon, escape(item.StartTime), escape(item.EndTime),
			escape(item.Activity), service.FormatMinutes(int(item.DurationMinutes+0.5))))
		if item.Reason != "" {
			b.WriteString(fmt.Sprintf("   💡 %s\n", escape(item.Reason)))
		}
	}
	return strings.TrimSpace(b.String())
}

func errorBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf("⚠️ %s\n<i>Send /dismiss to close.</i>\n\n", escape(msg))
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// parsePosition turns a 1-based list position into an index of n tasks.
func parsePosition(args string, n int) (int, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0, fmt.Errorf("position must be a number")
	}
	if pos < 1 || pos > n {
		return 0, fmt.Errorf("no task at position %d", pos)
	}
	return pos - 1, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func escape(s string) string {
	return html.EscapeString(s)
}
