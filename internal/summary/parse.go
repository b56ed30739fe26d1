package summary

import "strings"

// parseStructured extracts the structured sections from a model response.
// Section headings are matched loosely; anything the parser cannot place is
// dropped, and the caller keeps the raw text as fallback.
func parseStructured(raw string) Structured {
	var parsed Structured
	section := ""

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "key discussion") || strings.Contains(lower, "discussion points"):
			section = "key_points"
		case strings.Contains(lower, "decision"):
			section = "decisions"
		case strings.Contains(lower, "action item"):
			section = "action_items"
		case strings.Contains(lower, "question") || strings.Contains(lower, "concern"):
			section = "questions"
		case strings.Contains(lower, "overall summary"):
			section = "overview"
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			item := strings.TrimSpace(line[2:])
			switch section {
			case "key_points":
				parsed.KeyPoints = append(parsed.KeyPoints, item)
			case "decisions":
				parsed.Decisions = append(parsed.Decisions, item)
			case "action_items":
				parsed.ActionItems = append(parsed.ActionItems, item)
			case "questions":
				parsed.Questions = append(parsed.Questions, item)
			}
		case section == "overview" && !strings.HasPrefix(line, "#"):
			if parsed.Overview != "" {
				parsed.Overview += " "
			}
			parsed.Overview += line
		}
	}

	return parsed
}
