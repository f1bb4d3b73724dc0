package app

import (
	"fmt"
	"os"
	"strings"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/usecase"
)

// maxSourceBytes bounds files loaded for review from the TUI.
const maxSourceBytes = 256 * 1024

// readSource loads a file for code review.
func readSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", domain.NewDomainError("app.readSource", domain.ErrInvalidInput, err.Error())
	}
	if info.Size() > maxSourceBytes {
		return "", domain.NewDomainError("app.readSource", domain.ErrInvalidInput,
			fmt.Sprintf("%s is too large (%d bytes)", path, info.Size()))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.NewDomainError("app.readSource", domain.ErrInvalidInput, err.Error())
	}
	return string(data), nil
}

// parseComposeInput splits composer input: lines starting with "-" or "*"
// are bullet points, the first other non-empty line is the recipient.
func parseComposeInput(input string) (recipient string, points []string) {
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			points = append(points, strings.TrimSpace(line[1:]))
			continue
		}
		if recipient == "" {
			recipient = line
			continue
		}
		// Extra prose lines count as points too.
		points = append(points, line)
	}
	return recipient, points
}

// formatAnalysis renders an email analysis as markdown.
func formatAnalysis(a *usecase.EmailAnalysis) string {
	var sb strings.Builder
	sb.WriteString("## Summary\n\n" + a.Summary + "\n\n")
	fmt.Fprintf(&sb, "**Sentiment:** %s  \n**Urgency:** %s\n\n", a.Sentiment, a.Urgency)
	if len(a.ActionItems) > 0 {
		sb.WriteString("## Action items\n\n")
		for _, item := range a.ActionItems {
			sb.WriteString("- " + item + "\n")
		}
		sb.WriteString("\n")
	}
	if a.SuggestedReply != "" {
		sb.WriteString("## Suggested reply\n\n" + a.SuggestedReply + "\n")
	}
	return sb.String()
}
