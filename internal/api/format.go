package api

import (
	"fmt"
	"strings"

	"github.com/paulexconde/surveychat/internal/models"
)

const (
	welcomeMessage = "Welcome to the survey! Please answer the following questions."
	goodbyeMessage = "Thank you for your time. That were all the questions!"
)

// FormatQuestion renders a question as a chat message with its answer hint.
func FormatQuestion(q models.Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteString("\n")

	switch q.Type {
	case models.MultipleChoice, models.Rating:
		if len(q.Options) == 0 {
			b.WriteString("\n(No options available)")
			break
		}
		b.WriteString("\nChoose one of:\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%d. %s\n", i+1, opt.Text)
		}
	case models.Boolean:
		b.WriteString("\nPlease answer with 'yes' or 'no'")
	case models.Date:
		b.WriteString("\nPlease enter a date (YYYY-MM-DD)")
	}

	return strings.TrimSpace(b.String())
}

func formatError(msg string) string {
	return "Error: " + msg
}
