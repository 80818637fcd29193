package terminal

import (
	"fmt"
	"strings"

	"mini-quiz/internal/domain"
)

const barWidth = 20

// Render draws a snapshot as plain text. It depends on nothing but the snapshot.
func Render(s domain.Snapshot) string {
	var b strings.Builder
	b.WriteString("\n")

	if s.Notice != "" {
		fmt.Fprintf(&b, "!! %s\n\n", s.Notice)
	}

	switch s.Stage {
	case domain.StageIntro:
		b.WriteString("Mini Quiz\n")
		b.WriteString("Answer carefully... the trick questions are waiting!\n\n")
		b.WriteString(progressBar(0) + "\n")
		b.WriteString("Press Enter to start, q to quit.\n")
	case domain.StageLoading:
		b.WriteString("Loading questions...\n")
	case domain.StageError:
		b.WriteString(s.Error + "\n")
		b.WriteString("Press Enter to go back, q to quit.\n")
	case domain.StageEnd:
		b.WriteString("Congratulations, you won the Mini Quiz!\n")
		fmt.Fprintf(&b, "You answered all %d questions!\n\n", s.Total)
		b.WriteString(progressBar(100) + "\n")
		b.WriteString("Press Enter to play again, q to quit.\n")
	case domain.StageQuiz:
		renderQuestion(&b, s)
	}
	return b.String()
}

func renderQuestion(b *strings.Builder, s domain.Snapshot) {
	if s.Current == nil {
		return
	}
	b.WriteString(s.Current.Text + "\n\n")
	if s.Feedback != "" {
		fmt.Fprintf(b, ">> %s\n\n", s.Feedback)
	}
	for i, opt := range s.Current.Options {
		fmt.Fprintf(b, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprintf(b, "\nQuestion %d of %d\n", s.CurrentIndex+1, s.Total)
	b.WriteString(progressBar(s.Progress) + "\n")
}

func progressBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled), pct)
}
