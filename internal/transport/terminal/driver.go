package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mini-quiz/internal/domain"
)

// Quiz is the session surface the terminal drives.
type Quiz interface {
	Start(ctx context.Context) error
	Answer(index int) error
	Restart() error
	Snapshot() domain.Snapshot
	Subscribe() (<-chan domain.Snapshot, func())
}

// Driver renders session snapshots and turns input lines into session actions.
type Driver struct {
	quiz   Quiz
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

func NewDriver(quiz Quiz, in io.Reader, out io.Writer, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{quiz: quiz, in: in, out: out, logger: logger}
}

// Run blocks until the user quits, input ends or ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	updates, cancel := d.quiz.Subscribe()
	defer cancel()

	last := ""
	render := func(snap domain.Snapshot) {
		view := Render(snap)
		if view == last {
			return
		}
		last = view
		fmt.Fprint(d.out, view)
	}

	// Draw the initial screen before accepting input.
	if snap, ok := <-updates; ok {
		render(snap)
	} else {
		return nil
	}

	lines := make(chan string)
	readDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(d.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readDone <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			render(snap)
		case line := <-lines:
			if quit := d.handle(ctx, line); quit {
				return nil
			}
		case err := <-readDone:
			return err
		}
	}
}

func (d *Driver) handle(ctx context.Context, line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if cmd == "q" || cmd == "quit" {
		return true
	}

	snap := d.quiz.Snapshot()
	var err error
	switch snap.Stage {
	case domain.StageIntro:
		if cmd == "" || cmd == "s" {
			err = d.quiz.Start(ctx)
		} else {
			fmt.Fprintln(d.out, "Press Enter to start, q to quit.")
		}
	case domain.StageLoading:
		fmt.Fprintln(d.out, "Still loading, hold on...")
	case domain.StageQuiz:
		n, convErr := strconv.Atoi(cmd)
		if convErr != nil {
			fmt.Fprintf(d.out, "Enter an option number from 1 to %d.\n", optionCount(snap))
			return false
		}
		err = d.quiz.Answer(n - 1)
	case domain.StageError, domain.StageEnd:
		if cmd == "" || cmd == "r" {
			err = d.quiz.Restart()
		} else {
			fmt.Fprintln(d.out, "Press Enter to continue, q to quit.")
		}
	}

	if err != nil {
		d.logger.Debug("action rejected", zap.Stringer("stage", snap.Stage), zap.Error(err))
		fmt.Fprintln(d.out, describe(err, snap))
	}
	return false
}

func describe(err error, snap domain.Snapshot) string {
	switch {
	case errors.Is(err, domain.ErrAnswerPending):
		return "Hold on..."
	case errors.Is(err, domain.ErrOptionNotFound):
		return fmt.Sprintf("Enter an option number from 1 to %d.", optionCount(snap))
	case errors.Is(err, domain.ErrInvalidAction):
		return "That does not work right now."
	default:
		return "Error: " + err.Error()
	}
}

func optionCount(snap domain.Snapshot) int {
	if snap.Current == nil {
		return 0
	}
	return len(snap.Current.Options)
}
