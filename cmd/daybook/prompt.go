package main

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var errNotConfirmed = errors.New("cancelled")

// terminalCheck is swapped in tests.
var terminalCheck = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question. It refuses to guess when stdin is not a
// terminal.
func confirm(title, description string) error {
	if !terminalCheck() {
		return errors.New("stdin is not a terminal; pass --yes to confirm")
	}

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !ok {
		return errNotConfirmed
	}
	return nil
}

// confirmed skips the prompt when yes is set. A "no" answer is reported
// and is not an error.
func (s *session) confirmed(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	if err := confirm(title, description); err != nil {
		if errors.Is(err, errNotConfirmed) {
			s.printf("Cancelled.\n")
			return false, nil
		}
		return false, err
	}
	return true, nil
}
