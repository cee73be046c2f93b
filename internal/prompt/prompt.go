// Package prompt implements the terminal prompter used by configuration
// editing and destructive-action confirmation.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Terminal reads answers from an interactive terminal. It satisfies
// config.Prompter.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	// passwordFd is the descriptor used for no-echo reads.
	passwordFd int
}

// New creates a Terminal reading stdin and writing stdout.
func New() *Terminal {
	return &Terminal{
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		passwordFd: int(os.Stdin.Fd()),
	}
}

// Input prompts for a line of text, returning current when the user just
// presses enter.
func (t *Terminal) Input(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(t.out, "%s: ", label)
	}

	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

// Confirm prompts a yes/no question, returning current on a bare enter.
func (t *Terminal) Confirm(label string, current bool) (bool, error) {
	hint := "y/N"
	if current {
		hint = "Y/n"
	}
	fmt.Fprintf(t.out, "%s [%s]: ", label, hint)

	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return current, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PasswordHash prompts for a credential twice without echo and returns
// its bcrypt hash. An empty first entry keeps the existing credential.
func (t *Terminal) PasswordHash(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	first, err := term.ReadPassword(t.passwordFd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", nil
	}

	fmt.Fprint(t.out, "Repeat password: ")
	second, err := term.ReadPassword(t.passwordFd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword(first, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
