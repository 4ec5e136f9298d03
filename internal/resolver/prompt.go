package resolver

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// Prompter asks the operator a single question and returns the reply.
// Selection and path prompts go through this seam so tests can script them.
type Prompter interface {
	Ask(prompt string) (string, error)
}

// ReadlinePrompter asks questions on the controlling terminal.
type ReadlinePrompter struct{}

// Ask prints prompt and reads one line of input.
func (ReadlinePrompter) Ask(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return strings.TrimSpace(line), nil
}
