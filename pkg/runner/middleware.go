package runner

import (
	"context"
	"strings"
)

// Command is a runner instruction typed in place of an answer.
type Command string

const (
	CommandQuit   Command = "quit"
	CommandReset  Command = "reset"
	CommandStatus Command = "status"
	CommandHelp   Command = "help"
)

// HelpText lists the commands.
const HelpText = "Commands: /status shows where you are, /reset starts over, /quit saves and exits."

// ParseCommand recognises "/quit", "/reset", "/status", "/help" and the bare
// words "exit" and "quit". Anything else is an answer.
func ParseCommand(input string) (Command, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "exit", "quit", "/exit", "/quit":
		return CommandQuit, true
	case "/reset", "/restart":
		return CommandReset, true
	case "/status":
		return CommandStatus, true
	case "/help", "/?":
		return CommandHelp, true
	}
	return "", false
}

// Guard decides whether a destructive command proceeds.
type Guard func(ctx context.Context, cmd Command) (bool, error)

// AllGuards requires every guard to allow the command.
func AllGuards(guards ...Guard) Guard {
	return func(ctx context.Context, cmd Command) (bool, error) {
		for _, g := range guards {
			ok, err := g(ctx, cmd)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// ConfirmationGuard asks the applicant through handler before proceeding.
func ConfirmationGuard(handler IOHandler) Guard {
	return func(ctx context.Context, cmd Command) (bool, error) {
		question := "Continue?"
		if cmd == CommandReset {
			question = "This discards your answers so far. Start over? (y/n)"
		}
		if err := handler.SystemOutput(ctx, question); err != nil {
			return false, err
		}
		input, err := handler.Input(ctx)
		if err != nil {
			return false, err
		}
		input = strings.ToLower(strings.TrimSpace(input))
		return input == "y" || input == "yes", nil
	}
}

// AutoApprove allows everything.
func AutoApprove() Guard {
	return func(context.Context, Command) (bool, error) {
		return true, nil
	}
}
