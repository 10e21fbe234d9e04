package console

import (
	"fmt"
	"strings"
)

// CommandKind identifies a parsed input line.
type CommandKind int

const (
	CommandTap CommandKind = iota
	CommandClick
	CommandSkip
	CommandSkipAll
	CommandPause
	CommandResume
	CommandQuit
	CommandHelp
	CommandStatus
)

var commandNames = map[CommandKind]string{
	CommandTap:     "tap",
	CommandClick:   "click",
	CommandSkip:    "skip",
	CommandSkipAll: "skip all",
	CommandPause:   "pause",
	CommandResume:  "resume",
	CommandQuit:    "quit",
	CommandHelp:    "help",
	CommandStatus:  "status",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// Command is one line of user input.
type Command struct {
	Kind   CommandKind
	Target string
}

const helpText = `Commands:
  <enter>, tap        continue
  click [target]      click a target (defaults to the highlighted one)
  skip                skip the current step
  skip all            end the tutorial and mark it done
  pause, resume       hold or continue between steps
  status              show the current position
  quit                cancel the tutorial`

// ParseCommand interprets an input line. An empty line is a tap.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return Command{Kind: CommandTap}, nil
	}

	switch fields[0] {
	case "tap", "t", "next", "n":
		return Command{Kind: CommandTap}, nil
	case "click", "c":
		// Target ids keep their original case.
		original := strings.Fields(strings.TrimSpace(line))
		if len(original) > 2 {
			return Command{}, fmt.Errorf("click takes at most one target")
		}
		cmd := Command{Kind: CommandClick}
		if len(original) == 2 {
			cmd.Target = original[1]
		}
		return cmd, nil
	case "skip", "s":
		if len(fields) == 2 && fields[1] == "all" {
			return Command{Kind: CommandSkipAll}, nil
		}
		if len(fields) > 1 {
			return Command{}, fmt.Errorf("unknown skip argument %q", fields[1])
		}
		return Command{Kind: CommandSkip}, nil
	case "pause", "p":
		return Command{Kind: CommandPause}, nil
	case "resume", "r":
		return Command{Kind: CommandResume}, nil
	case "quit", "q", "exit", "cancel":
		return Command{Kind: CommandQuit}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	case "status":
		return Command{Kind: CommandStatus}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q (type help)", fields[0])
}
