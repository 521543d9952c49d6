package domain

import (
	"fmt"
	"strings"
)

type CommandPrefix string

const (
	CommandStart   CommandPrefix = "/start"
	CommandHelp    CommandPrefix = "/help"
	CommandGroupId CommandPrefix = "/groupId"
	CommandReceive CommandPrefix = "/receive"
	CommandSend    CommandPrefix = "/send"
	CommandStatus  CommandPrefix = "/status"
)

var commandPrefixes = map[string]CommandPrefix{
	string(CommandStart):   CommandStart,
	string(CommandHelp):    CommandHelp,
	string(CommandGroupId): CommandGroupId,
	string(CommandReceive): CommandReceive,
	string(CommandSend):    CommandSend,
	string(CommandStatus):  CommandStatus,
}

// Usage returns the positional arguments expected after the prefix.
func (p CommandPrefix) Usage() string {
	switch p {
	case CommandReceive:
		return "<address>"
	case CommandSend:
		return "<handle> <amount> <denom>"
	default:
		return ""
	}
}

type BotErrorKind uint8

const (
	BotErrUnknownCommand BotErrorKind = iota
	BotErrInvalidCommandFormat
	BotErrParse
	BotErrEmptyMessage
	BotErrInvalidGroupId
	BotErrNotGroupChat
	BotErrNoUsername
)

// BotError is a translation failure. Its message is meant to be shown to the chat user.
type BotError struct {
	Kind   BotErrorKind
	Prefix string
	Reason string
}

func (e *BotError) Error() string {
	switch e.Kind {
	case BotErrUnknownCommand:
		return fmt.Sprintf("Unknown command: %s", e.Prefix)
	case BotErrInvalidCommandFormat:
		usage := strings.TrimSpace(fmt.Sprintf("%s %s", e.Prefix, CommandPrefix(e.Prefix).Usage()))
		return fmt.Sprintf("Invalid command format, expected: %s", usage)
	case BotErrParse:
		return fmt.Sprintf("Parse: %s", e.Reason)
	case BotErrEmptyMessage:
		return "Empty message"
	case BotErrInvalidGroupId:
		return "Invalid group id"
	case BotErrNotGroupChat:
		return "This command only works in group chats"
	case BotErrNoUsername:
		return "You need a Telegram username to use this command"
	default:
		return "Bad command"
	}
}

// Command is the structured form of a chat message.
type Command interface {
	Prefix() CommandPrefix
}

type StartCommand struct{}

type HelpCommand struct{}

type StatusCommand struct{}

type GroupIdCommand struct {
	GroupId int64
}

type ReceiveCommand struct {
	Address string
}

type SendCommand struct {
	Handle string
	Amount Amount
	Denom  string
}

func (StartCommand) Prefix() CommandPrefix   { return CommandStart }
func (HelpCommand) Prefix() CommandPrefix    { return CommandHelp }
func (StatusCommand) Prefix() CommandPrefix  { return CommandStatus }
func (GroupIdCommand) Prefix() CommandPrefix { return CommandGroupId }
func (ReceiveCommand) Prefix() CommandPrefix { return CommandReceive }
func (SendCommand) Prefix() CommandPrefix    { return CommandSend }

// ParseCommand translates a chat message into a command. The first whitespace-delimited token
// selects the command, the remaining ones are its positional arguments.
func ParseCommand(msg ChatMessage) (Command, error) {
	parts := strings.Fields(msg.Text)
	if len(parts) <= 0 {
		return nil, &BotError{Kind: BotErrEmptyMessage}
	}

	// Group chats address commands to a bot as /cmd@botname.
	token, _, _ := strings.Cut(parts[0], "@")
	prefix, ok := commandPrefixes[token]
	if !ok {
		return nil, &BotError{Kind: BotErrUnknownCommand, Prefix: parts[0]}
	}
	args := parts[1:]
	invalidFormat := &BotError{Kind: BotErrInvalidCommandFormat, Prefix: string(prefix)}

	switch prefix {
	case CommandStart:
		return StartCommand{}, nil
	case CommandHelp:
		return HelpCommand{}, nil
	case CommandStatus:
		return StatusCommand{}, nil
	case CommandGroupId:
		if !msg.Chat.IsGroup() {
			return nil, &BotError{Kind: BotErrNotGroupChat, Prefix: string(prefix)}
		}
		if msg.Chat.Id >= 0 {
			return nil, &BotError{Kind: BotErrInvalidGroupId, Prefix: string(prefix)}
		}
		return GroupIdCommand{GroupId: msg.Chat.Id}, nil
	case CommandReceive:
		if len(args) != 1 {
			return nil, invalidFormat
		}
		if err := ValidateAddress(args[0], ""); err != nil {
			return nil, &BotError{
				Kind:   BotErrParse,
				Prefix: string(prefix),
				Reason: fmt.Sprintf("could not parse %s: %s", args[0], err),
			}
		}
		return ReceiveCommand{Address: args[0]}, nil
	case CommandSend:
		if len(args) != 3 {
			return nil, invalidFormat
		}
		amount, err := ParseAmount(args[1])
		if err != nil {
			return nil, &BotError{
				Kind:   BotErrParse,
				Prefix: string(prefix),
				Reason: fmt.Sprintf("could not parse %s: %s", args[1], err),
			}
		}
		return SendCommand{
			Handle: strings.TrimPrefix(args[0], "@"),
			Amount: amount,
			Denom:  args[2],
		}, nil
	default:
		return nil, &BotError{Kind: BotErrUnknownCommand, Prefix: parts[0]}
	}
}

// IsCommandText reports whether the text looks like a bot command at all.
func IsCommandText(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}
