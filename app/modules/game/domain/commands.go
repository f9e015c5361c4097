package gamedomain

import (
	"strconv"
	"strings"
)

// CommandKind is the closed set of button commands the engine understands.
type CommandKind string

const (
	CommandRegister CommandKind = "register"
	CommandStart    CommandKind = "start"
	CommandTop      CommandKind = "top"
	CommandSpeaker  CommandKind = "speaker"
	CommandAgain    CommandKind = "again"
	CommandUnknown  CommandKind = ""
)

// Command is a parsed button command. SpeakerVKID is set only for
// CommandSpeaker; the raw wire form carries the id appended to the verb.
type Command struct {
	Kind        CommandKind
	SpeakerVKID int64
}

// ParseCommand classifies a raw command string from a message_event payload.
// Unrecognized commands yield CommandUnknown and are dropped by the caller.
func ParseCommand(raw string) Command {
	switch CommandKind(raw) {
	case CommandRegister, CommandStart, CommandTop, CommandAgain:
		return Command{Kind: CommandKind(raw)}
	}
	if id, ok := strings.CutPrefix(raw, string(CommandSpeaker)); ok {
		vkID, err := strconv.ParseInt(id, 10, 64)
		if err == nil && vkID > 0 {
			return Command{Kind: CommandSpeaker, SpeakerVKID: vkID}
		}
	}
	return Command{Kind: CommandUnknown}
}

// Wire returns the raw command string used in keyboard button payloads.
func (c Command) Wire() string {
	if c.Kind == CommandSpeaker {
		return string(CommandSpeaker) + strconv.FormatInt(c.SpeakerVKID, 10)
	}
	return string(c.Kind)
}

// Text commands recognized by exact lower-case match in free-text messages.
const (
	TextHello  = "/hello"
	TextHelp   = "/help"
	TextScores = "/scores"
	TextFinish = "/finish"
)
