package domain

type ChatType string

const (
	ChatTypePrivate    ChatType = "private"
	ChatTypeGroup      ChatType = "group"
	ChatTypeSupergroup ChatType = "supergroup"
	ChatTypeChannel    ChatType = "channel"
)

type ChatUser struct {
	Id        int64
	IsBot     bool
	FirstName string
	Username  string
}

type Chat struct {
	Id       int64
	Type     ChatType
	Title    string
	Username string
}

func (c Chat) IsGroup() bool {
	switch c.Type {
	case ChatTypeGroup, ChatTypeSupergroup, ChatTypeChannel:
		return true
	default:
		return false
	}
}

type ChatMessage struct {
	Id             int64
	ThreadId       int64
	From           *ChatUser
	Chat           Chat
	Date           int64
	Text           string
	NewChatMembers []ChatUser
}

// ChatUpdate is one entry of the chat platform update stream, identified by a monotonically
// increasing id.
type ChatUpdate struct {
	Id            int64
	Message       *ChatMessage
	EditedMessage *ChatMessage
}

// GetMessage returns the message carried by the update, falling back to the edited one.
func (u ChatUpdate) GetMessage() *ChatMessage {
	if u.Message != nil {
		return u.Message
	}
	return u.EditedMessage
}
