package telegramchat

import (
	"context"
	"fmt"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

var allowedUpdates = []string{"message", "edited_message"}

type Option func(*[]telego.BotOption)

// WithAPIServer points the client to a Bot API server other than the public one.
func WithAPIServer(url string) Option {
	return func(opts *[]telego.BotOption) {
		*opts = append(*opts, telego.WithAPIServer(url))
	}
}

type client struct {
	bot *telego.Bot
}

func NewClient(token string, opts ...Option) (ports.ChatClient, error) {
	botOpts := []telego.BotOption{telego.WithLogger(log.StandardLogger())}
	for _, opt := range opts {
		opt(&botOpts)
	}

	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &client{bot}, nil
}

func (c *client) GetUpdates(
	ctx context.Context, offset *int64, limit int,
) ([]domain.ChatUpdate, error) {
	params := &telego.GetUpdatesParams{
		Limit:          limit,
		AllowedUpdates: allowedUpdates,
	}
	if offset != nil {
		params.Offset = int(*offset)
	}

	updates, err := c.bot.GetUpdates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}

	result := make([]domain.ChatUpdate, 0, len(updates))
	for _, u := range updates {
		result = append(result, domain.ChatUpdate{
			Id:            int64(u.UpdateID),
			Message:       toChatMessage(u.Message),
			EditedMessage: toChatMessage(u.EditedMessage),
		})
	}
	return result, nil
}

func (c *client) SendMessage(ctx context.Context, chatId int64, text string) error {
	if _, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatId},
		Text:   text,
	}); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatId, err)
	}
	return nil
}

func toChatMessage(m *telego.Message) *domain.ChatMessage {
	if m == nil {
		return nil
	}
	members := make([]domain.ChatUser, 0, len(m.NewChatMembers))
	for _, u := range m.NewChatMembers {
		members = append(members, toChatUser(u))
	}
	var from *domain.ChatUser
	if m.From != nil {
		user := toChatUser(*m.From)
		from = &user
	}
	return &domain.ChatMessage{
		Id:       int64(m.MessageID),
		ThreadId: int64(m.MessageThreadID),
		From:     from,
		Chat: domain.Chat{
			Id:       m.Chat.ID,
			Type:     domain.ChatType(m.Chat.Type),
			Title:    m.Chat.Title,
			Username: m.Chat.Username,
		},
		Date:           m.Date,
		Text:           m.Text,
		NewChatMembers: members,
	}
}

func toChatUser(u telego.User) domain.ChatUser {
	return domain.ChatUser{
		Id:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		Username:  u.Username,
	}
}
