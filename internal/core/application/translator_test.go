package application

import (
	"testing"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestTranslateUpdate(t *testing.T) {
	alice := testAddress(t, 10)

	t.Run("valid", func(t *testing.T) {
		testCases := []struct {
			name            string
			update          domain.ChatUpdate
			expectedCommand domain.Command
			expectedPayload *domain.Payload
		}{
			{
				name:            "receive",
				update:          domain.ChatUpdate{Id: 1, Message: textMessage(11, "alice", "/receive "+alice)},
				expectedCommand: domain.ReceiveCommand{Address: alice},
				expectedPayload: &domain.Payload{Register: &domain.RegisterPayload{
					MessageId: 11, Handle: "alice", Address: alice,
				}},
			},
			{
				name:   "send",
				update: domain.ChatUpdate{Id: 2, Message: textMessage(12, "alice", "/send@paybot @bob 25 ulayer")},
				expectedCommand: domain.SendCommand{
					Handle: "bob", Amount: domain.NewAmount(25), Denom: "ulayer",
				},
				expectedPayload: &domain.Payload{SendPayment: &domain.SendPaymentPayload{
					MessageId:  12,
					FromHandle: "alice",
					ToHandle:   "bob",
					Amount:     domain.NewAmount(25),
					Denom:      "ulayer",
				}},
			},
			{
				name:            "edited message",
				update:          domain.ChatUpdate{Id: 3, EditedMessage: textMessage(13, "", "/status")},
				expectedCommand: domain.StatusCommand{},
			},
			{
				name:            "group id",
				update:          domain.ChatUpdate{Id: 4, Message: textMessage(14, "alice", "/groupId")},
				expectedCommand: domain.GroupIdCommand{GroupId: -100},
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				res := translateUpdate(tc.update)
				require.NoError(t, res.Err)
				require.Equal(t, tc.update.Id, res.UpdateId)
				require.NotNil(t, res.Message)
				require.Equal(t, tc.expectedCommand, res.Command)
				require.Equal(t, tc.expectedPayload, res.Payload)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		testCases := []struct {
			name         string
			update       domain.ChatUpdate
			expectedKind domain.BotErrorKind
		}{
			{
				name:         "no message",
				update:       domain.ChatUpdate{Id: 1},
				expectedKind: domain.BotErrEmptyMessage,
			},
			{
				name:         "unknown command",
				update:       domain.ChatUpdate{Id: 2, Message: textMessage(1, "alice", "/dance")},
				expectedKind: domain.BotErrUnknownCommand,
			},
			{
				name:         "missing username",
				update:       domain.ChatUpdate{Id: 3, Message: textMessage(1, "", "/receive "+alice)},
				expectedKind: domain.BotErrNoUsername,
			},
			{
				name:         "bad amount",
				update:       domain.ChatUpdate{Id: 4, Message: textMessage(1, "alice", "/send bob ten ulayer")},
				expectedKind: domain.BotErrParse,
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				res := translateUpdate(tc.update)
				require.Equal(t, tc.update.Id, res.UpdateId)
				require.Nil(t, res.Payload)

				var botErr *domain.BotError
				require.ErrorAs(t, res.Err, &botErr)
				require.Equal(t, tc.expectedKind, botErr.Kind)
			})
		}
	})
}
