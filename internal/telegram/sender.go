// Package telegram mirrors user notices to Telegram chats.
package telegram

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxTelegramMessage = 4096

// Prefix is the delivery target prefix handled by a Sender.
const Prefix = "telegram:"

// Sender sends plain-text messages through a bot.
type Sender struct {
	bot *tgbotapi.BotAPI
}

// New creates a Sender for the bot token.
func New(token string) (*Sender, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint creates a Sender against a custom Bot API endpoint, a
// format string taking the token and the method.
func NewWithEndpoint(token, endpoint string) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	slog.Info("telegram bot ready", "username", bot.Self.UserName)
	return &Sender{bot: bot}, nil
}

// Deliver sends message to a "telegram:<chatID>" target. It matches
// delivery.Handler.
func (s *Sender) Deliver(target, message string) error {
	chatID, err := ParseTarget(target)
	if err != nil {
		return err
	}
	for _, part := range splitMessage(message) {
		if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("send to chat %d: %w", chatID, err)
		}
	}
	return nil
}

// Target builds the delivery target for a chat.
func Target(chatID int64) string {
	return Prefix + strconv.FormatInt(chatID, 10)
}

// ParseTarget extracts the chat id from a "telegram:<chatID>" target.
func ParseTarget(target string) (int64, error) {
	raw, ok := strings.CutPrefix(target, Prefix)
	if !ok {
		return 0, fmt.Errorf("not a telegram target: %q", target)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", raw, err)
	}
	return chatID, nil
}

// splitMessage cuts text into parts of at most maxTelegramMessage bytes
// without splitting a UTF-8 sequence.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end >= len(text) {
			end = len(text)
		} else {
			for end > 0 && !utf8.RuneStart(text[end]) {
				end--
			}
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
