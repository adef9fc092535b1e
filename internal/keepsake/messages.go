package keepsake

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jun/babymemories/internal/model"
)

const (
	maxNameLength    = 50
	maxMessageLength = 1000
	maxMessages      = 500
)

// Messages lists the guestbook, newest first, with each message rendered
// from Markdown into HTML. Emails are stored but never listed.
func (s *Service) Messages(ctx context.Context) ([]model.Message, error) {
	messages, err := s.messages.Load(ctx, MessagesKey, DefaultMessages)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Email = ""
		html, err := s.renderer.RenderString(messages[i].Message)
		if err != nil {
			slog.Warn("Failed to render message", "id", messages[i].ID, "error", err)
			continue
		}
		messages[i].HTML = html
	}
	return messages, nil
}

// AddMessage prepends a guestbook entry. Name and message are required; the
// email is optional but must parse when given. Only the newest maxMessages
// entries are kept.
func (s *Service) AddMessage(ctx context.Context, name, email, message string) (model.Message, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)
	switch {
	case name == "":
		return model.Message{}, fmt.Errorf("%w: name is required", ErrInvalid)
	case message == "":
		return model.Message{}, fmt.Errorf("%w: message is required", ErrInvalid)
	case utf8.RuneCountInString(name) > maxNameLength:
		return model.Message{}, fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, maxNameLength)
	case utf8.RuneCountInString(message) > maxMessageLength:
		return model.Message{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalid, maxMessageLength)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return model.Message{}, fmt.Errorf("%w: invalid email", ErrInvalid)
		}
	}

	entry := model.Message{
		ID:      uuid.New().String(),
		Name:    name,
		Email:   email,
		Message: message,
		Date:    s.today(),
	}
	_, err := s.messages.Update(ctx, MessagesKey, DefaultMessages, func(messages *[]model.Message) error {
		*messages = append([]model.Message{entry}, *messages...)
		if len(*messages) > maxMessages {
			*messages = (*messages)[:maxMessages]
		}
		return nil
	})
	if err != nil {
		return model.Message{}, err
	}
	entry.Email = ""
	if html, err := s.renderer.RenderString(entry.Message); err == nil {
		entry.HTML = html
	}
	return entry, nil
}

// DefaultMessages is the seed used before anything was stored.
func DefaultMessages() []model.Message {
	return []model.Message{
		{ID: "1", Name: "小明", Email: "xiaoming@example.com", Message: "祝宝宝健康快乐成长，永远被爱包围！", Date: "2024-01-15"},
		{ID: "2", Name: "小红", Email: "xiaohong@example.com", Message: "可爱的宝宝，愿你有一个美好的未来！", Date: "2024-01-16"},
		{ID: "3", Name: "小李", Email: "xiaoli@example.com", Message: "愿宝宝在爱的阳光下茁壮成长，成为一个善良、勇敢、有担当的人！", Date: "2024-01-17"},
	}
}
