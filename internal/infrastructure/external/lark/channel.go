package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/liquidagov/internal/application/port"
)

// receiveIDTypeEmail addresses the recipient by e-mail; the Lark app needs
// the contact:user.email permission.
const receiveIDTypeEmail = "email"

// MessageSender is the subset of Client the channel needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// MailChannel delivers batch reports as Lark post messages
type MailChannel struct {
	sender MessageSender
}

// NewMailChannel creates the Lark outbound channel
func NewMailChannel(sender MessageSender) *MailChannel {
	return &MailChannel{sender: sender}
}

// Name identifies the channel
func (c *MailChannel) Name() string {
	return "lark"
}

// Send posts the report to the address and returns the Lark message ID
func (c *MailChannel) Send(ctx context.Context, msg port.OutboundMessage) (string, error) {
	content, err := buildPostContent(msg.Subject, msg.Body)
	if err != nil {
		return "", err
	}
	return c.sender.SendMessage(ctx, receiveIDTypeEmail, msg.Address, "post", content)
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// buildPostContent renders a rich-text post with one paragraph per body line
func buildPostContent(title, body string) (string, error) {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	paragraphs := make([][]postElement, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, []postElement{{Tag: "text", Text: line}})
	}

	data, err := json.Marshal(map[string]postBody{
		"pt_br": {Title: title, Content: paragraphs},
		"en_us": {Title: title, Content: paragraphs},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal post content: %w", err)
	}
	return string(data), nil
}
