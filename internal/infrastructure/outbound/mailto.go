// Package outbound holds the batch report hand-off channels that need no remote service.
package outbound

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/port"
)

// MailtoChannel hands the report to the operator's mail client by building a
// mailto: URL. The URL is the receipt; nothing is sent from the server.
type MailtoChannel struct {
	logger *zap.Logger
}

// NewMailtoChannel creates the mailto channel
func NewMailtoChannel(logger *zap.Logger) *MailtoChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailtoChannel{logger: logger}
}

// Name identifies the channel
func (c *MailtoChannel) Name() string {
	return "mailto"
}

// Send returns the mailto URL carrying the subject and body
func (c *MailtoChannel) Send(ctx context.Context, msg port.OutboundMessage) (string, error) {
	link := MailtoURL(msg.Address, msg.Subject, msg.Body)

	c.logger.Info("Batch report prepared for mail client",
		zap.String("address", msg.Address),
		zap.String("subject", msg.Subject),
		zap.Int("url_length", len(link)))

	return link, nil
}

// MailtoURL builds an RFC 6068 mailto link; spaces are encoded as %20
func MailtoURL(address, subject, body string) string {
	q := "subject=" + escape(subject) + "&body=" + escape(body)
	return "mailto:" + url.PathEscape(address) + "?" + q
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
