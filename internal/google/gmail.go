package google

import (
	"context"
	"fmt"
	"log"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
)

const maxUnread = 10

type Email struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet,omitempty"`
}

// UnreadEmails returns up to 10 unread messages and caches them as email_context.
func (c *Client) UnreadEmails(ctx context.Context) ([]Email, error) {
	srv, err := c.gmailService(ctx)
	if err != nil {
		return nil, err
	}
	list, err := srv.Users.Messages.List("me").Q("is:unread").MaxResults(maxUnread).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list failed: %w", err)
	}

	emails := make([]Email, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := srv.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).
			Do()
		if err != nil {
			log.Printf("Google: failed to fetch message %s: %v", m.Id, err)
			continue
		}
		e := Email{ID: msg.Id, Snippet: msg.Snippet}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch h.Name {
				case "From":
					e.From = h.Value
				case "Subject":
					e.Subject = h.Value
				}
			}
		}
		emails = append(emails, e)
	}

	if err := c.store.Set(ctx, storage.DocEmailContext, emails); err != nil {
		log.Printf("Google: failed to cache email context: %v", err)
	}
	return emails, nil
}

// DeleteEmail moves a message to the trash.
func (c *Client) DeleteEmail(ctx context.Context, id string) error {
	srv, err := c.gmailService(ctx)
	if err != nil {
		return err
	}
	if _, err := srv.Users.Messages.Trash("me", id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail delete failed: %w", err)
	}
	return nil
}
