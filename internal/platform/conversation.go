package platform

import (
	"context"
	"fmt"
	"log"

	"github.com/pocketomega/support-agent/internal/state"
)

// ConversationData is the result of fetching a conversation plus its
// primary contact in the shape Initialize needs.
type ConversationData struct {
	Messages    []state.Message
	UserDetails state.UserDetails
	Subject     string
}

// FetchConversationData retrieves a conversation and its contact in two
// calls, mapping Intercom's author-type/part-type shape onto the
// orchestrator's plain user/assistant message history. Only "comment"
// conversation parts are included; notes and system events are internal
// and never become conversation history.
func (c *Client) FetchConversationData(ctx context.Context, conversationID string) (ConversationData, error) {
	var data ConversationData

	conversation, err := c.GetConversation(ctx, conversationID)
	if err != nil {
		return data, fmt.Errorf("platform: fetch conversation %s: %w", conversationID, err)
	}

	if subject, ok := conversation["title"].(string); ok {
		data.Subject = subject
	}

	if source, ok := conversation["source"].(map[string]any); ok {
		if body, _ := source["body"].(string); body != "" {
			data.Messages = append(data.Messages, state.Message{
				Role:        roleFromAuthor(source["author"]),
				Content:     body,
				Attachments: parseAttachments(source["attachments"]),
			})
		}
	}

	if parts, ok := conversation["conversation_parts"].(map[string]any); ok {
		if list, ok := parts["conversation_parts"].([]any); ok {
			for _, raw := range list {
				part, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				body, _ := part["body"].(string)
				partType, _ := part["part_type"].(string)
				if body == "" || partType != "comment" {
					continue
				}
				data.Messages = append(data.Messages, state.Message{
					Role:        roleFromAuthor(part["author"]),
					Content:     body,
					Attachments: parseAttachments(part["attachments"]),
				})
			}
		}
	}

	contacts, _ := conversation["contacts"].(map[string]any)
	contactList, _ := contacts["contacts"].([]any)
	if len(contactList) == 0 {
		log.Printf("[Platform] no contacts found in conversation %s", conversationID)
		return data, nil
	}
	first, _ := contactList[0].(map[string]any)
	contactID, _ := first["id"].(string)
	if contactID == "" {
		log.Printf("[Platform] no contact id found in conversation %s", conversationID)
		return data, nil
	}

	contact, err := c.GetContact(ctx, contactID)
	if err != nil {
		return data, fmt.Errorf("platform: fetch contact %s: %w", contactID, err)
	}
	if email, ok := contact["email"].(string); ok {
		data.UserDetails.Email = email
	} else {
		log.Printf("[Platform] no email on contact %s for conversation %s", contactID, conversationID)
	}
	if name, ok := contact["name"].(string); ok {
		data.UserDetails.Name = name
	}

	return data, nil
}

// parseAttachments maps an Intercom message/part's "attachments" array
// onto state.Attachment. Unrecognised or malformed entries are skipped
// rather than failing the whole conversation fetch.
func parseAttachments(raw any) []state.Attachment {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	var attachments []state.Attachment
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		url, _ := m["url"].(string)
		if name == "" && url == "" {
			continue
		}
		att := state.Attachment{
			Name:        name,
			ContentType: firstString(m["content_type"], m["contentType"]),
			URL:         url,
		}
		if fs, ok := m["filesize"].(float64); ok {
			att.Filesize = int64(fs)
		}
		if w, ok := m["width"].(float64); ok {
			att.Width = int(w)
		}
		if h, ok := m["height"].(float64); ok {
			att.Height = int(h)
		}
		attachments = append(attachments, att)
	}
	return attachments
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// roleFromAuthor maps an Intercom author block's type to this
// orchestrator's user/assistant role label: admin authors produced
// replies, everything else is the end user.
func roleFromAuthor(raw any) string {
	author, ok := raw.(map[string]any)
	if !ok {
		return "user"
	}
	if authorType, _ := author["type"].(string); authorType == "admin" {
		return "assistant"
	}
	return "user"
}
