// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers canonical records to a chat channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/preprint-herald/internal/httputil"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

const defaultBaseURL = "https://api.telegram.org"

// ErrRejected reports a request the Bot API answered with ok=false.
var ErrRejected = errors.New("telegram rejected request")

// Notifier posts one record to the configured channel.
type Notifier interface {
	Notify(ctx context.Context, rec types.CanonicalRecord) error
}

// Telegram is a Bot API client.
type Telegram struct {
	Client *http.Client
	Config types.NotifierConfig
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
}

// Notify implements Notifier.
func (t *Telegram) Notify(ctx context.Context, rec types.CanonicalRecord) error {
	return t.Send(ctx, Format(rec))
}

// Send posts text to the configured channel with Markdown parsing.
func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.Config.ChannelID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = t.do(ctx, req)
	return err
}

// Chat is a conversation the bot has seen in its update stream.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type chatMessage struct {
	Chat Chat `json:"chat"`
}

type update struct {
	UpdateID    int64        `json:"update_id"`
	Message     *chatMessage `json:"message"`
	ChannelPost *chatMessage `json:"channel_post"`
}

// Updates returns the distinct chats found in the latest limit updates, in
// the order first seen. It is how a channel id is discovered after the bot
// has been added to the channel and something was posted there.
func (t *Telegram) Updates(ctx context.Context, limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = 10
	}
	endpoint := t.methodURL("getUpdates") + "?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	raw, err := t.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var updates []update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}

	var chats []Chat
	seen := make(map[int64]bool)
	for _, u := range updates {
		var c *Chat
		switch {
		case u.ChannelPost != nil:
			c = &u.ChannelPost.Chat
		case u.Message != nil:
			c = &u.Message.Chat
		default:
			continue
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		chats = append(chats, *c)
	}
	return chats, nil
}

func (t *Telegram) methodURL(method string) string {
	base := t.Config.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/bot" + t.Config.Token + "/" + method
}

// do sends req and returns the result field of a successful response.
// Error messages never include the request URL because it embeds the token.
func (t *Telegram) do(ctx context.Context, req *http.Request) (json.RawMessage, error) {
	if t.Config.UserAgent != "" {
		req.Header.Set("User-Agent", t.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, t.Client, req, 0)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("telegram returned HTTP %d with unreadable body: %w", resp.StatusCode, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("%w: %d %s", ErrRejected, out.ErrorCode, out.Description)
	}
	return out.Result, nil
}
