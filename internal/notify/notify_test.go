// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

func sampleRecord() types.CanonicalRecord {
	return types.CanonicalRecord{
		ID:              "2401.00001",
		Title:           "Risk_Parity *and* Beyond",
		Authors:         []string{"Jane Doe", "Richard Roe"},
		PDFLink:         "https://export.arxiv.org/pdf/2401.00001",
		AbsLink:         "http://arxiv.org/abs/2401.00001v1",
		Summary:         "We show results.",
		PrimaryCategory: "q-fin.PM",
		AISummary:       "Short digest.",
	}
}

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return &Telegram{
		Client: ts.Client(),
		Config: types.NotifierConfig{Token: "123:abc", ChannelID: "@herald", BaseURL: ts.URL},
	}
}

func TestNotify(t *testing.T) {
	var got sendMessageRequest
	var gotPath string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	})

	require.NoError(t, tg.Notify(context.Background(), sampleRecord()))
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "@herald", got.ChatID)
	assert.Equal(t, "Markdown", got.ParseMode)
	assert.True(t, got.DisableWebPagePreview)
	assert.Equal(t, Format(sampleRecord()), got.Text)
}

func TestNotify_Rejected(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	err := tg.Notify(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNotify_TransportErrorHidesToken(t *testing.T) {
	tg := &Telegram{
		Client: http.DefaultClient,
		Config: types.NotifierConfig{Token: "secret-token", BaseURL: "http://127.0.0.1:1"},
	}
	err := tg.Notify(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestUpdates(t *testing.T) {
	var gotLimit string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/getUpdates", r.URL.Path)
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":1,"channel_post":{"message_id":1,"chat":{"id":-1001,"type":"channel","title":"Herald","username":"herald"}}},
			{"update_id":2,"message":{"message_id":2,"chat":{"id":42,"type":"private","username":"jane"}}},
			{"update_id":3,"channel_post":{"message_id":3,"chat":{"id":-1001,"type":"channel","title":"Herald"}}},
			{"update_id":4,"my_chat_member":{}}
		]}`))
	})

	chats, err := tg.Updates(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "5", gotLimit)
	require.Len(t, chats, 2)
	assert.Equal(t, Chat{ID: -1001, Type: "channel", Title: "Herald", Username: "herald"}, chats[0])
	assert.Equal(t, int64(42), chats[1].ID)
}

func TestFormat(t *testing.T) {
	got := Format(sampleRecord())
	want := "📄 *Title:* Risk\\_Parity \\*and\\* Beyond\n" +
		"👥 *Authors:* Jane Doe, Richard Roe\n\n" +
		"🔍 *Summary:*\nShort digest.\n\n" +
		"🏷 *Category:* q-fin.PM\n" +
		"🔗 [Abstract](http://arxiv.org/abs/2401.00001v1) | [PDF](https://export.arxiv.org/pdf/2401.00001)"
	assert.Equal(t, want, got)
}

func TestFormat_FallsBackToAbstract(t *testing.T) {
	rec := sampleRecord()
	rec.AISummary = ""
	got := Format(rec)
	assert.Contains(t, got, "🔍 *Abstract:*\nWe show results.")
}

func TestFormat_Truncates(t *testing.T) {
	rec := sampleRecord()
	rec.AISummary = strings.Repeat("word ", 2000)
	got := Format(rec)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxMessageRunes)
	assert.Contains(t, got, "…")
	assert.True(t, strings.HasSuffix(got, "[PDF](https://export.arxiv.org/pdf/2401.00001)"))
}

func TestFormat_LongHeaderFits(t *testing.T) {
	rec := sampleRecord()
	rec.Title = strings.Repeat("_title_ ", 1000)
	rec.Authors = nil
	for i := 0; i < 800; i++ {
		rec.Authors = append(rec.Authors, "Author_Name")
	}
	rec.AISummary = strings.Repeat("word ", 2000)

	got := Format(rec)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxMessageRunes)
	assert.Contains(t, got, ", et al.")
	assert.Contains(t, got, "*Summary:*")
	assert.True(t, strings.HasSuffix(got, "[PDF](https://export.arxiv.org/pdf/2401.00001)"))
}

func TestAuthorLine(t *testing.T) {
	assert.Equal(t, "A, B", authorLine([]string{"A", "B"}))

	long := strings.Repeat("x", maxAuthorsRunes+10)
	got := authorLine([]string{long, "B"})
	assert.Equal(t, maxAuthorsRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "a\\_b \\*c\\* \\`d\\` \\[e]", EscapeMarkdown("a_b *c* `d` [e]"))
}
