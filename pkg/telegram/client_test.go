package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionchatbot/internal/core"
)

type apiCall struct {
	Method string
	Form   url.Values
}

// fakeBotAPI answers Bot API methods with canned JSON and records requests.
type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	blocked map[string]bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Form: r.PostForm})
	blocked := f.blocked[r.PostForm.Get("chat_id")]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case method == "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Region","username":"region_chat_bot"}}`)
	case method == "sendMessage" && blocked:
		fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	case method == "sendMessage":
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":%s,"type":"private"}}}`, r.PostForm.Get("chat_id"))
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeBotAPI) last(method string) apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			return f.calls[i]
		}
	}
	return apiCall{}
}

func newTestClient(t *testing.T) (*Client, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{blocked: map[string]bool{"13": true}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		Token:      "123:abc",
		Endpoint:   srv.URL + "/bot%s/%s",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c, api
}

func TestNewClient_ChecksToken(t *testing.T) {
	c, api := newTestClient(t)
	assert.Equal(t, "region_chat_bot", c.Username())
	assert.Equal(t, "getMe", api.last("getMe").Method)
}

func TestSendText(t *testing.T) {
	c, api := newTestClient(t)

	require.NoError(t, c.SendText(context.Background(), 42, "hello"))
	call := api.last("sendMessage")
	assert.Equal(t, "42", call.Form.Get("chat_id"))
	assert.Equal(t, "hello", call.Form.Get("text"))
	assert.Empty(t, call.Form.Get("reply_markup"))
}

func TestSendMenu_RendersKeyboard(t *testing.T) {
	c, api := newTestClient(t)

	menu := core.Menu{
		{Label: "Find", Action: core.ActionFind},
		{Label: "App", URL: "https://example.com"},
	}
	require.NoError(t, c.SendMenu(context.Background(), 42, "pick", menu))

	var markup tgbotapi.InlineKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(api.last("sendMessage").Form.Get("reply_markup")), &markup))
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Find", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "find", *markup.InlineKeyboard[0][0].CallbackData)
	require.NotNil(t, markup.InlineKeyboard[1][0].URL)
	assert.Equal(t, "https://example.com", *markup.InlineKeyboard[1][0].URL)
}

func TestSend_BlockedUserIsDeliveryFailure(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.SendText(context.Background(), 13, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDeliveryFailure)

	var apiErr *tgbotapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
}

func TestSend_CancelledContext(t *testing.T) {
	c, api := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SendText(ctx, 42, "late")
	assert.ErrorIs(t, err, core.ErrDeliveryFailure)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.last("sendMessage").Method)
}

func TestAnswerCallbackAndCommands(t *testing.T) {
	c, api := newTestClient(t)

	require.NoError(t, c.AnswerCallback("cb-1", ""))
	assert.Equal(t, "cb-1", api.last("answerCallbackQuery").Form.Get("callback_query_id"))

	cmds := []tgbotapi.BotCommand{{Command: "find", Description: "Find a partner"}}
	require.NoError(t, c.RegisterCommands("", cmds))
	call := api.last("setMyCommands")
	assert.Contains(t, call.Form.Get("commands"), `"command":"find"`)
	assert.Empty(t, call.Form.Get("language_code"))

	require.NoError(t, c.RegisterCommands("ru", cmds))
	assert.Equal(t, "ru", api.last("setMyCommands").Form.Get("language_code"))
}
