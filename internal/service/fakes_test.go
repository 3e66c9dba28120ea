package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"regionchatbot/internal/core"
	"regionchatbot/internal/repository"
	"regionchatbot/pkg/database"
	"regionchatbot/pkg/i18n"
	"regionchatbot/pkg/logging"
)

var errUnreachable = errors.New("bot was blocked by the user")

type sentMessage struct {
	ChatID int64
	Text   string
	Menu   core.Menu
}

// fakeTransport records outbound messages and fails delivery to chats listed
// in fail.
type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[int64]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: make(map[int64]bool)}
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string) error {
	return f.record(sentMessage{ChatID: chatID, Text: text})
}

func (f *fakeTransport) SendMenu(_ context.Context, chatID int64, text string, menu core.Menu) error {
	return f.record(sentMessage{ChatID: chatID, Text: text, Menu: menu})
}

func (f *fakeTransport) record(m sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[m.ChatID] {
		return errUnreachable
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeTransport) Fail(chatID int64, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[chatID] = fail
}

// Texts returns the texts delivered to chatID and forgets them.
func (f *fakeTransport) Texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	kept := f.sent[:0]
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
			continue
		}
		kept = append(kept, m)
	}
	f.sent = kept
	return out
}

func (f *fakeTransport) LastMenu(chatID int64) core.Menu {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].ChatID == chatID && f.sent[i].Menu != nil {
			return f.sent[i].Menu
		}
	}
	return nil
}

type harness struct {
	repo *repository.UserRepository
	bot  *fakeTransport
	tr   *i18n.I18nService
	ctl  *SessionController
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx, logging.Nop()))

	tr := i18n.NewI18n("en")
	require.NoError(t, tr.LoadLanguages(i18n.Embedded()))

	repo := repository.NewUserRepository(db)
	bot := newFakeTransport()
	ctl := NewSessionController(repo, NewMatchmaker(repo, logging.Nop()), bot, tr, logging.Nop(), SessionConfig{
		MiniAppURL: "https://example.com",
	})
	return &harness{repo: repo, bot: bot, tr: tr, ctl: ctl}
}

func (h *harness) msg(key string, args ...any) string {
	if len(args) == 0 {
		return h.tr.Get("en", key)
	}
	return h.tr.Format("en", key, args...)
}

func (h *harness) user(t *testing.T, id int64) *core.User {
	t.Helper()
	u, err := h.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// asia returns a profile whose "ja" locale resolves to Asia. The catalogue
// has no ja file, so its messages are the en ones.
func asia(id int64) Profile {
	return Profile{ID: id, FirstName: "User", LanguageCode: "ja"}
}
