package tgbot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"xports-bot/internal/auth"
	"xports-bot/internal/backend"
	"xports-bot/internal/cache"
	"xports-bot/internal/config"
	"xports-bot/internal/payments"
	"xports-bot/internal/roles"
)

// App is the bot front-end: it routes updates to screens, keeps one session
// per chat and drives the contest lifecycle state machine for the detail
// view.
type App struct {
	cfg      config.Config
	bot      *tgbotapi.BotAPI
	provider auth.Provider
	pay      payments.Provider
	log      *zap.SugaredLogger

	mu    sync.Mutex
	chats map[int64]*chatState
}

func New(cfg config.Config, provider auth.Provider, pay payments.Provider, log *zap.SugaredLogger) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return &App{
		cfg:      cfg,
		bot:      b,
		provider: provider,
		pay:      pay,
		log:      log,
		chats:    map[int64]*chatState{},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				if err := a.handleMessage(ctx, upd.Message); err != nil {
					a.log.Errorw("handle msg", "chat", upd.Message.Chat.ID, "err", err)
				}
			} else if upd.CallbackQuery != nil {
				if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
					a.log.Errorw("handle cb", "chat", upd.CallbackQuery.From.ID, "err", err)
				}
			}
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.bot.Send(msg)
	return err
}

// chatFor lazily builds the per-chat runtime: session, gateway-bound backend
// client, query cache and role resolver. Dropping the chat state disposes
// all of it.
func (a *App) chatFor(chatID int64) *chatState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.chats[chatID]; ok {
		return st
	}

	st := &chatState{chatID: chatID, busy: map[string]bool{}}
	st.sess = auth.NewSession(a.provider, a.log)
	st.store = cache.New()
	st.api = backend.New(a.cfg.APIBaseURL, st.sess, func() {
		// Gateway-forced sign-out: runs once per session generation even
		// under concurrent failing requests.
		a.onAuthExpired(chatID)
	}, a.log)
	st.roles = roles.New(st.sess, st.api, st.store)
	a.chats[chatID] = st
	return st
}

func (a *App) onAuthExpired(chatID int64) {
	st := a.chatFor(chatID)
	st.leaveView()
	st.store.Clear()
	_ = a.SendText(chatID, "Your session expired. Please sign in again.")
	_ = a.showLogin(chatID)
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)
	st := a.chatFor(chatID)

	switch {
	case strings.HasPrefix(txt, "/start"):
		st.resetFlow()
		st.leaveView()
		return a.showHome(ctx, chatID)
	case strings.HasPrefix(txt, "/contests"):
		st.resetFlow()
		return a.navigate(ctx, chatID, "c:list:0")
	case strings.HasPrefix(txt, "/dashboard"):
		st.resetFlow()
		return a.navigate(ctx, chatID, "d:home")
	case strings.HasPrefix(txt, "/logout"):
		st.resetFlow()
		st.leaveView()
		st.sess.SignOut()
		st.store.Clear()
		return a.SendText(chatID, "Signed out. /start to continue.")
	}

	if st.flow.Name != "" {
		return a.handleFlowInput(ctx, chatID, txt, st)
	}
	return a.showHome(ctx, chatID)
}

func (a *App) handleFlowInput(ctx context.Context, chatID int64, txt string, st *chatState) error {
	switch st.flow.Name {
	case flowLogin:
		return a.handleLoginFlow(ctx, chatID, txt, st)
	case flowSignup:
		return a.handleSignupFlow(ctx, chatID, txt, st)
	case flowReset:
		return a.handleResetFlow(ctx, chatID, txt, st)
	case flowSubmit:
		return a.handleSubmitFlow(ctx, chatID, txt, st)
	case flowSearch:
		return a.handleSearchFlow(ctx, chatID, txt, st)
	case flowCreateContest, flowUpdateContest:
		return a.handleContestEditorFlow(ctx, chatID, txt, st)
	default:
		st.resetFlow()
		return a.SendText(chatID, "State reset. Press /start")
	}
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	chatID := q.From.ID
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}

	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.bot.Request(cb)

	return a.navigate(ctx, chatID, q.Data)
}

// navigate routes both callback data and stashed post-login destinations.
func (a *App) navigate(ctx context.Context, chatID int64, route string) error {
	st := a.chatFor(chatID)

	if strings.HasPrefix(route, "s:") {
		return a.handleSessionRoute(ctx, chatID, route, st)
	}
	if strings.HasPrefix(route, "c:") {
		return a.handleContestRoute(ctx, chatID, route, st)
	}
	if strings.HasPrefix(route, "d:") {
		return a.handleDashboardRoute(ctx, chatID, route, st)
	}
	if route == "nav:home" {
		st.leaveView()
		return a.showHome(ctx, chatID)
	}
	return nil
}

// requireAuth is the route guard: while the session resolves a placeholder
// is shown, a signed-out viewer is sent to login with the requested route
// stashed, and a signed-in viewer passes through unchanged.
func (a *App) requireAuth(chatID int64, st *chatState, target string) bool {
	if st.sess.Loading() {
		_ = a.SendText(chatID, "One moment, your sign-in is still completing...")
		return false
	}
	if st.sess.Identity() == nil {
		st.pendingNav = target
		_ = a.showLogin(chatID)
		return false
	}
	return true
}

func (a *App) showHome(ctx context.Context, chatID int64) error {
	st := a.chatFor(chatID)
	id := st.sess.Identity()
	if id == nil {
		return a.showWelcome(chatID)
	}

	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		a.log.Warnw("resolve role", "chat", chatID, "err", err)
	}
	text, kb := renderHome(*id, ri)
	return a.sendWithKeyboard(chatID, text, kb)
}

func (a *App) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = kb
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) notifyError(chatID int64, userMsg string, err error) error {
	a.log.Warnw(userMsg, "chat", chatID, "err", err)
	return a.SendText(chatID, "⚠️ "+userMsg+" You can retry.")
}
