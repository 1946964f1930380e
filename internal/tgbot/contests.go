package tgbot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xports-bot/internal/backend"
	"xports-bot/internal/cache"
	"xports-bot/internal/lifecycle"
	"xports-bot/internal/models"
	"xports-bot/internal/server"
)

const pageSize = 5

var contestTypes = []string{"Design", "Development", "Gaming", "Writing", "Business", "Photography"}

func (a *App) handleContestRoute(ctx context.Context, chatID int64, route string, st *chatState) error {
	switch {
	case strings.HasPrefix(route, "c:list:"):
		page, _ := strconv.Atoi(strings.TrimPrefix(route, "c:list:"))
		st.leaveView()
		return a.showContestList(ctx, chatID, st, page)
	case route == "c:typepick":
		return a.showTypePicker(chatID)
	case strings.HasPrefix(route, "c:type:"):
		t := strings.TrimPrefix(route, "c:type:")
		if t == "all" {
			t = ""
		}
		st.listQuery.Type = t
		return a.showContestList(ctx, chatID, st, 0)
	case route == "c:search":
		st.startFlow(flowSearch, nil)
		return a.SendText(chatID, "Search contests. Enter a keyword (or - to clear):")
	case strings.HasPrefix(route, "c:view:"):
		return a.showContestDetail(ctx, chatID, st, strings.TrimPrefix(route, "c:view:"))
	case strings.HasPrefix(route, "c:pay:"):
		return a.startPayment(ctx, chatID, st, strings.TrimPrefix(route, "c:pay:"))
	case strings.HasPrefix(route, "c:submit:"):
		return a.startSubmission(ctx, chatID, st, strings.TrimPrefix(route, "c:submit:"))
	case strings.HasPrefix(route, "c:review:"):
		return a.showSubmittedTasks(ctx, chatID, st, strings.TrimPrefix(route, "c:review:"))
	}
	return nil
}

func (a *App) handleSearchFlow(ctx context.Context, chatID int64, txt string, st *chatState) error {
	st.resetFlow()
	if txt == "-" {
		st.listQuery.Search = ""
	} else {
		st.listQuery.Search = txt
	}
	return a.showContestList(ctx, chatID, st, 0)
}

// ---------- Listing ----------

func (a *App) showContestList(ctx context.Context, chatID int64, st *chatState, page int) error {
	if page < 0 {
		page = 0
	}
	q := st.listQuery
	q.Skip = page * pageSize
	q.Limit = pageSize

	res, err := st.api.ListContests(ctx, q)
	if err != nil {
		return a.notifyError(chatID, "Could not load contests.", err)
	}

	text, kb := renderContestList(res, q, page, pageSize)
	return a.sendWithKeyboard(chatID, text, kb)
}

func (a *App) showTypePicker(chatID int64) error {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("All types", "c:type:all"),
		),
	}
	for _, t := range contestTypes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t, "c:type:"+t),
		))
	}
	msg := tgbotapi.NewMessage(chatID, "Filter by contest type:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := a.bot.Send(msg)
	return err
}

// ---------- Detail view ----------

func (a *App) fetchContest(ctx context.Context, st *chatState, id string) (models.Contest, error) {
	key := cache.ContestKey(id)
	if v, ok := st.store.Get(key); ok {
		return v.(models.Contest), nil
	}
	c, err := st.api.GetContest(ctx, id)
	if err != nil {
		return models.Contest{}, err
	}
	st.store.Set(key, c)
	return c, nil
}

func (a *App) fetchRegistration(ctx context.Context, st *chatState, email, contestID string) (models.Registration, error) {
	key := cache.RegistrationKey(email, contestID)
	if v, ok := st.store.Get(key); ok {
		return v.(models.Registration), nil
	}
	reg, err := st.api.CheckRegistration(ctx, email, contestID)
	if err != nil {
		return models.Registration{}, err
	}
	st.store.Set(key, reg)
	return reg, nil
}

func (a *App) evaluateDetail(ctx context.Context, st *chatState, contestID string) (models.Contest, lifecycle.State, error) {
	id := st.sess.Identity()
	if id == nil {
		return models.Contest{}, lifecycle.StateLoading, nil
	}

	contest, err := a.fetchContest(ctx, st, contestID)
	if err != nil {
		return models.Contest{}, lifecycle.StateLoading, err
	}
	reg, err := a.fetchRegistration(ctx, st, id.Email, contestID)
	if err != nil {
		return models.Contest{}, lifecycle.StateLoading, err
	}
	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		return models.Contest{}, lifecycle.StateLoading, err
	}

	state := lifecycle.Evaluate(lifecycle.Input{
		Contest:      &contest,
		Registration: &reg,
		ViewerEmail:  id.Email,
		ViewerRole:   ri.Role,
		Policy:       lifecycle.Policy{AllowElevatedParticipation: a.cfg.AllowElevatedParticipation},
		Now:          time.Now(),
	})
	return contest, state, nil
}

// mountDetail is the fresh-view evaluation: the cached contest is dropped
// first so a winner declared or status changed by anyone else shows up on
// the next view. The refilled entry only serves the countdown's end-of-view
// re-evaluation.
func (a *App) mountDetail(ctx context.Context, st *chatState, contestID string) (models.Contest, lifecycle.State, error) {
	st.store.Delete(cache.ContestKey(contestID))
	return a.evaluateDetail(ctx, st, contestID)
}

func (a *App) showContestDetail(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	if !a.requireAuth(chatID, st, "c:view:"+contestID) {
		return nil
	}

	viewCtx, epoch := st.enterView()

	contest, state, err := a.mountDetail(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}

	now := time.Now()
	text, kb := renderContestDetail(contest, state, now)
	if err := a.sendWithKeyboard(chatID, text, kb); err != nil {
		return err
	}

	if lifecycle.Closure(contest, now) != lifecycle.CloseNone {
		st.leaveView()
		return nil
	}

	// Live countdown: a separate message edited once per second until the
	// deadline passes, then one final re-render of the whole view so the
	// state machine transitions without user action.
	countdownMsg := tgbotapi.NewMessage(chatID, "⏳ "+lifecycle.FormatRemaining(time.Until(contest.Deadline)))
	sent, err := a.bot.Send(countdownMsg)
	if err != nil {
		return err
	}

	go a.runCountdown(viewCtx, st, epoch, chatID, sent.MessageID, contest.ID, contest.Deadline)
	return nil
}

func (a *App) runCountdown(ctx context.Context, st *chatState, epoch uint64, chatID int64, messageID int, contestID string, deadline time.Time) {
	last := ""
	lifecycle.NewCountdown(deadline).Run(ctx, func(text string, ended bool) {
		if !st.viewAlive(epoch) {
			return
		}
		display := "⏳ " + text
		if ended {
			display = "🔴 " + text
		}
		if display == last {
			return
		}
		last = display
		edit := tgbotapi.NewEditMessageText(chatID, messageID, display)
		if _, err := a.bot.Request(edit); err != nil {
			a.log.Debugw("countdown edit", "chat", chatID, "err", err)
		}

		if ended && st.viewAlive(epoch) {
			contest, state, err := a.evaluateDetail(ctx, st, contestID)
			if err != nil {
				return
			}
			body, kb := renderContestDetail(contest, state, time.Now())
			_ = a.sendWithKeyboard(chatID, body, kb)
		}
	})
}

// ---------- Registration / payment ----------

func (a *App) startPayment(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	if !a.requireAuth(chatID, st, "c:view:"+contestID) {
		return nil
	}

	control := "pay:" + contestID
	if !st.tryAcquire(control) {
		return nil
	}
	defer st.release(control)

	contest, state, err := a.evaluateDetail(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}
	switch state {
	case lifecycle.StateRestrictedRole:
		return a.SendText(chatID, "Admins and Creators cannot participate!")
	case lifecycle.StateNotRegisteredOpen:
	default:
		return a.SendText(chatID, "Registration is not available for this contest.")
	}

	id := st.sess.Identity()
	req := backend.CheckoutRequest{
		ContestID:        contest.ID,
		ContestName:      contest.Name,
		Price:            contest.Price,
		Description:      contest.Description,
		Image:            contest.BannerImage,
		ParticipantEmail: id.Email,
		ParticipantName:  id.DisplayName,
		ParticipantPhoto: id.PhotoURL,
		SuccessURL:       server.ReturnURL(a.cfg, chatID, server.StatusSuccess),
		CancelURL:        server.ReturnURL(a.cfg, chatID, server.StatusCancelled),
	}

	payURL, _, err := a.pay.CreateCheckout(ctx, st.api, req)
	if err != nil {
		return a.notifyError(chatID, "Payment initiation failed!", err)
	}

	msg := tgbotapi.NewMessage(chatID,
		"💳 Entry fee: $"+contest.Price.String()+"\nComplete the payment in your browser; I will confirm here once it settles.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Pay now", payURL),
		),
	)
	_, err = a.bot.Send(msg)
	return err
}

// HandlePaymentReturn is invoked by the HTTP return surface after the
// hosted checkout redirects back.
func (a *App) HandlePaymentReturn(ctx context.Context, chatID int64, sessionID, status string) error {
	st := a.chatFor(chatID)

	if status == server.StatusCancelled {
		return a.showPaymentCancelled(ctx, chatID, st, sessionID)
	}

	res, err := a.pay.Finalize(ctx, st.api, sessionID)
	if err != nil {
		_ = a.SendText(chatID, "⚠️ We could not confirm your payment. Please retry from the contest page.")
		return err
	}

	// The registration cache is stale the moment the payment settles.
	st.invalidateRegistrations()

	cs, csErr := st.api.GetCheckoutSession(ctx, sessionID)
	if csErr != nil {
		a.log.Warnw("checkout session lookup", "chat", chatID, "err", csErr)
	}

	if !res.AlreadyProcessed {
		_ = a.SendText(chatID, "✅ Registration successful!")
	}

	text := "🏁 Your spot is secured."
	if cs.TransactionID != "" {
		text += "\nTransaction: `" + cs.TransactionID + "`"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if cs.ContestID != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Go to submission", "c:view:"+cs.ContestID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏟 My arena", "d:user:participated"),
	))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err = a.bot.Send(msg)
	return err
}

// showPaymentCancelled is the distinct cancelled terminal view: nothing was
// withdrawn and the viewer may retry.
func (a *App) showPaymentCancelled(ctx context.Context, chatID int64, st *chatState, sessionID string) error {
	var contestID string
	if sessionID != "" {
		if cs, err := st.api.GetCheckoutSession(ctx, sessionID); err == nil {
			contestID = cs.ContestID
		}
	}

	msg := tgbotapi.NewMessage(chatID,
		"❌ Payment cancelled. The transaction was not completed and no funds were withdrawn.")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if contestID != "" {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Try again", "c:pay:"+contestID),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to details", "c:view:"+contestID),
			),
		)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav:home"),
	))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := a.bot.Send(msg)
	return err
}

// ---------- Task submission ----------

func (a *App) startSubmission(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	if !a.requireAuth(chatID, st, "c:view:"+contestID) {
		return nil
	}

	_, state, err := a.evaluateDetail(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}
	if state != lifecycle.StateRegisteredPending {
		return a.SendText(chatID, "Submission is not available for this contest.")
	}

	st.startFlow(flowSubmit, map[string]string{"contest_id": contestID})
	return a.SendText(chatID, "Submit your work. Paste your links (Drive/GitHub) here:")
}

func (a *App) handleSubmitFlow(ctx context.Context, chatID int64, txt string, st *chatState) error {
	contestID := st.flow.Data["contest_id"]

	// Required-field validation happens before any network call.
	link := strings.TrimSpace(txt)
	if link == "" {
		return a.SendText(chatID, "The submission link cannot be empty. Paste your link:")
	}

	control := "submit:" + contestID
	if !st.tryAcquire(control) {
		return nil
	}
	defer st.release(control)

	st.resetFlow()
	id := st.sess.Identity()
	if id == nil {
		return a.showLogin(chatID)
	}

	err := st.api.SubmitTask(ctx, backend.TaskSubmission{
		ContestID:        contestID,
		ParticipantEmail: id.Email,
		ParticipantName:  id.DisplayName,
		SubmissionLink:   link,
		SubmittedAt:      time.Now().UTC(),
	})
	if err != nil {
		return a.notifyError(chatID, "Error submitting task.", err)
	}

	st.store.Delete(cache.RegistrationKey(id.Email, contestID))
	_ = a.SendText(chatID, "🏆 Submitted! Task submitted successfully.")
	return a.showContestDetail(ctx, chatID, st, contestID)
}
