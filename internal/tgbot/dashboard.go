package tgbot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"xports-bot/internal/backend"
	"xports-bot/internal/cache"
	"xports-bot/internal/models"
)

func (a *App) handleDashboardRoute(ctx context.Context, chatID int64, route string, st *chatState) error {
	if !a.requireAuth(chatID, st, route) {
		return nil
	}

	switch {
	case route == "d:home":
		st.leaveView()
		return a.showDashboard(ctx, chatID, st)
	case route == "d:profile":
		return a.showProfile(ctx, chatID, st)
	case route == "d:applycreator":
		return a.applyForCreator(ctx, chatID, st)

	case route == "d:user:participated":
		return a.showUserContests(ctx, chatID, st, "participated")
	case route == "d:user:wins":
		return a.showUserContests(ctx, chatID, st, "wins")

	case strings.HasPrefix(route, "d:cr:"):
		return a.handleCreatorRoute(ctx, chatID, strings.TrimPrefix(route, "d:cr:"), st)
	case strings.HasPrefix(route, "d:admin:"):
		return a.handleAdminRoute(ctx, chatID, strings.TrimPrefix(route, "d:admin:"), st)
	}
	return nil
}

func (a *App) showDashboard(ctx context.Context, chatID int64, st *chatState) error {
	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		return a.notifyError(chatID, "Could not resolve your role.", err)
	}
	text, kb := renderDashboard(*st.sess.Identity(), ri)
	return a.sendWithKeyboard(chatID, text, kb)
}

func (a *App) showProfile(ctx context.Context, chatID int64, st *chatState) error {
	id := st.sess.Identity()
	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		return a.notifyError(chatID, "Could not resolve your role.", err)
	}
	text, kb := renderProfile(*id, ri)
	return a.sendWithKeyboard(chatID, text, kb)
}

func (a *App) applyForCreator(ctx context.Context, chatID int64, st *chatState) error {
	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		return a.notifyError(chatID, "Could not resolve your role.", err)
	}
	if ri.Role.Elevated() {
		return a.SendText(chatID, "You already host contests.")
	}
	if ri.Status == models.RoleStatusPendingCreator {
		return a.SendText(chatID, "⏳ Your creator application is already pending review.")
	}

	if !st.tryAcquire("applycreator") {
		return nil
	}
	defer st.release("applycreator")

	if err := st.api.ApplyForCreator(ctx, st.sess.Identity().Email); err != nil {
		return a.notifyError(chatID, "Could not submit your application.", err)
	}
	st.roles.Invalidate()
	return a.SendText(chatID, "📨 Application sent! An admin will review it shortly.")
}

// ---------- Normal user panels ----------

func (a *App) showUserContests(ctx context.Context, chatID int64, st *chatState, which string) error {
	email := st.sess.Identity().Email

	var (
		contests []models.Contest
		err      error
		title    string
	)
	if which == "wins" {
		title = "🏆 *Contests you won*"
		contests, err = st.api.MyWins(ctx, email)
	} else {
		title = "🏟 *Contests you entered*"
		contests, err = st.api.ParticipatedContests(ctx, email)
	}
	if err != nil {
		return a.notifyError(chatID, "Could not load your contests.", err)
	}

	if len(contests) == 0 {
		msg := tgbotapi.NewMessage(chatID, title+"\n\nNothing here yet. Browse /contests to get started.")
		msg.ParseMode = "Markdown"
		_, err := a.bot.Send(msg)
		return err
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	lines := []string{title, ""}
	for _, c := range contests {
		lines = append(lines, "• "+c.Name+" ("+c.Type+")")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁 "+truncate(c.Name, 30), "c:view:"+c.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Dashboard", "d:home"),
	))
	return a.sendWithKeyboard(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// ---------- Creator panels ----------

func (a *App) requireRole(ctx context.Context, chatID int64, st *chatState, want models.Role) bool {
	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		_ = a.notifyError(chatID, "Could not resolve your role.", err)
		return false
	}
	if ri.Role == want || (want == models.RoleCreator && ri.Role == models.RoleAdmin) {
		return true
	}
	_ = a.SendText(chatID, "🚫 You do not have access to that panel.")
	return false
}

func (a *App) handleCreatorRoute(ctx context.Context, chatID int64, route string, st *chatState) error {
	if !a.requireRole(ctx, chatID, st, models.RoleCreator) {
		return nil
	}

	switch {
	case route == "mine":
		return a.showMyContests(ctx, chatID, st)
	case route == "create":
		st.startFlow(flowCreateContest, nil)
		return a.SendText(chatID, "🆕 New contest.\n\nStep 1/8. Contest name:")
	case strings.HasPrefix(route, "update:"):
		return a.startContestUpdate(ctx, chatID, st, strings.TrimPrefix(route, "update:"))
	case strings.HasPrefix(route, "del:"):
		return a.deleteOwnContest(ctx, chatID, st, strings.TrimPrefix(route, "del:"))
	case strings.HasPrefix(route, "subs:"):
		return a.showSubmittedTasks(ctx, chatID, st, strings.TrimPrefix(route, "subs:"))
	case strings.HasPrefix(route, "win:"):
		rest := strings.TrimPrefix(route, "win:")
		contestID, subID, ok := strings.Cut(rest, ":")
		if !ok {
			return nil
		}
		return a.declareWinner(ctx, chatID, st, contestID, subID)
	}
	return nil
}

func (a *App) showMyContests(ctx context.Context, chatID int64, st *chatState) error {
	contests, err := st.api.MyContests(ctx, st.sess.Identity().Email)
	if err != nil {
		return a.notifyError(chatID, "Could not load your contests.", err)
	}

	lines := []string{"🎨 *Your contests*", ""}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, c := range contests {
		lines = append(lines, "• "+c.Name+" · "+string(c.Status))
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📨 "+truncate(c.Name, 20), "d:cr:subs:"+c.ID),
		}
		// Pending contests are still editable; confirmed ones are locked in.
		if c.Status == models.StatusPending {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData("✏️", "d:cr:update:"+c.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", "d:cr:del:"+c.ID),
			)
		}
		rows = append(rows, row)
	}
	if len(contests) == 0 {
		lines = append(lines, "You have not created any contests yet.")
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆕 Create contest", "d:cr:create"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Dashboard", "d:home"),
		),
	)
	return a.sendWithKeyboard(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (a *App) startContestUpdate(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	contest, err := a.fetchContest(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}
	if !strings.EqualFold(contest.OwnerEmail, st.sess.Identity().Email) {
		return a.SendText(chatID, "🚫 You can only edit your own contests.")
	}
	if contest.Status != models.StatusPending {
		return a.SendText(chatID, "This contest has been reviewed and can no longer be edited.")
	}

	st.startFlow(flowUpdateContest, map[string]string{
		"contest_id":  contestID,
		"name":        contest.Name,
		"type":        contest.Type,
		"banner":      contest.BannerImage,
		"description": contest.Description,
		"instruction": contest.Instruction,
		"price":       contest.Price.String(),
		"prize":       contest.PrizeMoney.String(),
		"deadline":    contest.Deadline.Format("2006-01-02T15:04"),
	})
	return a.SendText(chatID, "✏️ Editing "+contest.Name+". Send - to keep a field.\n\nStep 1/8. Contest name:")
}

// contestEditorSteps orders the wizard prompts; step N reads field N-1.
var contestEditorSteps = []struct {
	field  string
	prompt string
}{
	{"name", "Step 2/8. Contest type (Design, Development, Gaming, Writing, Business, Photography):"},
	{"type", "Step 3/8. Banner image URL:"},
	{"banner", "Step 4/8. Description:"},
	{"description", "Step 5/8. Task instruction:"},
	{"instruction", "Step 6/8. Entry fee in USD (e.g. 25.00):"},
	{"price", "Step 7/8. Prize money in USD:"},
	{"prize", "Step 8/8. Deadline (YYYY-MM-DDTHH:MM):"},
	{"deadline", ""},
}

func (a *App) handleContestEditorFlow(ctx context.Context, chatID int64, txt string, st *chatState) error {
	step := st.flow.Step
	if step < 1 || step > len(contestEditorSteps) {
		st.resetFlow()
		return a.SendText(chatID, "State reset. Press /start")
	}

	cur := contestEditorSteps[step-1]
	updating := st.flow.Name == flowUpdateContest

	if txt != "-" || !updating {
		switch cur.field {
		case "price", "prize":
			d, err := decimal.NewFromString(txt)
			if err != nil || d.IsNegative() {
				return a.SendText(chatID, "That is not a valid amount. Enter a number like 25.00:")
			}
			st.flow.Data[cur.field] = d.String()
		case "deadline":
			if _, err := models.ParseDeadline(txt); err != nil {
				return a.SendText(chatID, "That deadline did not parse. Use YYYY-MM-DDTHH:MM:")
			}
			st.flow.Data[cur.field] = txt
		default:
			if strings.TrimSpace(txt) == "" {
				return a.SendText(chatID, "This field cannot be empty. Try again:")
			}
			st.flow.Data[cur.field] = strings.TrimSpace(txt)
		}
	}

	if cur.prompt != "" {
		st.flow.Step++
		return a.SendText(chatID, cur.prompt)
	}

	return a.finishContestEditor(ctx, chatID, st)
}

func (a *App) finishContestEditor(ctx context.Context, chatID int64, st *chatState) error {
	data := st.flow.Data
	updating := st.flow.Name == flowUpdateContest
	st.resetFlow()

	price, err := decimal.NewFromString(data["price"])
	if err != nil {
		return a.SendText(chatID, "The entry fee was invalid. Start over from the dashboard.")
	}
	prize, err := decimal.NewFromString(data["prize"])
	if err != nil {
		return a.SendText(chatID, "The prize money was invalid. Start over from the dashboard.")
	}

	in := models.ContestInput{
		Name:        data["name"],
		Type:        data["type"],
		BannerImage: data["banner"],
		Description: data["description"],
		Instruction: data["instruction"],
		Price:       price,
		PrizeMoney:  prize,
		Deadline:    data["deadline"],
		OwnerEmail:  st.sess.Identity().Email,
	}

	if updating {
		contestID := data["contest_id"]
		if err := st.api.UpdateContest(ctx, contestID, in); err != nil {
			return a.notifyError(chatID, "Could not update the contest.", err)
		}
		st.store.Delete(cache.ContestKey(contestID))
		_ = a.SendText(chatID, "✅ Contest updated.")
	} else {
		if err := st.api.CreateContest(ctx, in); err != nil {
			return a.notifyError(chatID, "Could not create the contest.", err)
		}
		_ = a.SendText(chatID, "✅ Contest created! It will appear publicly once an admin confirms it.")
	}
	return a.showMyContests(ctx, chatID, st)
}

func (a *App) deleteOwnContest(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	contest, err := a.fetchContest(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}
	if !strings.EqualFold(contest.OwnerEmail, st.sess.Identity().Email) {
		return a.SendText(chatID, "🚫 You can only delete your own contests.")
	}
	if contest.Status != models.StatusPending {
		return a.SendText(chatID, "This contest has been reviewed and can no longer be deleted.")
	}

	if !st.tryAcquire("delcontest:" + contestID) {
		return nil
	}
	defer st.release("delcontest:" + contestID)

	if err := st.api.DeleteContest(ctx, contestID); err != nil {
		return a.notifyError(chatID, "Could not delete the contest.", err)
	}
	st.store.Delete(cache.ContestKey(contestID))
	_ = a.SendText(chatID, "🗑 Contest deleted.")
	return a.showMyContests(ctx, chatID, st)
}

func (a *App) showSubmittedTasks(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	contest, err := a.fetchContest(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}
	email := st.sess.Identity().Email
	ri, err := st.roles.Resolve(ctx)
	if err != nil {
		return a.notifyError(chatID, "Could not resolve your role.", err)
	}
	if !strings.EqualFold(contest.OwnerEmail, email) && ri.Role != models.RoleAdmin {
		return a.SendText(chatID, "🚫 Only the contest owner can review submissions.")
	}

	subs, err := st.api.ContestSubmissions(ctx, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load submissions.", err)
	}

	lines := []string{"📨 *Submissions for " + contest.Name + "*", ""}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, s := range subs {
		mark := ""
		if s.IsWinner {
			mark = " 🏆"
		}
		lines = append(lines, "• "+s.ParticipantName+mark+"\n  "+s.SubmissionLink)
		// Declaring a winner is one-shot per contest; once a winner exists
		// the controls go away rather than erroring on tap.
		if contest.Winner == nil && !s.IsWinner {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏆 Declare "+truncate(s.ParticipantName, 20), "d:cr:win:"+contestID+":"+s.ID),
			))
		}
	}
	if len(subs) == 0 {
		lines = append(lines, "No submissions yet.")
	}
	if contest.Winner != nil {
		lines = append(lines, "", "Winner: *"+contest.Winner.Name+"*")
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ My contests", "d:cr:mine"),
	))
	return a.sendWithKeyboard(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (a *App) declareWinner(ctx context.Context, chatID int64, st *chatState, contestID, subID string) error {
	contest, err := a.fetchContest(ctx, st, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load the contest.", err)
	}
	if !strings.EqualFold(contest.OwnerEmail, st.sess.Identity().Email) {
		return a.SendText(chatID, "🚫 Only the contest owner can declare a winner.")
	}
	if contest.Winner != nil {
		return a.SendText(chatID, "A winner has already been declared for this contest.")
	}

	subs, err := st.api.ContestSubmissions(ctx, contestID)
	if err != nil {
		return a.notifyError(chatID, "Could not load submissions.", err)
	}
	var chosen *models.Submission
	for i := range subs {
		if subs[i].ID == subID {
			chosen = &subs[i]
			break
		}
	}
	if chosen == nil {
		return a.SendText(chatID, "That submission no longer exists.")
	}

	if !st.tryAcquire("win:" + contestID) {
		return nil
	}
	defer st.release("win:" + contestID)

	if err := st.api.DeclareWinner(ctx, contestID, *chosen); err != nil {
		return a.notifyError(chatID, "Could not declare the winner.", err)
	}
	st.store.Delete(cache.ContestKey(contestID))
	_ = a.SendText(chatID, "🏆 "+chosen.ParticipantName+" is the winner!")
	return a.showSubmittedTasks(ctx, chatID, st, contestID)
}

// ---------- Admin panels ----------

func (a *App) handleAdminRoute(ctx context.Context, chatID int64, route string, st *chatState) error {
	if !a.requireRole(ctx, chatID, st, models.RoleAdmin) {
		return nil
	}

	switch {
	case route == "pending":
		return a.showPendingContests(ctx, chatID, st)
	case strings.HasPrefix(route, "approve:"):
		return a.setContestStatus(ctx, chatID, st, strings.TrimPrefix(route, "approve:"), models.StatusConfirmed)
	case strings.HasPrefix(route, "reject:"):
		return a.setContestStatus(ctx, chatID, st, strings.TrimPrefix(route, "reject:"), models.StatusRejected)
	case strings.HasPrefix(route, "delc:"):
		return a.adminDeleteContest(ctx, chatID, st, strings.TrimPrefix(route, "delc:"))
	case route == "users":
		return a.showUsers(ctx, chatID, st)
	case strings.HasPrefix(route, "promote:"):
		rest := strings.TrimPrefix(route, "promote:")
		userID, role, ok := strings.Cut(rest, ":")
		if !ok {
			return nil
		}
		return a.changeUserRole(ctx, chatID, st, userID, models.Role(role))
	case strings.HasPrefix(route, "rmuser:"):
		return a.removeUser(ctx, chatID, st, strings.TrimPrefix(route, "rmuser:"))
	case route == "stats":
		return a.showAdminStats(ctx, chatID, st)
	}
	return nil
}

func (a *App) showPendingContests(ctx context.Context, chatID int64, st *chatState) error {
	page, err := st.api.ListContests(ctx, backend.ContestQuery{Status: models.StatusPending})
	if err != nil {
		return a.notifyError(chatID, "Could not load pending contests.", err)
	}

	lines := []string{"🗂 *Contests awaiting review*", ""}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, c := range page.Contests {
		lines = append(lines, "• "+c.Name+" by "+c.OwnerEmail)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅", "d:admin:approve:"+c.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌", "d:admin:reject:"+c.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", "d:admin:delc:"+c.ID),
			tgbotapi.NewInlineKeyboardButtonData("👁", "c:view:"+c.ID),
		))
	}
	if len(page.Contests) == 0 {
		lines = append(lines, "The review queue is empty.")
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Dashboard", "d:home"),
	))
	return a.sendWithKeyboard(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (a *App) setContestStatus(ctx context.Context, chatID int64, st *chatState, contestID string, status models.ContestStatus) error {
	if !st.tryAcquire("status:" + contestID) {
		return nil
	}
	defer st.release("status:" + contestID)

	if err := st.api.SetContestStatus(ctx, contestID, status); err != nil {
		return a.notifyError(chatID, "Could not update the contest status.", err)
	}
	st.store.Delete(cache.ContestKey(contestID))
	verb := "confirmed"
	if status == models.StatusRejected {
		verb = "rejected"
	}
	_ = a.SendText(chatID, "Contest "+verb+".")
	return a.showPendingContests(ctx, chatID, st)
}

func (a *App) adminDeleteContest(ctx context.Context, chatID int64, st *chatState, contestID string) error {
	if !st.tryAcquire("delcontest:" + contestID) {
		return nil
	}
	defer st.release("delcontest:" + contestID)

	if err := st.api.DeleteContest(ctx, contestID); err != nil {
		return a.notifyError(chatID, "Could not delete the contest.", err)
	}
	st.store.Delete(cache.ContestKey(contestID))
	_ = a.SendText(chatID, "🗑 Contest deleted.")
	return a.showPendingContests(ctx, chatID, st)
}

func (a *App) showUsers(ctx context.Context, chatID int64, st *chatState) error {
	users, err := st.api.ListUsers(ctx, "")
	if err != nil {
		return a.notifyError(chatID, "Could not load users.", err)
	}

	lines := []string{"👥 *Manage users*", ""}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, u := range users {
		lines = append(lines, "• "+u.Name+" <"+u.Email+"> · "+string(u.Role))
		row := []tgbotapi.InlineKeyboardButton{}
		if u.Role != models.RoleCreator {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🎨 Creator", "d:admin:promote:"+u.ID+":creator"))
		}
		if u.Role != models.RoleAdmin {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🛡 Admin", "d:admin:promote:"+u.ID+":admin"))
		}
		if u.Role != models.RoleUser {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("👤 User", "d:admin:promote:"+u.ID+":user"))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", "d:admin:rmuser:"+u.ID))
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Dashboard", "d:home"),
	))
	return a.sendWithKeyboard(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (a *App) changeUserRole(ctx context.Context, chatID int64, st *chatState, userID string, role models.Role) error {
	switch role {
	case models.RoleUser, models.RoleCreator, models.RoleAdmin:
	default:
		return a.SendText(chatID, "Unknown role.")
	}

	if !st.tryAcquire("role:" + userID) {
		return nil
	}
	defer st.release("role:" + userID)

	if err := st.api.UpdateUserRole(ctx, userID, role); err != nil {
		return a.notifyError(chatID, "Could not change the role.", err)
	}
	// The target may be this admin's own account; drop the cached role so
	// the next screen reflects the change.
	st.roles.Invalidate()
	_ = a.SendText(chatID, "Role updated to "+string(role)+".")
	return a.showUsers(ctx, chatID, st)
}

func (a *App) removeUser(ctx context.Context, chatID int64, st *chatState, userID string) error {
	if !st.tryAcquire("rmuser:" + userID) {
		return nil
	}
	defer st.release("rmuser:" + userID)

	if err := st.api.DeleteUser(ctx, userID); err != nil {
		return a.notifyError(chatID, "Could not delete the user.", err)
	}
	_ = a.SendText(chatID, "User deleted.")
	return a.showUsers(ctx, chatID, st)
}

func (a *App) showAdminStats(ctx context.Context, chatID int64, st *chatState) error {
	stats, err := st.api.AdminStats(ctx)
	if err != nil {
		return a.notifyError(chatID, "Could not load platform stats.", err)
	}
	text := renderAdminStats(stats)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Dashboard", "d:home"),
		),
	)
	return a.sendWithKeyboard(chatID, text, kb)
}
