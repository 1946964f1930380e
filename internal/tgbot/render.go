package tgbot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xports-bot/internal/backend"
	"xports-bot/internal/lifecycle"
	"xports-bot/internal/models"
)

// render.go holds the pure screen builders: text plus keyboard out of model
// values, no I/O. The handlers own fetching and sending.

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderHome(id models.Identity, ri models.RoleInfo) (string, tgbotapi.InlineKeyboardMarkup) {
	name := id.DisplayName
	if name == "" {
		name = id.Email
	}
	text := "👋 Welcome back, *" + name + "*!\n\nBrowse contests, enter the ones you like and track your wins."
	if ri.Role.Elevated() {
		text = "👋 Welcome back, *" + name + "*!\n\nManage your contests from the dashboard."
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 All contests", "c:list:0"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Dashboard", "d:home"),
			tgbotapi.NewInlineKeyboardButtonData("👤 Profile", "d:profile"),
		),
	)
	return text, kb
}

func renderDashboard(id models.Identity, ri models.RoleInfo) (string, tgbotapi.InlineKeyboardMarkup) {
	rows := [][]tgbotapi.InlineKeyboardButton{}

	var text string
	switch ri.Role {
	case models.RoleAdmin:
		text = "🛡 *Admin dashboard*"
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗂 Review contests", "d:admin:pending"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👥 Manage users", "d:admin:users"),
				tgbotapi.NewInlineKeyboardButtonData("📊 Stats", "d:admin:stats"),
			),
		)
	case models.RoleCreator:
		text = "🎨 *Creator dashboard*"
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📚 My contests", "d:cr:mine"),
				tgbotapi.NewInlineKeyboardButtonData("🆕 Create", "d:cr:create"),
			),
		)
	default:
		text = "🙋 *Your dashboard*"
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏟 Participated", "d:user:participated"),
				tgbotapi.NewInlineKeyboardButtonData("🏆 My wins", "d:user:wins"),
			),
		)
		if ri.Status == models.RoleStatusPendingCreator {
			text += "\n\n⏳ Creator application pending review."
		} else {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🎨 Become a creator", "d:applycreator"),
			))
		}
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("👤 Profile", "d:profile"),
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav:home"),
	))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func renderProfile(id models.Identity, ri models.RoleInfo) (string, tgbotapi.InlineKeyboardMarkup) {
	lines := []string{
		"👤 *Profile*",
		"",
		"Name: " + id.DisplayName,
		"Email: " + id.Email,
		"Role: " + string(ri.Role),
	}
	if ri.Status == models.RoleStatusPendingCreator {
		lines = append(lines, "Creator application: pending")
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Dashboard", "d:home"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav:home"),
		),
	)
	return strings.Join(lines, "\n"), kb
}

func renderAdminStats(s models.AdminStats) string {
	return strings.Join([]string{
		"📊 *Platform stats*",
		"",
		fmt.Sprintf("Users: %d (%d regular, %d creators)", s.TotalUsers, s.GeneralUsers, s.TotalCreators),
		fmt.Sprintf("Active contests: %d", s.ActiveContests),
		"Revenue: $" + s.Revenue.String(),
	}, "\n")
}

func renderContestList(page backend.ContestPage, q backend.ContestQuery, pageNum, perPage int) (string, tgbotapi.InlineKeyboardMarkup) {
	lines := []string{"🏁 *Contests*"}
	if q.Type != "" {
		lines = append(lines, "Type: "+q.Type)
	}
	if q.Search != "" {
		lines = append(lines, "Search: "+q.Search)
	}
	lines = append(lines, "")

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, c := range page.Contests {
		lines = append(lines, fmt.Sprintf("• *%s* · %s · %d entrants · $%s prize",
			c.Name, c.Type, c.ParticipantsCount, c.PrizeMoney.String()))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁 "+truncate(c.Name, 30), "c:view:"+c.ID),
		))
	}
	if len(page.Contests) == 0 {
		lines = append(lines, "No contests match.")
	}

	nav := []tgbotapi.InlineKeyboardButton{}
	if pageNum > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("c:list:%d", pageNum-1)))
	}
	if (pageNum+1)*perPage < page.Total {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("c:list:%d", pageNum+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗂 Filter type", "c:typepick"),
			tgbotapi.NewInlineKeyboardButtonData("🔍 Search", "c:search"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav:home"),
		),
	)

	if page.Total > 0 {
		lines = append(lines, "", fmt.Sprintf("Page %d of %d", pageNum+1, (page.Total+perPage-1)/perPage))
	}
	return strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderContestDetail builds the detail screen for one viewer state. Each
// state enables at most one call to action.
func renderContestDetail(c models.Contest, state lifecycle.State, now time.Time) (string, tgbotapi.InlineKeyboardMarkup) {
	lines := []string{
		"🏁 *" + c.Name + "*",
		c.Type + " contest",
		"",
		c.Description,
		"",
		fmt.Sprintf("💰 Prize: $%s · Entry: $%s", c.PrizeMoney.String(), c.Price.String()),
		fmt.Sprintf("👥 Participants: %d", c.ParticipantsCount),
	}

	switch lifecycle.Closure(c, now) {
	case lifecycle.CloseWinnerDeclared:
		lines = append(lines, "🔴 Contest closed. Winner declared.")
	case lifecycle.CloseDeadlinePassed:
		lines = append(lines, "🔴 "+lifecycle.EndedToken)
	default:
		lines = append(lines, "🗓 Deadline: "+c.Deadline.Format("2 Jan 2006 15:04 MST"))
	}

	if c.Winner != nil {
		lines = append(lines, "", "🏆 Winner: *"+c.Winner.Name+"*")
	}

	switch state {
	case lifecycle.StateRegisteredPending:
		lines = append(lines, "", "✅ You are registered. Task instruction:", c.Instruction)
	case lifecycle.StateRegisteredSubmitted:
		lines = append(lines, "", "📨 Your submission is in. Good luck!")
	case lifecycle.StateRegisteredClosed:
		lines = append(lines, "", "The deadline passed before you submitted.")
	case lifecycle.StateRestrictedRole:
		lines = append(lines, "", "Admins and Creators cannot participate.")
	case lifecycle.StateOwnerView:
		lines = append(lines, "", "You own this contest.")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	switch state.Action() {
	case lifecycle.ActionRegister:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Register ($"+c.Price.String()+")", "c:pay:"+c.ID),
		))
	case lifecycle.ActionSubmit:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Submit task", "c:submit:"+c.ID),
		))
	case lifecycle.ActionReview:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Review submissions", "c:review:"+c.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Contests", "c:list:0"),
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav:home"),
	))
	return strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...)
}
