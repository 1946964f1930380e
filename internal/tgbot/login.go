package tgbot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xports-bot/internal/auth"
)

func (a *App) handleSessionRoute(ctx context.Context, chatID int64, route string, st *chatState) error {
	switch route {
	case "s:login":
		st.startFlow(flowLogin, nil)
		return a.SendText(chatID, "Sign in. Enter your email:")
	case "s:signup":
		st.startFlow(flowSignup, nil)
		return a.SendText(chatID, "Create an account. Enter your display name:")
	case "s:reset":
		st.startFlow(flowReset, nil)
		return a.SendText(chatID, "Password reset. Enter your email:")
	case "s:logout":
		st.resetFlow()
		st.leaveView()
		st.sess.SignOut()
		st.store.Clear()
		return a.SendText(chatID, "Signed out. /start to continue.")
	}
	return nil
}

func (a *App) showWelcome(chatID int64) error {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Sign in", "s:login"),
			tgbotapi.NewInlineKeyboardButtonData("🆕 Sign up", "s:signup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Browse contests", "c:list:0"),
		),
	)
	return a.sendWithKeyboard(chatID, "*Xports*: host contests, enter them, win prizes.\nBrowse freely; sign in to participate.", kb)
}

func (a *App) showLogin(chatID int64) error {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Sign in", "s:login"),
			tgbotapi.NewInlineKeyboardButtonData("🆕 Sign up", "s:signup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Forgot password", "s:reset"),
		),
	)
	return a.sendWithKeyboard(chatID, "Please sign in to continue.", kb)
}

func (a *App) handleLoginFlow(ctx context.Context, chatID int64, txt string, st *chatState) error {
	switch st.flow.Step {
	case 1:
		st.flow.Data["email"] = txt
		st.flow.Step = 2
		return a.SendText(chatID, "Enter your password:")
	case 2:
		email := st.flow.Data["email"]
		st.resetFlow()
		if err := st.sess.SignIn(ctx, email, txt); err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return a.SendText(chatID, "❌ Invalid email or password. Tap Sign in to retry.")
			}
			return a.notifyError(chatID, "Sign-in failed.", err)
		}
		return a.afterSignIn(ctx, chatID, st)
	default:
		st.resetFlow()
		return a.SendText(chatID, "State reset. Press /start")
	}
}

func (a *App) handleSignupFlow(ctx context.Context, chatID int64, txt string, st *chatState) error {
	switch st.flow.Step {
	case 1:
		st.flow.Data["name"] = txt
		st.flow.Step = 2
		return a.SendText(chatID, "Enter your email:")
	case 2:
		st.flow.Data["email"] = txt
		st.flow.Step = 3
		return a.SendText(chatID, "Choose a password:")
	case 3:
		name, email := st.flow.Data["name"], st.flow.Data["email"]
		st.resetFlow()
		if err := st.sess.SignUp(ctx, email, txt, name); err != nil {
			if errors.Is(err, auth.ErrEmailInUse) {
				return a.SendText(chatID, "❌ That email is already registered. Tap Sign in instead.")
			}
			return a.notifyError(chatID, "Sign-up failed.", err)
		}
		// Sync the new identity into the backend's user store.
		if id := st.sess.Identity(); id != nil {
			if err := st.api.UpsertUser(ctx, *id); err != nil {
				a.log.Warnw("upsert user", "chat", chatID, "err", err)
			}
		}
		return a.afterSignIn(ctx, chatID, st)
	default:
		st.resetFlow()
		return a.SendText(chatID, "State reset. Press /start")
	}
}

func (a *App) handleResetFlow(ctx context.Context, chatID int64, txt string, st *chatState) error {
	st.resetFlow()
	email := strings.TrimSpace(txt)
	if email == "" {
		return a.SendText(chatID, "Email cannot be empty. Tap Forgot password to retry.")
	}
	if err := st.sess.ResetPassword(ctx, email); err != nil {
		return a.notifyError(chatID, "Could not send the reset email.", err)
	}
	return a.SendText(chatID, "📬 If that account exists, a reset email is on its way.")
}

// afterSignIn completes the route guard's contract: the viewer lands on the
// destination they originally asked for.
func (a *App) afterSignIn(ctx context.Context, chatID int64, st *chatState) error {
	id := st.sess.Identity()
	if id == nil {
		return a.showLogin(chatID)
	}
	_ = a.SendText(chatID, "✅ Signed in as "+id.Email)

	if nav := st.pendingNav; nav != "" {
		st.pendingNav = ""
		return a.navigate(ctx, chatID, nav)
	}
	return a.showHome(ctx, chatID)
}
