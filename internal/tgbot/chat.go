package tgbot

import (
	"context"
	"sync"

	"xports-bot/internal/auth"
	"xports-bot/internal/backend"
	"xports-bot/internal/cache"
	"xports-bot/internal/roles"
)

const (
	flowLogin         = "login"
	flowSignup        = "signup"
	flowReset         = "reset"
	flowSubmit        = "submit"
	flowSearch        = "search"
	flowCreateContest = "create_contest"
	flowUpdateContest = "update_contest"
)

type flowState struct {
	Name string
	Step int
	Data map[string]string
}

// chatState is one viewer's client runtime: session, gateway-bound API
// client, ephemeral query cache and UI state. Everything here is discarded
// together.
type chatState struct {
	chatID int64
	sess   *auth.Session
	api    *backend.Client
	store  *cache.Store
	roles  *roles.Resolver

	flow       flowState
	pendingNav string
	listQuery  backend.ContestQuery

	viewMu     sync.Mutex
	viewEpoch  uint64
	cancelView context.CancelFunc

	busyMu sync.Mutex
	busy   map[string]bool
}

func (st *chatState) resetFlow() {
	st.flow = flowState{}
}

func (st *chatState) startFlow(name string, data map[string]string) {
	if data == nil {
		data = map[string]string{}
	}
	st.flow = flowState{Name: name, Step: 1, Data: data}
}

// enterView opens a new mounted view: the previous view's countdown is
// cancelled and its in-flight results are invalidated via the epoch bump.
func (st *chatState) enterView() (context.Context, uint64) {
	st.viewMu.Lock()
	defer st.viewMu.Unlock()
	if st.cancelView != nil {
		st.cancelView()
	}
	st.viewEpoch++
	ctx, cancel := context.WithCancel(context.Background())
	st.cancelView = cancel
	return ctx, st.viewEpoch
}

// leaveView unmounts the current view without mounting a new one.
func (st *chatState) leaveView() {
	st.viewMu.Lock()
	defer st.viewMu.Unlock()
	if st.cancelView != nil {
		st.cancelView()
		st.cancelView = nil
	}
	st.viewEpoch++
}

// viewAlive reports whether a result produced under epoch may still be
// applied; stale responses are discarded.
func (st *chatState) viewAlive(epoch uint64) bool {
	st.viewMu.Lock()
	defer st.viewMu.Unlock()
	return st.viewEpoch == epoch
}

// tryAcquire marks a control busy for the duration of its round trip so a
// double-tap cannot dispatch twice.
func (st *chatState) tryAcquire(control string) bool {
	st.busyMu.Lock()
	defer st.busyMu.Unlock()
	if st.busy[control] {
		return false
	}
	st.busy[control] = true
	return true
}

func (st *chatState) release(control string) {
	st.busyMu.Lock()
	defer st.busyMu.Unlock()
	delete(st.busy, control)
}

func (st *chatState) invalidateRegistrations() {
	st.store.InvalidatePrefix("registration:")
}
