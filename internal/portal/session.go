// Package portal is the typed client of the devis portal REST API. It carries
// the checks the web front end performs before and after each call: the route
// guard, local validation, PDF content checks, the chat debounce and the
// session state shared by every open view.
package portal

import "sync"

type ActionKind int

const (
	ActionLogin ActionKind = iota + 1
	ActionLogout
	ActionRefresh
)

// Action is the only way session state changes.
type Action struct {
	Kind    ActionKind
	Access  string
	Refresh string
}

func LoginAction(access, refresh string) Action {
	return Action{Kind: ActionLogin, Access: access, Refresh: refresh}
}

func LogoutAction() Action { return Action{Kind: ActionLogout} }

// RefreshAction swaps the access token. An empty refresh keeps the current one.
func RefreshAction(access, refresh string) Action {
	return Action{Kind: ActionRefresh, Access: access, Refresh: refresh}
}

type State struct {
	Access  string
	Refresh string
}

func (s State) Authenticated() bool { return s.Access != "" }

// Role is read from the access token without verifying it; the server checks
// the signature on every call.
func (s State) Role() string {
	role, _ := roleOf(s.Access)
	return role
}

// Reduce is pure: it returns the state that follows a.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case ActionLogin:
		return State{Access: a.Access, Refresh: a.Refresh}
	case ActionLogout:
		return State{}
	case ActionRefresh:
		if !s.Authenticated() && s.Refresh == "" {
			return s
		}
		s.Access = a.Access
		if a.Refresh != "" {
			s.Refresh = a.Refresh
		}
		return s
	}
	return s
}

// Session holds the tokens of one signed-in user. Listeners registered with
// Subscribe see every new state, which is how other views stay in sync.
type Session struct {
	mu        sync.RWMutex
	state     State
	nextID    int
	listeners map[int]func(State)
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]func(State))}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Dispatch(a Action) State {
	s.mu.Lock()
	next := Reduce(s.state, a)
	changed := next != s.state
	s.state = next
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(next)
		}
	}
	return next
}

// Subscribe registers fn and returns the function that removes it.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
