package auth

import "sync"

// User is the identity handle. ID is opaque and only scopes remote data.
type User struct {
	ID string
}

// Provider is the identity source the board follows.
type Provider interface {
	CurrentUser() *User
	Subscribe(fn func(*User)) (unsubscribe func())
}

// Session is an in-process Provider driven by explicit sign-in and sign-out.
type Session struct {
	mu     sync.Mutex
	user   *User
	nextID int
	subs   map[int]func(*User)
}

func NewSession() *Session {
	return &Session{subs: make(map[int]func(*User))}
}

func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SignIn switches to userID. Signing in as the current user is a no-op.
func (s *Session) SignIn(userID string) {
	if userID == "" {
		s.SignOut()
		return
	}
	s.set(&User{ID: userID})
}

func (s *Session) SignOut() {
	s.set(nil)
}

func (s *Session) set(u *User) {
	s.mu.Lock()
	if sameUser(s.user, u) {
		s.mu.Unlock()
		return
	}
	s.user = u
	subs := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}

func sameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
