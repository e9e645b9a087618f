package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type credentialStoreStub struct {
	credentials UserCredentials
	getErr      error
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if s.getErr != nil {
		return UserCredentials{}, s.getErr
	}
	if s.credentials.User.Email != email {
		return UserCredentials{}, ErrNotFound
	}
	return s.credentials, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if s.getErr != nil {
		return User{}, s.getErr
	}
	if s.credentials.User.ID != id {
		return User{}, ErrNotFound
	}
	return s.credentials.User, nil
}

type sessionRepositoryStub struct {
	sessions    map[string]Session
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	session, ok := s.sessions[token]
	if !ok || session.RevokedAt != nil {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func matchPassword(hash, password string) error {
	if hash != password {
		return ErrInvalidCredentials
	}
	return nil
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		creds := &credentialStoreStub{
			credentials: UserCredentials{
				User:         User{ID: "user-1", Email: "jieun@example.com"},
				PasswordHash: "secret",
			},
		}

		repo := newSessionRepositoryStub()
		tokenSeq := []string{"session-id", "session-token"}
		svc := NewAuthService(creds, repo, matchPassword, func() string {
			if len(tokenSeq) == 0 {
				return "fallback"
			}
			token := tokenSeq[0]
			tokenSeq = tokenSeq[1:]
			return token
		}, func() time.Time { return now }, time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: " Jieun@example.com ", Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}

		if result.Session.Token != "session-token" {
			t.Fatalf("expected issued token, got %s", result.Session.Token)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected expiry one hour out, got %v", result.Session.ExpiresAt)
		}
		if len(repo.deleteCalls) != 1 || !repo.deleteCalls[0].Equal(now) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", repo.deleteCalls)
		}
	})

	t.Run("rejects disabled accounts", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user", Email: "jieun@example.com"}, Disabled: true}}
		svc := NewAuthService(creds, nil, matchPassword, nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "jieun@example.com", Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("rejects wrong passwords with sentinel error", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{
			credentials: UserCredentials{User: User{ID: "user", Email: "jieun@example.com"}, PasswordHash: "expected"},
		}
		svc := NewAuthService(creds, nil, matchPassword, nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "jieun@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("hides unknown accounts behind invalid credentials", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user", Email: "jieun@example.com"}}}
		svc := NewAuthService(creds, nil, matchPassword, nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.com", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates session store failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		creds := &credentialStoreStub{
			credentials: UserCredentials{User: User{ID: "user", Email: "jieun@example.com"}, PasswordHash: "secret"},
		}
		repo := newSessionRepositoryStub()
		repo.createErr = expected

		svc := NewAuthService(creds, repo, matchPassword, func() string { return "token" }, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "jieun@example.com", Password: "secret"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	user := User{ID: "user-1", Email: "jieun@example.com", IsAdmin: true}

	newService := func(repo *sessionRepositoryStub) *AuthService {
		creds := &credentialStoreStub{credentials: UserCredentials{User: user}}
		return NewAuthService(creds, repo, matchPassword, nil, func() time.Time { return now }, time.Hour)
	}

	t.Run("returns the principal for an active session", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub()
		repo.sessions["token-1"] = Session{ID: "s-1", UserID: user.ID, Token: "token-1", ExpiresAt: now.Add(time.Hour)}

		principal, err := newService(repo).ValidateSession(context.Background(), "token-1")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.UserID != user.ID || !principal.IsAdmin {
			t.Fatalf("unexpected principal %#v", principal)
		}
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		t.Parallel()

		revokedAt := now.Add(-time.Minute)
		repo := newSessionRepositoryStub()
		repo.sessions["token-1"] = Session{ID: "s-1", UserID: user.ID, Token: "token-1", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}

		_, err := newService(repo).ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub()
		repo.sessions["token-1"] = Session{ID: "s-1", UserID: user.ID, Token: "token-1", ExpiresAt: now.Add(-time.Second)}

		_, err := newService(repo).ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects unknown tokens", func(t *testing.T) {
		t.Parallel()

		_, err := newService(newSessionRepositoryStub()).ValidateSession(context.Background(), "missing")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	t.Run("revokes and prunes", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		repo := newSessionRepositoryStub()
		repo.sessions["token-1"] = Session{ID: "s-1", UserID: "user-1", Token: "token-1", ExpiresAt: now.Add(time.Hour)}

		svc := NewAuthService(&credentialStoreStub{}, repo, matchPassword, nil, func() time.Time { return now }, time.Hour)
		if err := svc.RevokeSession(context.Background(), "token-1"); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		if repo.sessions["token-1"].RevokedAt == nil {
			t.Fatal("expected session to be marked revoked")
		}
		if len(repo.deleteCalls) != 1 {
			t.Fatalf("expected expired session cleanup, got %d calls", len(repo.deleteCalls))
		}
	})

	t.Run("maps unknown tokens to invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(&credentialStoreStub{}, newSessionRepositoryStub(), matchPassword, nil, time.Now, time.Hour)
		if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
