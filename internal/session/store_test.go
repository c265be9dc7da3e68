package session_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/recipe-pantry/internal/session"
)

const (
	testSecret = "session-test-secret-that-is-32-ch"
	testCookie = "recipes__session"
)

func newStore(t *testing.T, opts ...session.StoreOption) *session.Store {
	t.Helper()
	s, err := session.NewStore(testSecret, testCookie, time.Hour, opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

// cookieHeader turns a Set-Cookie value into the Cookie header a browser
// would send back.
func cookieHeader(t *testing.T, setCookie string) string {
	t.Helper()
	cookies := (&http.Response{Header: http.Header{"Set-Cookie": {setCookie}}}).Cookies()
	if len(cookies) != 1 {
		t.Fatalf("parse set-cookie: invalid value %q", setCookie)
	}
	c := cookies[0]
	return c.Name + "=" + c.Value
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := session.NewStore("", testCookie, time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := session.NewStore(testSecret, "", time.Hour); err == nil {
		t.Error("expected error for empty cookie name")
	}
	if _, err := session.NewStore(testSecret, testCookie, 0); err == nil {
		t.Error("expected error for zero max age")
	}
}

func TestLoad_NoCookie_ReturnsNewSession(t *testing.T) {
	s := newStore(t).Load("")
	if !s.IsNew() || s.LoggedIn() || s.Nonce != "" {
		t.Errorf("want empty new session, got %+v", s)
	}
}

func TestCommitLoad_RoundTrip(t *testing.T) {
	store := newStore(t)
	verified := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	sess := session.New()
	sess.SetNonce("nonce-1")
	sess.SetUser("user-1")
	sess.MarkNonceVerified(verified)

	setCookie, err := store.Commit(sess)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := store.Load("theme=dark; " + cookieHeader(t, setCookie))
	if got.IsNew() {
		t.Fatal("loaded session should not be new")
	}
	if got.UserID != "user-1" || got.Nonce != "nonce-1" {
		t.Errorf("got %+v", got)
	}
	if got.NonceVerifiedAt == nil || !got.NonceVerifiedAt.Equal(verified) {
		t.Errorf("NonceVerifiedAt = %v, want %v", got.NonceVerifiedAt, verified)
	}
}

func TestCommit_CookieAttributes(t *testing.T) {
	setCookie, err := newStore(t).Commit(session.New())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	for _, want := range []string{testCookie + "=", "Path=/", "HttpOnly", "Secure", "SameSite=Lax", "Max-Age=3600"} {
		if !strings.Contains(setCookie, want) {
			t.Errorf("Set-Cookie %q missing %q", setCookie, want)
		}
	}

	insecure, _ := newStore(t, session.WithSecure(false)).Commit(session.New())
	if strings.Contains(insecure, "Secure") {
		t.Errorf("Set-Cookie %q should not be Secure", insecure)
	}
}

func TestLoad_TamperedCookie_ReturnsNewSession(t *testing.T) {
	store := newStore(t)
	sess := session.New()
	sess.SetUser("user-1")
	setCookie, _ := store.Commit(sess)

	b := []byte(cookieHeader(t, setCookie))
	i := strings.LastIndex(string(b), ".") + 5
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	tampered := string(b)

	if got := store.Load(tampered); got.LoggedIn() || !got.IsNew() {
		t.Errorf("tampered cookie accepted: %+v", got)
	}
}

func TestLoad_WrongKey_ReturnsNewSession(t *testing.T) {
	sess := session.New()
	sess.SetUser("user-1")
	setCookie, _ := newStore(t).Commit(sess)

	other, err := session.NewStore("a-different-secret-also-32-chars!", testCookie, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := other.Load(cookieHeader(t, setCookie)); got.LoggedIn() {
		t.Errorf("cookie signed with another key accepted: %+v", got)
	}
}

func TestLoad_ExpiredCookie_ReturnsNewSession(t *testing.T) {
	now := time.Now()
	issuing := newStore(t, session.WithStoreClock(func() time.Time { return now }))
	sess := session.New()
	sess.SetUser("user-1")
	setCookie, _ := issuing.Commit(sess)

	later := newStore(t, session.WithStoreClock(func() time.Time { return now.Add(2 * time.Hour) }))
	if got := later.Load(cookieHeader(t, setCookie)); got.LoggedIn() {
		t.Errorf("expired cookie accepted: %+v", got)
	}
}

func TestDestroy_ExpiresCookie(t *testing.T) {
	got := newStore(t).Destroy()
	if !strings.HasPrefix(got, testCookie+"=;") {
		t.Errorf("unexpected cookie %q", got)
	}
	if !strings.Contains(got, "Max-Age=0") {
		t.Errorf("Destroy cookie %q should carry Max-Age=0", got)
	}
}

func TestSession_NonceVerifiedWithin(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := session.New()
	if s.NonceVerifiedWithin(now, time.Minute) {
		t.Error("unverified session reported verified")
	}

	s.MarkNonceVerified(now)
	if !s.NonceVerifiedWithin(now.Add(time.Minute), time.Minute) {
		t.Error("verification should still hold at the ttl boundary")
	}
	if s.NonceVerifiedWithin(now.Add(time.Minute+time.Second), time.Minute) {
		t.Error("verification should lapse after ttl")
	}

	s.SetNonce("fresh")
	if s.NonceVerifiedAt != nil {
		t.Error("SetNonce should reset the verified stamp")
	}
}
