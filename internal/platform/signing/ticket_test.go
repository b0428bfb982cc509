package signing

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func newSigner() *Signer { return New("test-signing-secret-32-bytes-ok!") }

const testResource = "refresh"

func TestIssue_Verify_HappyPath(t *testing.T) {
	s := newSigner()
	tk := s.Issue(testResource, "user-1", time.Minute)
	if err := s.Verify(tk, testResource); err != nil {
		t.Fatalf("expected valid ticket, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newSigner()
	tk := s.Issue(testResource, "user-1", -time.Minute)
	if err := s.Verify(tk, testResource); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerify_OtherResource(t *testing.T) {
	s := newSigner()
	tk := s.Issue(testResource, "user-1", time.Minute)
	if err := s.Verify(tk, "admin"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerify_TamperedUserID(t *testing.T) {
	s := newSigner()
	tk := s.Issue(testResource, "user-1", time.Minute)
	tk.UserID = "user-2"
	if err := s.Verify(tk, testResource); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tk := newSigner().Issue(testResource, "user-1", time.Minute)
	other := New("different-secret-32-bytes-padded!!")
	if err := other.Verify(tk, testResource); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerify_FixedClock(t *testing.T) {
	s := newSigner()
	base := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return base }
	tk := s.Issue(testResource, "user-1", 30*time.Second)

	s.now = func() time.Time { return base.Add(29 * time.Second) }
	if err := s.Verify(tk, testResource); err != nil {
		t.Fatalf("expected valid before expiry, got %v", err)
	}
	s.now = func() time.Time { return base.Add(31 * time.Second) }
	if err := s.Verify(tk, testResource); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after expiry, got %v", err)
	}
}

func TestTicketURL_ParseTicket(t *testing.T) {
	s := newSigner()
	tk := s.Issue(testResource, "user-42", time.Minute)

	raw, err := tk.URL("wss://forum.example.org/v1/refresh/ws")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	u, _ := url.Parse(raw)
	got, err := ParseTicket(u.Query())
	if err != nil {
		t.Fatalf("ParseTicket: %v", err)
	}
	if got != tk {
		t.Fatalf("expected %+v, got %+v", tk, got)
	}
	if err := s.Verify(got, testResource); err != nil {
		t.Fatalf("parsed ticket should verify: %v", err)
	}
}

func TestParseTicket_MissingParams(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"missing res", url.Values{"uid": {"u"}, "exp": {"1"}, "sig": {"s"}}},
		{"missing uid", url.Values{"res": {"r"}, "exp": {"1"}, "sig": {"s"}}},
		{"missing exp", url.Values{"res": {"r"}, "uid": {"u"}, "sig": {"s"}}},
		{"missing sig", url.Values{"res": {"r"}, "uid": {"u"}, "exp": {"1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTicket(tt.values); !errors.Is(err, ErrMissingParams) {
				t.Fatalf("expected ErrMissingParams, got %v", err)
			}
		})
	}
}

func TestParseTicket_BadExp(t *testing.T) {
	_, err := ParseTicket(url.Values{"res": {"r"}, "uid": {"u"}, "exp": {"soon"}, "sig": {"s"}})
	if err == nil {
		t.Fatal("expected error for non-numeric exp")
	}
}
