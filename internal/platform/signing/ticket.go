// Package signing issues short-lived HMAC tickets that authorize a single
// resource for a single user, for transports that cannot carry an
// Authorization header (browser websockets).
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingParams = errors.New("signing: missing ticket params")
	ErrExpired       = errors.New("signing: ticket expired")
	ErrBadSignature  = errors.New("signing: bad signature")
)

type Signer struct {
	Secret []byte
	now    func() time.Time
}

type Ticket struct {
	Resource string
	UserID   string
	Exp      int64
	Sig      string
}

func New(secret string) *Signer {
	return &Signer{Secret: []byte(secret), now: time.Now}
}

// Issue signs resource for userID, valid for ttl.
func (s *Signer) Issue(resource, userID string, ttl time.Duration) Ticket {
	exp := s.now().Add(ttl).Unix()
	return Ticket{Resource: resource, UserID: userID, Exp: exp, Sig: s.mac(resource, userID, exp)}
}

// Verify checks the ticket was issued by this signer for resource and has not expired.
func (s *Signer) Verify(t Ticket, resource string) error {
	if s.now().Unix() > t.Exp {
		return ErrExpired
	}
	if t.Resource != resource {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(t.Sig), []byte(s.mac(t.Resource, t.UserID, t.Exp))) {
		return ErrBadSignature
	}
	return nil
}

func (s *Signer) mac(resource, userID string, exp int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	mac.Write([]byte(resource))
	mac.Write([]byte("|"))
	mac.Write([]byte(userID))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// URL appends the ticket to base as query parameters.
func (t Ticket) URL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("res", t.Resource)
	q.Set("uid", t.UserID)
	q.Set("exp", strconv.FormatInt(t.Exp, 10))
	q.Set("sig", t.Sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseTicket reads a ticket from query parameters written by Ticket.URL.
func ParseTicket(query url.Values) (Ticket, error) {
	t := Ticket{
		Resource: strings.TrimSpace(query.Get("res")),
		UserID:   strings.TrimSpace(query.Get("uid")),
		Sig:      strings.TrimSpace(query.Get("sig")),
	}
	expStr := strings.TrimSpace(query.Get("exp"))
	if t.Resource == "" || t.UserID == "" || expStr == "" || t.Sig == "" {
		return Ticket{}, ErrMissingParams
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return Ticket{}, err
	}
	t.Exp = exp
	return t, nil
}
