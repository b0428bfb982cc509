package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/forum-platform/services/web/internal/remote"
)

type stubAccounts struct {
	sess remote.Session
	err  error
}

func (s stubAccounts) Register(context.Context, string, string) (remote.Session, error) {
	return s.sess, s.err
}

func (s stubAccounts) Login(context.Context, string, string) (remote.Session, error) {
	return s.sess, s.err
}

func TestRegister_Validation(t *testing.T) {
	rr := httptest.NewRecorder()
	Register(stubAccounts{}).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/register", "", []byte(`{"username":"al","password":"short"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegister_Conflict(t *testing.T) {
	a := stubAccounts{err: &remote.Error{Kind: remote.KindConflict, Code: "USERNAME_TAKEN"}}
	rr := httptest.NewRecorder()
	Register(a).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/register", "", []byte(`{"username":"alice","password":"password123"}`)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if code, _ := decodeError(t, rr); code != "USERNAME_TAKEN" {
		t.Fatalf("expected USERNAME_TAKEN, got %s", code)
	}
}

func TestLogin_OK(t *testing.T) {
	a := stubAccounts{sess: remote.Session{AccessToken: "tok", UserID: "u1"}}
	rr := httptest.NewRecorder()
	Login(a).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/login", "", []byte(`{"username":"alice","password":"password123"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestWriteRemoteError_UnknownIsInternal(t *testing.T) {
	rr := httptest.NewRecorder()
	writeRemoteError(rr, "rid", context.Canceled)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
