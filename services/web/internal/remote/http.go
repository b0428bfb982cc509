package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/thread"
)

const maxResponseBytes = 4 << 20

// HTTPClient calls the forum service's JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for baseURL. hc may be nil.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Classify maps an HTTP status and body size to an Outcome.
func Classify(status int, bodyLen int) Outcome {
	switch {
	case status >= 200 && status < 300:
		if status == http.StatusNoContent || bodyLen == 0 {
			return OutcomeEmpty
		}
		return OutcomeData
	case status == http.StatusNotFound:
		return OutcomeNotFound
	case status == http.StatusUnauthorized:
		return OutcomeUnauthorized
	case status == http.StatusTooManyRequests || status >= 500:
		return OutcomeTransient
	default:
		return OutcomeRejected
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalid
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return KindTransient
	}
	return KindUnknown
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request. out is filled only for OutcomeData; an empty success
// leaves it untouched.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindInvalid, Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindInvalid, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if rid := httpserver.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set(httpserver.RequestIDHeader, rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Status: resp.StatusCode, Err: err}
	}

	switch Classify(resp.StatusCode, len(bytes.TrimSpace(data))) {
	case OutcomeEmpty:
		return nil
	case OutcomeData:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindUnknown, Op: op, Status: resp.StatusCode, Message: "undecodable response", Err: err}
		}
		return nil
	}

	re := &Error{Kind: kindForStatus(resp.StatusCode), Op: op, Status: resp.StatusCode}
	var env errorEnvelope
	if json.Unmarshal(data, &env) == nil && env.Error.Code != "" {
		re.Code = env.Error.Code
		re.Message = env.Error.Message
	} else {
		re.Message = http.StatusText(resp.StatusCode)
	}
	return re
}

type threadEnvelope struct {
	Thread   Post            `json:"thread"`
	Comments json.RawMessage `json:"comments"`
}

func (c *HTTPClient) Thread(ctx context.Context, id int64) (ThreadDetail, error) {
	var env threadEnvelope
	if err := c.do(ctx, "thread", http.MethodGet, "/v1/threads/"+strconv.FormatInt(id, 10), nil, &env); err != nil {
		return ThreadDetail{}, err
	}
	if env.Thread.ID == 0 {
		return ThreadDetail{}, &Error{Kind: KindNotFound, Op: "thread", Message: "empty thread response"}
	}
	comments := []thread.Record{}
	if len(env.Comments) > 0 && string(env.Comments) != "null" {
		recs, err := thread.DecodeRecords(env.Comments)
		if err != nil {
			return ThreadDetail{}, err
		}
		comments = recs
	}
	return ThreadDetail{Thread: env.Thread, Comments: comments}, nil
}

func (c *HTTPClient) Threads(ctx context.Context, q ListQuery) ([]Post, error) {
	v := url.Values{}
	if q.Query != "" {
		v.Set("query", q.Query)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/v1/threads"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	var out forumv1.ListThreadsResponse
	if err := c.do(ctx, "threads", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (c *HTTPClient) CreateThread(ctx context.Context, t NewThread) (Post, error) {
	var out Post
	err := c.do(ctx, "create_thread", http.MethodPost, "/v1/threads", t, &out)
	return out, err
}

func (c *HTTPClient) DeleteThread(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_thread", http.MethodDelete, "/v1/threads/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *HTTPClient) UpdatePost(ctx context.Context, e PostEdit) (Post, error) {
	var out Post
	err := c.do(ctx, "update_post", http.MethodPut, "/v1/posts/"+strconv.FormatInt(e.ID, 10), e, &out)
	return out, err
}

func (c *HTTPClient) Authorize(ctx context.Context, postID int64) (bool, error) {
	var out forumv1.Authorization
	err := c.do(ctx, "authorize", http.MethodGet, fmt.Sprintf("/v1/posts/%d/authorize", postID), nil, &out)
	return out.Authorized, err
}

func (c *HTTPClient) Facets(ctx context.Context) (Facets, error) {
	var out Facets
	if err := c.do(ctx, "facets", http.MethodGet, "/v1/facets", nil, &out); err != nil {
		return Facets{}, err
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out, nil
}

func (c *HTTPClient) CreateComment(ctx context.Context, parentID int64, content string) (thread.Record, error) {
	var out Post
	path := fmt.Sprintf("/v1/posts/%d/comments", parentID)
	if err := c.do(ctx, "create_comment", http.MethodPost, path, map[string]string{"content": content}, &out); err != nil {
		return thread.Record{}, err
	}
	return RecordFromPost(out), nil
}

func (c *HTTPClient) Interaction(ctx context.Context, postID int64) (Interaction, error) {
	var out Interaction
	err := c.do(ctx, "interaction", http.MethodGet, fmt.Sprintf("/v1/posts/%d/interaction", postID), nil, &out)
	return out, err
}

func (c *HTTPClient) BatchInteractions(ctx context.Context, postIDs []int64) (map[int64]Interaction, error) {
	var out forumv1.BatchInteractionsResponse
	if err := c.do(ctx, "batch_interactions", http.MethodPost, "/v1/interactions:batch",
		forumv1.BatchInteractionsRequest{IDs: postIDs}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = map[int64]Interaction{}
	}
	return out.Items, nil
}

func (c *HTTPClient) SetSignal(ctx context.Context, postID int64, sig Signal, on bool) error {
	if !forumv1.ValidSignal(string(sig)) {
		return &Error{Kind: KindInvalid, Op: "set_signal", Message: "unknown signal " + string(sig)}
	}
	method := http.MethodPost
	if !on {
		method = http.MethodDelete
	}
	return c.do(ctx, "set_signal", method, fmt.Sprintf("/v1/posts/%d/%s", postID, sig), nil, nil)
}

func (c *HTTPClient) SavedThreads(ctx context.Context) ([]Post, error) {
	var out forumv1.ListThreadsResponse
	if err := c.do(ctx, "saved_threads", http.MethodGet, "/v1/me/saved", nil, &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) (Session, error) {
	var out Session
	err := c.do(ctx, "register", http.MethodPost, "/v1/users",
		forumv1.RegisterRequest{Username: username, Password: password}, &out)
	return out, err
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (Session, error) {
	var out Session
	err := c.do(ctx, "login", http.MethodPost, "/v1/users/login",
		forumv1.LoginRequest{Username: username, Password: password}, &out)
	if err == nil && out.AccessToken == "" {
		return Session{}, &Error{Kind: KindUnknown, Op: "login", Message: "login returned no token"}
	}
	return out, err
}

var _ Client = (*HTTPClient)(nil)
