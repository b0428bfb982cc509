// Package app holds the forum's operations, shared by the HTTP and gRPC
// front ends. The caller's identity is read from the context that
// auth.Authenticate produced.
package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/forum/internal/events"
	"github.com/example/forum-platform/services/forum/internal/store"
)

var ErrUnauthenticated = errors.New("authentication required")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ValidationError maps request fields (by JSON name) to the failed rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid request (" + strings.Join(parts, ", ") + ")"
}

func invalid(field, rule string) error {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

// Emitter receives every successful mutation.
type Emitter interface {
	Emit(events.Change)
}

type nopEmitter struct{}

func (nopEmitter) Emit(events.Change) {}

type Options struct {
	Store  store.Store
	Tokens auth.Issuer
	Events Emitter
	// BootstrapAdmin is promoted to admin when it registers.
	BootstrapAdmin string
	Log            *zap.Logger
}

type App struct {
	store          store.Store
	tokens         auth.Issuer
	events         Emitter
	bootstrapAdmin string
	log            *zap.Logger
	validate       *validator.Validate
	now            func() time.Time
}

func New(o Options) *App {
	a := &App{
		store:          o.Store,
		tokens:         o.Tokens,
		events:         o.Events,
		bootstrapAdmin: strings.TrimSpace(o.BootstrapAdmin),
		log:            o.Log,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		now:            func() time.Time { return time.Now().UTC() },
	}
	if a.events == nil {
		a.events = nopEmitter{}
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	a.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return a
}

func (a *App) check(v any) error {
	err := a.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

type caller struct {
	id   string
	role string
}

func (c caller) admin() bool { return strings.EqualFold(c.role, store.RoleAdmin) }

func callerFrom(ctx context.Context) caller {
	id, _ := auth.UserIDFromContext(ctx)
	role, _ := auth.RoleFromContext(ctx)
	return caller{id: id, role: role}
}

func requireCaller(ctx context.Context) (caller, error) {
	c := callerFrom(ctx)
	if c.id == "" {
		return caller{}, ErrUnauthenticated
	}
	return c, nil
}

func (a *App) session(u store.User) (forumv1.Session, error) {
	tok, exp, err := a.tokens.NewAccessToken(u.ID, u.Username, u.Role, a.now())
	if err != nil {
		return forumv1.Session{}, fmt.Errorf("issue token: %w", err)
	}
	return forumv1.Session{AccessToken: tok, ExpiresAt: exp, UserID: u.ID, Username: u.Username}, nil
}

func (a *App) Register(ctx context.Context, req forumv1.RegisterRequest) (forumv1.Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := a.check(&req); err != nil {
		return forumv1.Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return forumv1.Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := a.store.CreateUser(ctx, req.Username, string(hash))
	if err != nil {
		return forumv1.Session{}, err
	}
	if a.bootstrapAdmin != "" && strings.EqualFold(a.bootstrapAdmin, u.Username) {
		if err := a.store.SetRole(ctx, u.Username, store.RoleAdmin); err != nil {
			a.log.Warn("promote bootstrap admin", zap.String("username", u.Username), zap.Error(err))
		} else {
			u.Role = store.RoleAdmin
		}
	}
	a.events.Emit(events.Change{Kind: events.KindUserRegistered, UserID: u.ID})
	return a.session(u)
}

func (a *App) Login(ctx context.Context, req forumv1.LoginRequest) (forumv1.Session, error) {
	if err := a.check(&req); err != nil {
		return forumv1.Session{}, err
	}
	u, err := a.store.UserByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return forumv1.Session{}, store.ErrInvalidCredentials
	}
	if err != nil {
		return forumv1.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return forumv1.Session{}, store.ErrInvalidCredentials
	}
	a.events.Emit(events.Change{Kind: events.KindUserLoggedIn, UserID: u.ID})
	return a.session(u)
}

// normalizeLabel folds a category or tag name so that "Go " and "go" match.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeLabelPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalizeLabel(*s)
	return &v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Threads lists threads. Unknown sorts fall back to newest first.
func (a *App) Threads(ctx context.Context, req forumv1.ListThreadsRequest) ([]forumv1.Post, error) {
	q := store.ListQuery{
		Query:    strings.TrimSpace(req.Query),
		Category: normalizeLabel(req.Category),
		Tag:      normalizeLabel(req.Tag),
		Sort:     strings.ToLower(strings.TrimSpace(req.Sort)),
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	switch q.Sort {
	case forumv1.SortTop, forumv1.SortActive:
	default:
		q.Sort = forumv1.SortNew
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return a.store.ListThreads(ctx, q)
}

func (a *App) Thread(ctx context.Context, id int64) (forumv1.ThreadDetail, error) {
	if id <= 0 {
		return forumv1.ThreadDetail{}, invalid("id", "gt")
	}
	return a.store.Thread(ctx, id)
}

func (a *App) CreateThread(ctx context.Context, req forumv1.CreateThreadRequest) (forumv1.Post, error) {
	c, err := requireCaller(ctx)
	if err != nil {
		return forumv1.Post{}, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Category = normalizeLabel(req.Category)
	req.Tag = normalizeLabel(req.Tag)
	if err := a.check(&req); err != nil {
		return forumv1.Post{}, err
	}
	p, err := a.store.CreatePost(ctx, store.NewPost{
		AuthorID: c.id, Title: req.Title, Content: req.Content, Category: req.Category, Tag: req.Tag,
	})
	if err != nil {
		return forumv1.Post{}, err
	}
	a.events.Emit(events.Change{Kind: events.KindThreadCreated, UserID: c.id, PostID: p.ID, ThreadID: p.ID})
	return p, nil
}

// DeleteThread removes a thread with all its replies. Only the author or an
// admin may delete.
func (a *App) DeleteThread(ctx context.Context, id int64) error {
	c, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	if id <= 0 {
		return invalid("id", "gt")
	}
	if err := a.store.DeleteThread(ctx, id, c.id, c.admin()); err != nil {
		return err
	}
	a.events.Emit(events.Change{Kind: events.KindThreadDeleted, UserID: c.id, PostID: id, ThreadID: id})
	return nil
}

// UpdatePost edits a thread or a comment. Only the author or an admin may
// edit; title, category and tag are rejected on comments.
func (a *App) UpdatePost(ctx context.Context, req forumv1.UpdatePostRequest) (forumv1.Post, error) {
	c, err := requireCaller(ctx)
	if err != nil {
		return forumv1.Post{}, err
	}
	if req.ID <= 0 {
		return forumv1.Post{}, invalid("id", "gt")
	}
	req.Title = trimPtr(req.Title)
	req.Content = trimPtr(req.Content)
	req.Category = normalizeLabelPtr(req.Category)
	req.Tag = normalizeLabelPtr(req.Tag)
	if err := a.check(&req); err != nil {
		return forumv1.Post{}, err
	}
	switch {
	case req.Title == nil && req.Content == nil && req.Category == nil && req.Tag == nil:
		return forumv1.Post{}, invalid("content", "required")
	case req.Title != nil && *req.Title == "":
		return forumv1.Post{}, invalid("title", "required")
	case req.Content != nil && *req.Content == "":
		return forumv1.Post{}, invalid("content", "required")
	}

	patch := store.PostPatch{Title: req.Title, Content: req.Content, Category: req.Category, Tag: req.Tag}
	p, err := a.store.UpdatePost(ctx, req.ID, c.id, c.admin(), patch)
	if errors.Is(err, store.ErrThreadOnly) {
		field := "title"
		if req.Title == nil {
			field = "category"
			if req.Category == nil {
				field = "tag"
			}
		}
		return forumv1.Post{}, invalid(field, "thread_only")
	}
	if err != nil {
		return forumv1.Post{}, err
	}
	a.events.Emit(events.Change{Kind: events.KindPostUpdated, UserID: c.id, PostID: p.ID, ThreadID: p.ThreadID})
	return p, nil
}

// Authorize reports whether the caller may edit or delete the post. An
// anonymous caller is never authorized.
func (a *App) Authorize(ctx context.Context, id int64) (forumv1.Authorization, error) {
	if id <= 0 {
		return forumv1.Authorization{}, invalid("id", "gt")
	}
	c := callerFrom(ctx)
	ok, err := a.store.CanModify(ctx, id, c.id, c.id != "" && c.admin())
	if err != nil {
		return forumv1.Authorization{}, err
	}
	return forumv1.Authorization{Authorized: ok}, nil
}

func (a *App) Facets(ctx context.Context) (forumv1.Facets, error) {
	return a.store.Facets(ctx)
}

// CreateComment replies to a thread or a comment. The depth is the parent's
// plus one.
func (a *App) CreateComment(ctx context.Context, req forumv1.CreateCommentRequest) (forumv1.Post, error) {
	c, err := requireCaller(ctx)
	if err != nil {
		return forumv1.Post{}, err
	}
	if req.ParentID <= 0 {
		return forumv1.Post{}, invalid("parent_id", "gt")
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := a.check(&req); err != nil {
		return forumv1.Post{}, err
	}
	parent := req.ParentID
	p, err := a.store.CreatePost(ctx, store.NewPost{AuthorID: c.id, ParentID: &parent, Content: req.Content})
	if err != nil {
		return forumv1.Post{}, err
	}
	a.events.Emit(events.Change{
		Kind: events.KindCommentCreated, UserID: c.id, PostID: p.ID, ThreadID: p.ThreadID,
		Props: map[string]any{"depth": p.Depth},
	})
	return p, nil
}

// Interaction returns counts and, for a signed-in caller, their flags.
func (a *App) Interaction(ctx context.Context, postID int64) (forumv1.Interaction, error) {
	items, err := a.store.Interactions(ctx, callerFrom(ctx).id, []int64{postID})
	if err != nil {
		return forumv1.Interaction{}, err
	}
	in, ok := items[postID]
	if !ok {
		return forumv1.Interaction{}, store.ErrNotFound
	}
	return in, nil
}

func (a *App) Interactions(ctx context.Context, req forumv1.BatchInteractionsRequest) (map[int64]forumv1.Interaction, error) {
	if err := a.check(&req); err != nil {
		return nil, err
	}
	return a.store.Interactions(ctx, callerFrom(ctx).id, req.IDs)
}

// SetSignal adds or removes one like, dislike or save. Like and dislike are
// stored independently; keeping them exclusive is the client's concern.
func (a *App) SetSignal(ctx context.Context, req forumv1.SetSignalRequest) error {
	c, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	if !forumv1.ValidSignal(req.Signal) {
		return invalid("signal", "oneof")
	}
	if req.PostID <= 0 {
		return invalid("post_id", "gt")
	}
	if err := a.store.SetSignal(ctx, req.PostID, c.id, req.Signal, req.On); err != nil {
		return err
	}
	a.events.Emit(events.Change{
		Kind: events.KindReactionChanged, UserID: c.id, PostID: req.PostID,
		Props: map[string]any{"signal": req.Signal, "on": req.On},
	})
	return nil
}

func (a *App) Saved(ctx context.Context) ([]forumv1.Post, error) {
	c, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	return a.store.Saved(ctx, c.id)
}

// Ready reports whether the backing store answers.
func (a *App) Ready(ctx context.Context) error {
	return a.store.Ping(ctx)
}
