package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/services/forum/internal/app"
	"github.com/example/forum-platform/services/forum/internal/store"
)

var secret = []byte("test-secret")

func dial(t *testing.T) *forumv1.ForumClient {
	t.Helper()
	a := app.New(app.Options{
		Store:  store.NewInMemory(),
		Tokens: auth.Issuer{Secret: secret, TTL: time.Hour},
	})
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(UnaryAuth(auth.JWTVerifier{Secret: secret}, zap.NewNop())))
	forumv1.RegisterForumServer(s, &ForumService{Forum: a})
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return forumv1.NewForumClient(conn)
}

func withToken(tok string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func reason(err error) string {
	st, _ := status.FromError(err)
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

func TestForumService_EndToEnd(t *testing.T) {
	c := dial(t)
	ctx := context.Background()

	sess, err := c.Register(ctx, &forumv1.RegisterRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	authed := withToken(sess.AccessToken)

	th, err := c.CreateThread(authed, &forumv1.CreateThreadRequest{Title: "Welcome", Content: "hi"})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	cm, err := c.CreateComment(authed, &forumv1.CreateCommentRequest{ParentID: th.ID, Content: "first"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if cm.Depth != 1 || cm.ThreadID != th.ID {
		t.Fatalf("unexpected comment %+v", cm)
	}

	if _, err := c.SetSignal(authed, &forumv1.SetSignalRequest{PostID: cm.ID, Signal: forumv1.SignalDislike, On: true}); err != nil {
		t.Fatalf("dislike: %v", err)
	}
	in, err := c.GetInteraction(authed, &forumv1.GetInteractionRequest{PostID: cm.ID})
	if err != nil {
		t.Fatalf("interaction: %v", err)
	}
	if !in.Disliked || in.DislikesCount != 1 {
		t.Fatalf("unexpected interaction %+v", in)
	}

	batch, err := c.BatchInteractions(ctx, &forumv1.BatchInteractionsRequest{IDs: []int64{th.ID, cm.ID}})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(batch.Items) != 2 || batch.Items[cm.ID].Disliked {
		t.Fatalf("anonymous batch must carry counts only, got %+v", batch.Items)
	}

	d, err := c.GetThread(ctx, &forumv1.GetThreadRequest{ID: th.ID})
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if len(d.Comments) != 1 || d.Comments[0].ParentID == nil || *d.Comments[0].ParentID != th.ID {
		t.Fatalf("unexpected detail %+v", d)
	}

	list, err := c.ListThreads(ctx, &forumv1.ListThreadsRequest{Sort: forumv1.SortTop})
	if err != nil || len(list.Threads) != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}

	if _, err := c.DeleteThread(authed, &forumv1.DeleteThreadRequest{ID: th.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = c.GetThread(ctx, &forumv1.GetThreadRequest{ID: th.ID})
	if status.Code(err) != codes.NotFound || reason(err) != "NOT_FOUND" {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestForumService_Errors(t *testing.T) {
	c := dial(t)
	ctx := context.Background()

	_, err := c.CreateThread(ctx, &forumv1.CreateThreadRequest{Title: "t", Content: "c"})
	if status.Code(err) != codes.Unauthenticated || reason(err) != "AUTH_MISSING" {
		t.Fatalf("expected AUTH_MISSING, got %v", err)
	}

	_, err = c.ListSaved(withToken("garbage"), &forumv1.Empty{})
	if status.Code(err) != codes.Unauthenticated || reason(err) != "AUTH_INVALID" {
		t.Fatalf("expected AUTH_INVALID, got %v", err)
	}

	_, err = c.Register(ctx, &forumv1.RegisterRequest{Username: "x", Password: "password123"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	st, _ := status.FromError(err)
	var field string
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok && len(br.GetFieldViolations()) > 0 {
			field = br.GetFieldViolations()[0].GetField()
		}
	}
	if field != "username" {
		t.Fatalf("expected username violation, got %q", field)
	}

	if _, err := c.Register(ctx, &forumv1.RegisterRequest{Username: "bob", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = c.Register(ctx, &forumv1.RegisterRequest{Username: "bob", Password: "password123"})
	if status.Code(err) != codes.AlreadyExists || reason(err) != "USERNAME_TAKEN" {
		t.Fatalf("expected USERNAME_TAKEN, got %v", err)
	}

	_, err = c.Login(ctx, &forumv1.LoginRequest{Username: "bob", Password: "wrong-password"})
	if status.Code(err) != codes.Unauthenticated || reason(err) != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestForumService_UpdatePost(t *testing.T) {
	c := dial(t)
	ctx := context.Background()

	alice, _ := c.Register(ctx, &forumv1.RegisterRequest{Username: "alice", Password: "password123"})
	bob, _ := c.Register(ctx, &forumv1.RegisterRequest{Username: "bob", Password: "password123"})
	th, err := c.CreateThread(withToken(alice.AccessToken), &forumv1.CreateThreadRequest{Title: "t", Content: "c", Category: "help"})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	authz, err := c.AuthorizePost(withToken(bob.AccessToken), &forumv1.AuthorizePostRequest{ID: th.ID})
	if err != nil || authz.Authorized {
		t.Fatalf("stranger authorized: %+v %v", authz, err)
	}
	content := "edited"
	_, err = c.UpdatePost(withToken(bob.AccessToken), &forumv1.UpdatePostRequest{ID: th.ID, Content: &content})
	if status.Code(err) != codes.PermissionDenied || reason(err) != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	p, err := c.UpdatePost(withToken(alice.AccessToken), &forumv1.UpdatePostRequest{ID: th.ID, Content: &content})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Content != "edited" || p.Title != "t" || p.Category != "help" {
		t.Fatalf("unexpected post %+v", p)
	}

	facets, err := c.ListFacets(ctx, &forumv1.Empty{})
	if err != nil || len(facets.Categories) != 1 || facets.Categories[0] != "help" {
		t.Fatalf("facets: %+v %v", facets, err)
	}
	list, err := c.ListThreads(ctx, &forumv1.ListThreadsRequest{Category: "other"})
	if err != nil || len(list.Threads) != 0 {
		t.Fatalf("filtered list: %+v %v", list, err)
	}
}
