package remote

import (
	"context"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/services/web/internal/thread"
)

// GRPCClient calls forum.v1.Forum.
type GRPCClient struct {
	conn *grpc.ClientConn
	rpc  *forumv1.ForumClient
}

func NewGRPCClient(addr string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, rpc: forumv1.NewForumClient(conn)}, nil
}

// NewGRPCClientConn wraps an existing connection; Close is then the caller's job.
func NewGRPCClientConn(cc grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{rpc: forumv1.NewForumClient(cc)}
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func withAuthMD(ctx context.Context) context.Context {
	if rid := httpserver.RequestIDFromContext(ctx); rid != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, httpserver.RequestIDMetadata, rid)
	}
	if tok := tokenFrom(ctx); tok != "" {
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	}
	return ctx
}

func kindForCode(c codes.Code) Kind {
	switch c {
	case codes.NotFound:
		return KindNotFound
	case codes.Unauthenticated:
		return KindUnauthorized
	case codes.PermissionDenied:
		return KindForbidden
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return KindInvalid
	case codes.AlreadyExists, codes.Aborted:
		return KindConflict
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Canceled:
		return KindTransient
	default:
		return KindUnknown
	}
}

// fromStatus converts a gRPC error, reading the forum code from ErrorInfo.
func fromStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	re := &Error{Kind: kindForCode(st.Code()), Op: op, Message: st.Message(), Err: err}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetReason() != "" {
			re.Code = info.GetReason()
		}
	}
	return re
}

func (c *GRPCClient) Thread(ctx context.Context, id int64) (ThreadDetail, error) {
	out, err := c.rpc.GetThread(withAuthMD(ctx), &forumv1.GetThreadRequest{ID: id})
	if err != nil {
		return ThreadDetail{}, fromStatus("thread", err)
	}
	comments := make([]thread.Record, len(out.Comments))
	for i, p := range out.Comments {
		comments[i] = RecordFromPost(p)
	}
	if err := thread.Validate(comments); err != nil {
		return ThreadDetail{}, err
	}
	return ThreadDetail{Thread: out.Thread, Comments: comments}, nil
}

func (c *GRPCClient) Threads(ctx context.Context, q ListQuery) ([]Post, error) {
	out, err := c.rpc.ListThreads(withAuthMD(ctx), &q)
	if err != nil {
		return nil, fromStatus("threads", err)
	}
	return out.Threads, nil
}

func (c *GRPCClient) CreateThread(ctx context.Context, t NewThread) (Post, error) {
	out, err := c.rpc.CreateThread(withAuthMD(ctx), &t)
	if err != nil {
		return Post{}, fromStatus("create_thread", err)
	}
	return *out, nil
}

func (c *GRPCClient) DeleteThread(ctx context.Context, id int64) error {
	_, err := c.rpc.DeleteThread(withAuthMD(ctx), &forumv1.DeleteThreadRequest{ID: id})
	return fromStatus("delete_thread", err)
}

func (c *GRPCClient) UpdatePost(ctx context.Context, e PostEdit) (Post, error) {
	out, err := c.rpc.UpdatePost(withAuthMD(ctx), &e)
	if err != nil {
		return Post{}, fromStatus("update_post", err)
	}
	return *out, nil
}

func (c *GRPCClient) Authorize(ctx context.Context, postID int64) (bool, error) {
	out, err := c.rpc.AuthorizePost(withAuthMD(ctx), &forumv1.AuthorizePostRequest{ID: postID})
	if err != nil {
		return false, fromStatus("authorize", err)
	}
	return out.Authorized, nil
}

func (c *GRPCClient) Facets(ctx context.Context) (Facets, error) {
	out, err := c.rpc.ListFacets(withAuthMD(ctx), &forumv1.Empty{})
	if err != nil {
		return Facets{}, fromStatus("facets", err)
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return *out, nil
}

func (c *GRPCClient) CreateComment(ctx context.Context, parentID int64, content string) (thread.Record, error) {
	out, err := c.rpc.CreateComment(withAuthMD(ctx), &forumv1.CreateCommentRequest{ParentID: parentID, Content: content})
	if err != nil {
		return thread.Record{}, fromStatus("create_comment", err)
	}
	return RecordFromPost(*out), nil
}

func (c *GRPCClient) Interaction(ctx context.Context, postID int64) (Interaction, error) {
	out, err := c.rpc.GetInteraction(withAuthMD(ctx), &forumv1.GetInteractionRequest{PostID: postID})
	if err != nil {
		return Interaction{}, fromStatus("interaction", err)
	}
	return *out, nil
}

func (c *GRPCClient) BatchInteractions(ctx context.Context, postIDs []int64) (map[int64]Interaction, error) {
	out, err := c.rpc.BatchInteractions(withAuthMD(ctx), &forumv1.BatchInteractionsRequest{IDs: postIDs})
	if err != nil {
		return nil, fromStatus("batch_interactions", err)
	}
	if out.Items == nil {
		out.Items = map[int64]Interaction{}
	}
	return out.Items, nil
}

func (c *GRPCClient) SetSignal(ctx context.Context, postID int64, sig Signal, on bool) error {
	_, err := c.rpc.SetSignal(withAuthMD(ctx), &forumv1.SetSignalRequest{PostID: postID, Signal: string(sig), On: on})
	return fromStatus("set_signal", err)
}

func (c *GRPCClient) SavedThreads(ctx context.Context) ([]Post, error) {
	out, err := c.rpc.ListSaved(withAuthMD(ctx), &forumv1.Empty{})
	if err != nil {
		return nil, fromStatus("saved_threads", err)
	}
	return out.Threads, nil
}

func (c *GRPCClient) Register(ctx context.Context, username, password string) (Session, error) {
	out, err := c.rpc.Register(ctx, &forumv1.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return Session{}, fromStatus("register", err)
	}
	return *out, nil
}

func (c *GRPCClient) Login(ctx context.Context, username, password string) (Session, error) {
	out, err := c.rpc.Login(ctx, &forumv1.LoginRequest{Username: username, Password: password})
	if err != nil {
		return Session{}, fromStatus("login", err)
	}
	return *out, nil
}

var _ Client = (*GRPCClient)(nil)
