package forumv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/forum-platform/internal/platform/rpcjson"
)

const ServiceName = "forum.v1.Forum"

// ForumServer is the server API for the forum.v1.Forum service.
type ForumServer interface {
	GetThread(context.Context, *GetThreadRequest) (*ThreadDetail, error)
	ListThreads(context.Context, *ListThreadsRequest) (*ListThreadsResponse, error)
	CreateThread(context.Context, *CreateThreadRequest) (*Post, error)
	DeleteThread(context.Context, *DeleteThreadRequest) (*Empty, error)
	UpdatePost(context.Context, *UpdatePostRequest) (*Post, error)
	AuthorizePost(context.Context, *AuthorizePostRequest) (*Authorization, error)
	ListFacets(context.Context, *Empty) (*Facets, error)
	CreateComment(context.Context, *CreateCommentRequest) (*Post, error)
	GetInteraction(context.Context, *GetInteractionRequest) (*Interaction, error)
	BatchInteractions(context.Context, *BatchInteractionsRequest) (*BatchInteractionsResponse, error)
	SetSignal(context.Context, *SetSignalRequest) (*Empty, error)
	ListSaved(context.Context, *Empty) (*ListThreadsResponse, error)
	Register(context.Context, *RegisterRequest) (*Session, error)
	Login(context.Context, *LoginRequest) (*Session, error)
}

// UnimplementedForumServer answers every method with codes.Unimplemented.
type UnimplementedForumServer struct{}

func (UnimplementedForumServer) GetThread(context.Context, *GetThreadRequest) (*ThreadDetail, error) {
	return nil, status.Error(codes.Unimplemented, "method GetThread not implemented")
}
func (UnimplementedForumServer) ListThreads(context.Context, *ListThreadsRequest) (*ListThreadsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListThreads not implemented")
}
func (UnimplementedForumServer) CreateThread(context.Context, *CreateThreadRequest) (*Post, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateThread not implemented")
}
func (UnimplementedForumServer) DeleteThread(context.Context, *DeleteThreadRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteThread not implemented")
}
func (UnimplementedForumServer) UpdatePost(context.Context, *UpdatePostRequest) (*Post, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdatePost not implemented")
}
func (UnimplementedForumServer) AuthorizePost(context.Context, *AuthorizePostRequest) (*Authorization, error) {
	return nil, status.Error(codes.Unimplemented, "method AuthorizePost not implemented")
}
func (UnimplementedForumServer) ListFacets(context.Context, *Empty) (*Facets, error) {
	return nil, status.Error(codes.Unimplemented, "method ListFacets not implemented")
}
func (UnimplementedForumServer) CreateComment(context.Context, *CreateCommentRequest) (*Post, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateComment not implemented")
}
func (UnimplementedForumServer) GetInteraction(context.Context, *GetInteractionRequest) (*Interaction, error) {
	return nil, status.Error(codes.Unimplemented, "method GetInteraction not implemented")
}
func (UnimplementedForumServer) BatchInteractions(context.Context, *BatchInteractionsRequest) (*BatchInteractionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BatchInteractions not implemented")
}
func (UnimplementedForumServer) SetSignal(context.Context, *SetSignalRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SetSignal not implemented")
}
func (UnimplementedForumServer) ListSaved(context.Context, *Empty) (*ListThreadsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSaved not implemented")
}
func (UnimplementedForumServer) Register(context.Context, *RegisterRequest) (*Session, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedForumServer) Login(context.Context, *LoginRequest) (*Session, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func unary[Req, Resp any](method string, call func(ForumServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ForumServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ForumServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes forum.v1.Forum for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ForumServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetThread", ForumServer.GetThread),
		unary("ListThreads", ForumServer.ListThreads),
		unary("CreateThread", ForumServer.CreateThread),
		unary("DeleteThread", ForumServer.DeleteThread),
		unary("UpdatePost", ForumServer.UpdatePost),
		unary("AuthorizePost", ForumServer.AuthorizePost),
		unary("ListFacets", ForumServer.ListFacets),
		unary("CreateComment", ForumServer.CreateComment),
		unary("GetInteraction", ForumServer.GetInteraction),
		unary("BatchInteractions", ForumServer.BatchInteractions),
		unary("SetSignal", ForumServer.SetSignal),
		unary("ListSaved", ForumServer.ListSaved),
		unary("Register", ForumServer.Register),
		unary("Login", ForumServer.Login),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "forumv1",
}

func RegisterForumServer(s grpc.ServiceRegistrar, srv ForumServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ForumClient is the client API for forum.v1.Forum. Every call uses the JSON codec.
type ForumClient struct {
	cc grpc.ClientConnInterface
}

func NewForumClient(cc grpc.ClientConnInterface) *ForumClient {
	return &ForumClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(rpcjson.Name)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ForumClient) GetThread(ctx context.Context, in *GetThreadRequest, opts ...grpc.CallOption) (*ThreadDetail, error) {
	return invoke[ThreadDetail](ctx, c.cc, "GetThread", in, opts)
}

func (c *ForumClient) ListThreads(ctx context.Context, in *ListThreadsRequest, opts ...grpc.CallOption) (*ListThreadsResponse, error) {
	return invoke[ListThreadsResponse](ctx, c.cc, "ListThreads", in, opts)
}

func (c *ForumClient) CreateThread(ctx context.Context, in *CreateThreadRequest, opts ...grpc.CallOption) (*Post, error) {
	return invoke[Post](ctx, c.cc, "CreateThread", in, opts)
}

func (c *ForumClient) DeleteThread(ctx context.Context, in *DeleteThreadRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteThread", in, opts)
}

func (c *ForumClient) UpdatePost(ctx context.Context, in *UpdatePostRequest, opts ...grpc.CallOption) (*Post, error) {
	return invoke[Post](ctx, c.cc, "UpdatePost", in, opts)
}

func (c *ForumClient) AuthorizePost(ctx context.Context, in *AuthorizePostRequest, opts ...grpc.CallOption) (*Authorization, error) {
	return invoke[Authorization](ctx, c.cc, "AuthorizePost", in, opts)
}

func (c *ForumClient) ListFacets(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Facets, error) {
	return invoke[Facets](ctx, c.cc, "ListFacets", in, opts)
}

func (c *ForumClient) CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*Post, error) {
	return invoke[Post](ctx, c.cc, "CreateComment", in, opts)
}

func (c *ForumClient) GetInteraction(ctx context.Context, in *GetInteractionRequest, opts ...grpc.CallOption) (*Interaction, error) {
	return invoke[Interaction](ctx, c.cc, "GetInteraction", in, opts)
}

func (c *ForumClient) BatchInteractions(ctx context.Context, in *BatchInteractionsRequest, opts ...grpc.CallOption) (*BatchInteractionsResponse, error) {
	return invoke[BatchInteractionsResponse](ctx, c.cc, "BatchInteractions", in, opts)
}

func (c *ForumClient) SetSignal(ctx context.Context, in *SetSignalRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "SetSignal", in, opts)
}

func (c *ForumClient) ListSaved(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListThreadsResponse, error) {
	return invoke[ListThreadsResponse](ctx, c.cc, "ListSaved", in, opts)
}

func (c *ForumClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, "Register", in, opts)
}

func (c *ForumClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, "Login", in, opts)
}
