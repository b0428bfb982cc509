package grpcapi

import (
	"context"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/services/forum/internal/handlers"
)

// ForumService serves forum.v1.Forum on top of the same operations as the
// HTTP API.
type ForumService struct {
	forumv1.UnimplementedForumServer
	Forum handlers.Forum
}

func (s *ForumService) GetThread(ctx context.Context, in *forumv1.GetThreadRequest) (*forumv1.ThreadDetail, error) {
	d, err := s.Forum.Thread(ctx, in.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &d, nil
}

func (s *ForumService) ListThreads(ctx context.Context, in *forumv1.ListThreadsRequest) (*forumv1.ListThreadsResponse, error) {
	threads, err := s.Forum.Threads(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &forumv1.ListThreadsResponse{Threads: threads}, nil
}

func (s *ForumService) CreateThread(ctx context.Context, in *forumv1.CreateThreadRequest) (*forumv1.Post, error) {
	p, err := s.Forum.CreateThread(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &p, nil
}

func (s *ForumService) DeleteThread(ctx context.Context, in *forumv1.DeleteThreadRequest) (*forumv1.Empty, error) {
	if err := s.Forum.DeleteThread(ctx, in.ID); err != nil {
		return nil, toStatus(err)
	}
	return &forumv1.Empty{}, nil
}

func (s *ForumService) UpdatePost(ctx context.Context, in *forumv1.UpdatePostRequest) (*forumv1.Post, error) {
	p, err := s.Forum.UpdatePost(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &p, nil
}

func (s *ForumService) AuthorizePost(ctx context.Context, in *forumv1.AuthorizePostRequest) (*forumv1.Authorization, error) {
	out, err := s.Forum.Authorize(ctx, in.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &out, nil
}

func (s *ForumService) ListFacets(ctx context.Context, _ *forumv1.Empty) (*forumv1.Facets, error) {
	out, err := s.Forum.Facets(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &out, nil
}

func (s *ForumService) CreateComment(ctx context.Context, in *forumv1.CreateCommentRequest) (*forumv1.Post, error) {
	p, err := s.Forum.CreateComment(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &p, nil
}

func (s *ForumService) GetInteraction(ctx context.Context, in *forumv1.GetInteractionRequest) (*forumv1.Interaction, error) {
	v, err := s.Forum.Interaction(ctx, in.PostID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &v, nil
}

func (s *ForumService) BatchInteractions(ctx context.Context, in *forumv1.BatchInteractionsRequest) (*forumv1.BatchInteractionsResponse, error) {
	items, err := s.Forum.Interactions(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &forumv1.BatchInteractionsResponse{Items: items}, nil
}

func (s *ForumService) SetSignal(ctx context.Context, in *forumv1.SetSignalRequest) (*forumv1.Empty, error) {
	if err := s.Forum.SetSignal(ctx, *in); err != nil {
		return nil, toStatus(err)
	}
	return &forumv1.Empty{}, nil
}

func (s *ForumService) ListSaved(ctx context.Context, _ *forumv1.Empty) (*forumv1.ListThreadsResponse, error) {
	posts, err := s.Forum.Saved(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &forumv1.ListThreadsResponse{Threads: posts}, nil
}

func (s *ForumService) Register(ctx context.Context, in *forumv1.RegisterRequest) (*forumv1.Session, error) {
	sess, err := s.Forum.Register(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &sess, nil
}

func (s *ForumService) Login(ctx context.Context, in *forumv1.LoginRequest) (*forumv1.Session, error) {
	sess, err := s.Forum.Login(ctx, *in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &sess, nil
}

var _ forumv1.ForumServer = (*ForumService)(nil)
