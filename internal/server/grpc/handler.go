package grpc

import (
	"context"
	"fmt"

	"github.com/p1nk23/TgBot/internal/api"
	"github.com/p1nk23/TgBot/internal/server/models"
	"github.com/p1nk23/TgBot/internal/server/navigation"
	"github.com/p1nk23/TgBot/internal/server/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Handle(ctx context.Context, req *api.CommandRequest) (*api.ViewResponse, error) {
	ownerID, ok := ownerFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	in, err := toIntent(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	key := session.Key{OwnerID: ownerID, Conversation: req.Conversation}
	view, err := s.navigator.Handle(ctx, key, in)
	if err != nil {
		s.logger.Error(ctx, "navigator error", "owner", ownerID, "intent", req.Intent, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return fromView(view), nil
}

// toIntent decodes the wire form of a command.
func toIntent(req *api.CommandRequest) (navigation.Intent, error) {
	switch req.Intent {
	case navigation.ShowListing{}.Name():
		return navigation.ShowListing{}, nil
	case navigation.Start{}.Name():
		return navigation.Start{}, nil
	case navigation.Menu{}.Name():
		return navigation.Menu{}, nil
	case navigation.Add{}.Name():
		return navigation.Add{}, nil
	case navigation.AddContent{}.Name():
		return navigation.AddContent{Text: req.Text}, nil
	case navigation.AddAttachment{}.Name():
		k, err := models.ParseAttachmentKind(req.Kind)
		if err != nil {
			return nil, err
		}
		return navigation.AddAttachment{Kind: k, MediaReference: req.MediaReference, Caption: req.Caption}, nil
	case navigation.Delete{}.Name():
		return navigation.Delete{ID: req.NodeID}, nil
	case navigation.Edit{}.Name():
		return navigation.Edit{ID: req.NodeID}, nil
	case navigation.EditContent{}.Name():
		return navigation.EditContent{Text: req.Text}, nil
	case navigation.Search{}.Name():
		return navigation.Search{}, nil
	case navigation.SearchQuery{}.Name():
		return navigation.SearchQuery{Text: req.Text}, nil
	case navigation.Descend{}.Name():
		return navigation.Descend{ID: req.NodeID}, nil
	case navigation.AscendToRoot{}.Name():
		return navigation.AscendToRoot{}, nil
	case navigation.ViewAttachment{}.Name():
		return navigation.ViewAttachment{ID: req.NodeID}, nil
	case navigation.Text{}.Name():
		return navigation.Text{Text: req.Text}, nil
	case navigation.RequestUpload{}.Name():
		k, err := models.ParseAttachmentKind(req.Kind)
		if err != nil {
			return nil, err
		}
		return navigation.RequestUpload{Kind: k}, nil
	default:
		return nil, fmt.Errorf("unknown intent %q", req.Intent)
	}
}

func fromView(v *navigation.View) *api.ViewResponse {
	resp := &api.ViewResponse{Messages: v.Messages}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}

	for _, it := range v.Items {
		item := api.Item{ID: it.ID, Label: it.Label}
		if it.Kind != nil {
			item.Kind = it.Kind.String()
		}
		for _, a := range it.Affordances {
			item.Affordances = append(item.Affordances, string(a))
		}
		resp.Items = append(resp.Items, item)
	}
	for _, a := range v.Actions {
		resp.Actions = append(resp.Actions, string(a))
	}

	if v.Attachment != nil {
		resp.Attachment = &api.Attachment{
			MediaReference: v.Attachment.MediaReference,
			Kind:           v.Attachment.Kind.String(),
			Caption:        v.Attachment.Caption,
			URL:            v.Attachment.URL,
		}
	}
	if v.Upload != nil {
		resp.Upload = &api.Upload{
			MediaReference: v.Upload.MediaReference,
			Kind:           v.Upload.Kind.String(),
			URL:            v.Upload.URL,
		}
	}
	return resp
}
