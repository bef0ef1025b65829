package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/usecase/dashboard"
	"github.com/essentialstracker/backend/internal/usecase/essential"
)

// Server implements the EssentialsService gRPC server
type Server struct {
	EssentialService *essential.EssentialService
	DashboardService *dashboard.DashboardService
}

var _ EssentialsServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	essentialService *essential.EssentialService,
	dashboardService *dashboard.DashboardService,
) *Server {
	return &Server{
		EssentialService: essentialService,
		DashboardService: dashboardService,
	}
}

// CreateEssential handles the CreateEssential RPC
func (s *Server) CreateEssential(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	created, err := s.EssentialService.Create(ctx, essential.CreateEssentialInput{
		Name:     stringField(req, "name"),
		Category: stringField(req, "category"),
		Unit:     stringField(req, "unit"),
		Icon:     stringField(req, "icon"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"essential": essentialToMap(created)})
}

// UpdateEssential handles the UpdateEssential RPC
// Fields left out of the request are not changed
func (s *Server) UpdateEssential(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "id")
	if err != nil {
		return nil, err
	}

	updated, err := s.EssentialService.Update(ctx, essential.UpdateEssentialInput{
		ID:       id,
		Name:     optionalStringField(req, "name"),
		Category: optionalStringField(req, "category"),
		Unit:     optionalStringField(req, "unit"),
		Icon:     optionalStringField(req, "icon"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"essential": essentialToMap(updated)})
}

// DeleteEssential handles the DeleteEssential RPC
func (s *Server) DeleteEssential(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "id")
	if err != nil {
		return nil, err
	}

	if err := s.EssentialService.Delete(ctx, id); err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"success": true})
}

// ListEssentials handles the ListEssentials RPC
func (s *Server) ListEssentials(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.EssentialService.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	essentials := make([]any, 0, len(items))
	for _, item := range items {
		essentials = append(essentials, listItemToMap(item))
	}

	return newResponse(map[string]any{"essentials": essentials})
}

// GetEssential handles the GetEssential RPC
func (s *Server) GetEssential(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "id")
	if err != nil {
		return nil, err
	}

	detail, err := s.EssentialService.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{
		"essential":     essentialToMap(detail.Essential),
		"price_history": observationsToList(detail.PriceHistory),
	})
}

// AddPrice handles the AddPrice RPC
func (s *Server) AddPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	essentialID, err := uuidField(req, "essential_id")
	if err != nil {
		return nil, err
	}

	price, err := decimalField(req, "price")
	if err != nil {
		return nil, err
	}

	observedAt, err := optionalTimeField(req, "created_at")
	if err != nil {
		return nil, err
	}

	obs, err := s.EssentialService.AddPrice(ctx, essential.AddPriceInput{
		EssentialID: essentialID,
		Price:       price,
		Location:    optionalStringField(req, "location"),
		Notes:       optionalStringField(req, "notes"),
		ObservedAt:  observedAt,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"price_entry": observationToMap(*obs)})
}

// GetPriceHistory handles the GetPriceHistory RPC
func (s *Server) GetPriceHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	essentialID, err := uuidField(req, "essential_id")
	if err != nil {
		return nil, err
	}

	limit, err := intField(req, "limit")
	if err != nil {
		return nil, err
	}

	history, err := s.EssentialService.GetPriceHistory(ctx, essentialID, limit)
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"price_entries": observationsToList(history)})
}

// GetStats handles the GetStats RPC
// An essential without prices answers with "stats": null
func (s *Server) GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	essentialID, err := uuidField(req, "essential_id")
	if err != nil {
		return nil, err
	}

	stats, err := s.EssentialService.GetStats(ctx, essentialID)
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"stats": statsToValue(stats)})
}

// GetChart handles the GetChart RPC
func (s *Server) GetChart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	essentialID, err := uuidField(req, "essential_id")
	if err != nil {
		return nil, err
	}

	chart, err := s.EssentialService.GetChart(ctx, essentialID, domain.ChartType(stringField(req, "type")))
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(chartToMap(chart))
}

// GetOverview handles the GetOverview RPC
func (s *Server) GetOverview(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.DashboardService.Overview(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{"items": overviewToList(items)})
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
