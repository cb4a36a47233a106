package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/iho/charityledger/internal/adapter/grpc/charityv1"
	"github.com/iho/charityledger/internal/adapter/grpc/converter"
	grpcErrors "github.com/iho/charityledger/internal/adapter/grpc/errors"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// LifecycleService opens the charity.
type LifecycleService interface {
	Initialize(ctx context.Context, input usecase.InitializeInput) (*usecase.InitializeResult, error)
}

// DonationService accepts donations.
type DonationService interface {
	Donate(ctx context.Context, amount uint64) (*domain.Donation, error)
}

// SettlementService runs the payout.
type SettlementService interface {
	Settle(ctx context.Context) (*domain.Settlement, error)
}

// QueryService reads the charity snapshot.
type QueryService interface {
	GetCharityInfo(ctx context.Context) (*usecase.CharityInfo, error)
}

// CharityServer implements the gRPC CharityService
type CharityServer struct {
	pb.UnimplementedCharityServiceServer
	lifecycle  LifecycleService
	donations  DonationService
	settlement SettlementService
	query      QueryService
}

// NewCharityServer creates a new CharityServer
func NewCharityServer(lifecycle LifecycleService, donations DonationService, settlement SettlementService, query QueryService) *CharityServer {
	return &CharityServer{
		lifecycle:  lifecycle,
		donations:  donations,
		settlement: settlement,
		query:      query,
	}
}

// Initialize opens the charity.
func (s *CharityServer) Initialize(ctx context.Context, req *pb.InitializeRequest) (*pb.InitializeResponse, error) {
	result, err := s.lifecycle.Initialize(ctx, usecase.InitializeInput{
		Beneficiary: req.Beneficiary,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return nil, grpcErrors.MapDomainError(err)
	}

	return converter.InitializeResultToPb(result), nil
}

// Donate deposits into the treasury.
func (s *CharityServer) Donate(ctx context.Context, req *pb.DonateRequest) (*pb.DonateResponse, error) {
	amount, err := converter.ParseAmount(req.Amount)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid amount format")
	}

	donation, err := s.donations.Donate(ctx, amount)
	if err != nil {
		return nil, grpcErrors.MapDomainError(err)
	}

	return &pb.DonateResponse{Donation: converter.DonationToPb(donation)}, nil
}

// Settle pays the treasury out to the beneficiary.
func (s *CharityServer) Settle(ctx context.Context, _ *pb.SettleRequest) (*pb.SettleResponse, error) {
	settlement, err := s.settlement.Settle(ctx)
	if err != nil {
		return nil, grpcErrors.MapDomainError(err)
	}

	return &pb.SettleResponse{Settlement: converter.SettlementToPb(settlement)}, nil
}

// GetCharityInfo returns the charity snapshot.
func (s *CharityServer) GetCharityInfo(ctx context.Context, _ *pb.GetCharityInfoRequest) (*pb.GetCharityInfoResponse, error) {
	info, err := s.query.GetCharityInfo(ctx)
	if err != nil {
		return nil, grpcErrors.MapDomainError(err)
	}

	return &pb.GetCharityInfoResponse{Charity: converter.CharityToPb(info)}, nil
}
