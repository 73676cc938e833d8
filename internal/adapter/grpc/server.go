package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/moneyjar/internal/auth"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/usecase/disposable"
	"github.com/simaogato/moneyjar/internal/usecase/investment"
	"github.com/simaogato/moneyjar/internal/usecase/networth"
)

// QueryServiceName is the fully qualified name of the read-only query service
const QueryServiceName = "moneyjar.v1.Query"

// QueryServer is the read-only query service. Requests and responses are
// google.protobuf.Struct messages; decimals travel as strings.
type QueryServer interface {
	GetNetWorth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetMonthSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetPortfolio(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// QueryServiceDesc describes the query service for grpc.Server registration
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: QueryServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetNetWorth", Handler: unaryHandler("GetNetWorth", QueryServer.GetNetWorth)},
		{MethodName: "GetMonthSummary", Handler: unaryHandler("GetMonthSummary", QueryServer.GetMonthSummary)},
		{MethodName: "GetPortfolio", Handler: unaryHandler("GetPortfolio", QueryServer.GetPortfolio)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "moneyjar/v1/query.proto",
}

// RegisterQueryServer registers srv on the given registrar
func RegisterQueryServer(r grpc.ServiceRegistrar, srv QueryServer) {
	r.RegisterService(&QueryServiceDesc, srv)
}

type queryMethod func(QueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call queryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QueryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + QueryServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(QueryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server implements QueryServer on top of the services
type Server struct {
	NetWorthService   *networth.NetWorthService
	DisposableService *disposable.DisposableService
	InvestmentService *investment.InvestmentService
}

// NewServer creates a new gRPC server instance
func NewServer(
	netWorthService *networth.NetWorthService,
	disposableService *disposable.DisposableService,
	investmentService *investment.InvestmentService,
) *Server {
	return &Server{
		NetWorthService:   netWorthService,
		DisposableService: disposableService,
		InvestmentService: investmentService,
	}
}

var _ QueryServer = (*Server)(nil)

// GetNetWorth handles the GetNetWorth RPC
func (s *Server) GetNetWorth(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.NetWorthService.Summary(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(netWorthFields(summary))
}

// GetMonthSummary handles the GetMonthSummary RPC. The request carries {"month": "YYYY-MM"}.
func (s *Server) GetMonthSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	raw := req.GetFields()["month"].GetStringValue()
	month, err := domain.ParseMonth(raw)
	if err != nil {
		return nil, mapError(err)
	}
	summary, err := s.DisposableService.MonthSummary(ctx, userID, month)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(summaryFields(summary))
}

// GetPortfolio handles the GetPortfolio RPC
func (s *Server) GetPortfolio(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	portfolio, err := s.InvestmentService.Portfolio(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(portfolioFields(portfolio))
}

func requireUser(ctx context.Context) (string, error) {
	userID, ok := auth.UserID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing user")
	}
	return userID, nil
}

func toStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func netWorthFields(s *networth.Summary) map[string]interface{} {
	breakdown := make([]interface{}, 0, len(s.Breakdown))
	for _, b := range s.Breakdown {
		breakdown = append(breakdown, map[string]interface{}{
			"type":   b.Type,
			"amount": b.Amount.String(),
		})
	}
	accounts := make([]interface{}, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		accounts = append(accounts, map[string]interface{}{
			"id":        a.Account.ID.String(),
			"name":      a.Account.Name,
			"type":      a.Account.Type,
			"currency":  a.Account.Currency,
			"balance":   a.Account.Balance.String(),
			"rate":      a.Rate.String(),
			"converted": a.Converted.String(),
		})
	}
	return map[string]interface{}{
		"currency":    s.Currency,
		"net_worth":   s.NetWorth.String(),
		"formatted":   domain.FormatAmount(s.NetWorth, s.Currency),
		"assets":      s.Assets.String(),
		"liabilities": s.Liabilities.String(),
		"breakdown":   breakdown,
		"accounts":    accounts,
	}
}

func summaryFields(s *disposable.Summary) map[string]interface{} {
	rows := make([]interface{}, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, map[string]interface{}{
			"name":      r.Name,
			"budget":    r.Budget.String(),
			"jar":       r.Jar.String(),
			"jar_only":  r.JarOnly,
			"allocated": r.Allocated().String(),
			"used":      r.Used.String(),
			"overage":   r.Overage.String(),
			"remaining": r.Remaining.String(),
		})
	}
	unbudgeted := make(map[string]interface{}, len(s.Unbudgeted))
	for name, amount := range s.Unbudgeted {
		unbudgeted[name] = amount.String()
	}
	return map[string]interface{}{
		"month":            s.Month.String(),
		"rows":             rows,
		"total_disposable": s.TotalDisposable.String(),
		"income":           s.Income.String(),
		"expense":          s.Expense.String(),
		"remaining":        s.Remaining.String(),
		"unbudgeted":       unbudgeted,
	}
}

func portfolioFields(p *investment.Portfolio) map[string]interface{} {
	holdings := make([]interface{}, 0, len(p.Holdings))
	for _, hv := range p.Holdings {
		h := hv.Holding
		fields := map[string]interface{}{
			"id":                h.ID.String(),
			"broker_account_id": h.BrokerAccountID.String(),
			"ticker":            h.Ticker,
			"name":              h.Name,
			"market":            h.Market,
			"quantity":          h.Quantity.String(),
			"average_cost":      h.AverageCost.String(),
			"current_price":     h.CurrentPrice.String(),
			"cost_basis":        hv.ProfitLoss.CostBasis.String(),
			"market_value":      hv.ProfitLoss.MarketValue.String(),
			"unrealized":        hv.ProfitLoss.Unrealized.String(),
			"percent":           hv.ProfitLoss.Percent.String(),
		}
		if h.PriceUpdatedAt != nil {
			fields["price_updated_at"] = h.PriceUpdatedAt.UTC().Format(time.RFC3339)
		}
		holdings = append(holdings, fields)
	}
	return map[string]interface{}{
		"holdings":         holdings,
		"total_cost":       p.TotalCost.String(),
		"total_value":      p.TotalValue.String(),
		"total_unrealized": p.TotalUnrealized.String(),
		"percent":          p.Percent.String(),
	}
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, domain.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	default:
		return status.Errorf(codes.Internal, "%s", err.Error())
	}
}
