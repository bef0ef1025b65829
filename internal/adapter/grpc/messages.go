package grpc

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/usecase/dashboard"
	"github.com/essentialstracker/backend/internal/usecase/essential"
)

// Messages travel as google.protobuf.Struct. Prices are decimal strings so no
// precision is lost to float64, timestamps are RFC 3339 and absent values are null.

func field(req *structpb.Struct, name string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[name]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := field(req, name)
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func optionalStringField(req *structpb.Struct, name string) *string {
	v, ok := field(req, name)
	if !ok {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

func uuidField(req *structpb.Struct, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(stringField(req, name))
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return id, nil
}

// decimalField accepts a decimal string or a JSON number
func decimalField(req *structpb.Struct, name string) (decimal.Decimal, error) {
	v, ok := field(req, name)
	if !ok {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format", name)
		}
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format", name)
	}
}

func optionalTimeField(req *structpb.Struct, name string) (*time.Time, error) {
	v, ok := field(req, name)
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return &t, nil
}

func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := field(req, name)
	if !ok {
		return 0, nil
	}
	n := v.GetNumberValue()
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s: must be an integer", name)
	}
	return int(n), nil
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatPrice(d decimal.Decimal) string {
	return d.StringFixed(domain.PricePrecision)
}

func optionalPrice(o domain.Optional[decimal.Decimal]) any {
	if v, ok := o.Get(); ok {
		return formatPrice(v)
	}
	return nil
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func essentialToMap(e *domain.Essential) map[string]any {
	m := map[string]any{
		"id":         e.ID.String(),
		"name":       e.Name,
		"category":   e.Category,
		"unit":       e.Unit,
		"icon":       e.Icon,
		"created_at": formatTime(e.CreatedAt),
		"updated_at": nil,
	}
	if e.UpdatedAt != nil {
		m["updated_at"] = formatTime(*e.UpdatedAt)
	}
	return m
}

func observationToMap(o domain.Observation) map[string]any {
	return map[string]any{
		"id":           o.ID.String(),
		"essential_id": o.EssentialID.String(),
		"price":        formatPrice(o.Value),
		"created_at":   formatTime(o.Timestamp),
		"location":     optionalString(o.Location),
		"notes":        optionalString(o.Notes),
	}
}

func observationsToList(observations []domain.Observation) []any {
	out := make([]any, 0, len(observations))
	for _, o := range observations {
		out = append(out, observationToMap(o))
	}
	return out
}

func listItemToMap(item essential.ListItem) map[string]any {
	m := essentialToMap(item.Essential)
	m["latest_price"] = optionalPrice(item.LatestPrice)
	m["latest_price_at"] = nil
	if item.LatestPriceAt != nil {
		m["latest_price_at"] = formatTime(*item.LatestPriceAt)
	}
	return m
}

func statsToValue(o domain.Optional[domain.WindowedStats]) any {
	stats, ok := o.Get()
	if !ok {
		return nil
	}

	changes := make(map[string]any, len(domain.Windows()))
	for _, w := range domain.Windows() {
		changes[string(w)] = optionalPrice(stats.Change(w))
	}

	return map[string]any{
		"current_price": formatPrice(stats.CurrentPrice),
		"latest_at":     formatTime(stats.LatestAt),
		"as_of":         formatTime(stats.AsOf),
		"changes":       changes,
		"avg_price_30d": optionalPrice(stats.AvgPrice30d),
	}
}

func chartToMap(chart *domain.Chart) map[string]any {
	switch chart.Type {
	case domain.ChartTypeCandlestick:
		candles := make([]any, 0, len(chart.Candles))
		for _, c := range chart.Candles {
			candles = append(candles, map[string]any{
				"time":  formatTime(c.PeriodStart),
				"open":  formatPrice(c.Open),
				"high":  formatPrice(c.High),
				"low":   formatPrice(c.Low),
				"close": formatPrice(c.Close),
			})
		}
		return map[string]any{"type": string(chart.Type), "candles": candles}
	default:
		points := make([]any, 0, len(chart.Line))
		for _, p := range chart.Line {
			points = append(points, map[string]any{
				"time":  formatTime(p.Time),
				"value": formatPrice(p.Value),
			})
		}
		return map[string]any{"type": string(chart.Type), "points": points}
	}
}

func overviewToList(items []dashboard.OverviewItem) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"essential": essentialToMap(item.Essential),
			"stats":     statsToValue(item.Stats),
		})
	}
	return out
}
