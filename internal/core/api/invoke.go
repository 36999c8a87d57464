package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/aepbridge/internal/core/auth"
	"github.com/solatis/aepbridge/internal/core/db"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// Invoke handles one host call. The request is {module, method, args} and
// the response {result, callId}.
func (s *BridgeService) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	module := fields[FieldModule].GetStringValue()
	method := fields[FieldMethod].GetStringValue()
	callID := types.NewCallID()

	ctx, span := s.tracer.Start(ctx, "aepbridge.Invoke",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("aepbridge.module", module),
			attribute.String("aepbridge.method", method),
			attribute.String("aepbridge.call_id", string(callID)),
		))
	defer span.End()

	start := time.Now()
	result, c, err := s.invoke(ctx, req, module, method)
	if err == nil && c != nil {
		c.degrade(metrics.ReasonEntryDropped, result.StructCollisions(), "stage", "result")
	}
	elapsed := time.Since(start)

	err = toStatus(module, method, err)
	code := status.Code(err)

	degraded := 0
	if c != nil {
		degraded = c.degradedTotal()
		for reason, n := range c.degraded {
			s.metrics.RecordDegraded(reason, n)
		}
	}
	labelModule, labelMethod := s.metricLabels(module, method)
	s.metrics.RecordCall(labelModule, labelMethod, code.String(), elapsed)
	span.SetAttributes(attribute.Int("aepbridge.degraded", degraded))

	rec := db.CallRecord{
		CallID:     string(callID),
		AppID:      auth.AppIDFromContext(ctx),
		Module:     module,
		Method:     method,
		Status:     code.String(),
		Degraded:   degraded,
		DurationUS: elapsed.Microseconds(),
		CreatedAt:  start.UTC(),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		rec.ErrorMessage = status.Convert(err).Message()
		s.journal.Record(ctx, rec)
		s.logFailure(module, method, code, err)
		return nil, err
	}

	s.journal.Record(ctx, rec)
	s.logger.Debug("bridge call",
		"call_id", callID, "module", module, "method", method,
		"degraded", degraded, "duration", elapsed)

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldResult: wire.ToProto(result),
		FieldCallID: structpb.NewStringValue(string(callID)),
	}}, nil
}

// Call runs module.method in process, without transport or journaling.
func (s *BridgeService) Call(ctx context.Context, module, method string, args ...wire.Value) (wire.Value, error) {
	v, _, err := s.dispatch(ctx, module, method, args)
	return v, toStatus(module, method, err)
}

func (s *BridgeService) invoke(ctx context.Context, req *structpb.Struct, module, method string) (wire.Value, *call, error) {
	if size := proto.Size(req); size > s.cfg.MaxPayloadSize {
		return wire.Null(), nil, fmt.Errorf("%w: %d bytes exceeds %d", types.ErrPayloadTooLarge, size, s.cfg.MaxPayloadSize)
	}
	if module == "" || method == "" {
		return wire.Null(), nil, fmt.Errorf("%w: %s and %s are required", types.ErrInvalidArgument, FieldModule, FieldMethod)
	}
	args, err := decodeArgs(req.GetFields()[FieldArgs])
	if err != nil {
		return wire.Null(), nil, err
	}
	return s.dispatch(ctx, module, method, args)
}

// decodeArgs converts the args list. A missing or null list means no arguments.
func decodeArgs(v *structpb.Value) ([]wire.Value, error) {
	if v == nil {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s must be a list", types.ErrInvalidArgument, FieldArgs)
	}
	if len(list.Values) > types.MaxArgs {
		return nil, fmt.Errorf("%w: %d exceeds %d", types.ErrTooManyArgs, len(list.Values), types.MaxArgs)
	}

	args := make([]wire.Value, len(list.Values))
	for i, pv := range list.Values {
		args[i] = wire.FromProto(pv)
		if args[i].Depth() > types.MaxNestingDepth {
			return nil, fmt.Errorf("%w: argument %d", types.ErrNestingTooDeep, i)
		}
	}
	return args, nil
}

func (s *BridgeService) dispatch(ctx context.Context, module, method string, args []wire.Value) (wire.Value, *call, error) {
	methods, ok := s.handlers[module]
	if !ok {
		return wire.Null(), nil, fmt.Errorf("%w: module %q", types.ErrUnknownMethod, module)
	}
	h, ok := methods[method]
	if !ok {
		return wire.Null(), nil, fmt.Errorf("%w: %s.%s", types.ErrUnknownMethod, module, method)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	c := newCall(module, method, args, s.logger)
	v, err := h(ctx, c)
	return v, c, err
}

// metricLabels collapses unregistered names to keep label cardinality bounded.
func (s *BridgeService) metricLabels(module, method string) (string, string) {
	if _, ok := s.handlers[module][method]; !ok {
		return "unknown", "unknown"
	}
	return module, method
}

func (s *BridgeService) logFailure(module, method string, code codes.Code, err error) {
	level := slog.LevelDebug
	if code == codes.Internal || code == codes.Unavailable {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "bridge call failed",
		"module", module, "method", method, "code", code.String(), "error", err)
}
