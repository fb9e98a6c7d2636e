package workflow

import (
	"context"

	"github.com/mmdatafocus/shop_ledger/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shop_ledger/workflow")

// publishLedgerEvent is swapped out in tests.
var publishLedgerEvent = config.PublishLedgerEvent

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// publish never fails the caller: the database write is the source of truth.
func publish(ctx context.Context, evt config.LedgerEvent, funcName string) {
	if _, err := publishLedgerEvent(ctx, evt); err != nil {
		config.LogError(config.GetLogger(), "workflow", funcName, "PublishLedgerEvent", evt.Action, err)
	}
}
