package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordParse("MT5", 10, 2)
	m.RecordParse("MT5", 5, 0)
	m.RecordTrade("MT5", "trade")
	m.RecordParseFailure()
	m.RecordReport(1700000000)
	m.RecordStored("postgres")
	m.RecordSimulation(1000)
	m.RecordDBQuery("postgres", "insert", 0.01, errors.New("boom"))
	m.RecordDBQuery("postgres", "insert", 0.01, nil)
	m.RecordHTTPRequest("GET", "/health", 200)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"rows parsed", testutil.ToFloat64(m.RowsParsed.WithLabelValues("MT5")), 15},
		{"rows skipped", testutil.ToFloat64(m.RowsSkipped.WithLabelValues("MT5")), 2},
		{"trades", testutil.ToFloat64(m.TradesParsed.WithLabelValues("MT5", "trade")), 1},
		{"parse failures", testutil.ToFloat64(m.ParseFailures), 1},
		{"reports", testutil.ToFloat64(m.ReportsGenerated), 1},
		{"last report", testutil.ToFloat64(m.LastSuccessfulReport), 1700000000},
		{"stored", testutil.ToFloat64(m.ReportsStored.WithLabelValues("postgres")), 1},
		{"simulation runs", testutil.ToFloat64(m.SimulationRuns), 1000},
		{"db errors", testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert")), 1},
		{"http", testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), false, "test", nil)
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInitTracing_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), true, "test", &buf)
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}

	_, span := StartSpan(context.Background(), "parse", attribute.String("platform", "MT5"))
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"parse"`)) {
		t.Errorf("exported spans missing span name: %s", buf.String())
	}
}
