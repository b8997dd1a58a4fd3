package director

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

func TestScoreDirector_Tracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	d, c := newCloudDirector(t, WithTracer(telemetry.NewTracerWithProvider(tp, "plancore-test")))

	if _, err := d.CalculateScore(); err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if err := d.BeforeVariableChanged(c.processes[2], "computer"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.CalculateScore(); core.CodeOf(err) != core.ErrCodeScoreWhileMutating {
		t.Fatalf("CalculateScore() while mutating error = %v", err)
	}
	if err := d.AfterVariableChanged(c.processes[2], "computer"); err != nil {
		t.Fatal(err)
	}

	type span struct {
		Name string
		Code codes.Code
	}
	var got []span
	for _, s := range rec.Ended() {
		got = append(got, span{Name: s.Name(), Code: s.Status().Code})
	}
	want := []span{
		{"score_director.set_working_solution", codes.Ok},
		{"score_director.calculate_score", codes.Ok},
		{"score_director.calculate_score", codes.Error},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ended spans mismatch (-want +got):\n%s", diff)
	}
}
