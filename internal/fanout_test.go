package internal

import (
	"fmt"
	"testing"

	"github.com/rightstart-io/rightstart/console"
)

func TestFanOutDrainsEveryUnit(t *testing.T) {
	var units []string
	for i := 0; i < 10; i++ {
		units = append(units, fmt.Sprintf("unit-%d", i))
	}

	counter := console.CommandCounter{}
	fanOut := FanOut{CallingModule: "fanout-test", Goroutines: 3}
	results := fanOut.Run(units, &counter, func(unit string) error {
		if unit == "unit-5" {
			return fmt.Errorf("simulated failure")
		}
		return nil
	})

	if len(results) != len(units) {
		t.Fatalf("expected %d results, got %d", len(units), len(results))
	}

	failed := Failures(results)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if failed[0].Unit != "unit-5" {
		t.Errorf("expected unit-5 to fail, got %s", failed[0].Unit)
	}

	if counter.Complete != len(units) {
		t.Errorf("expected %d complete, got %d", len(units), counter.Complete)
	}
	if counter.Error != 1 {
		t.Errorf("expected 1 error, got %d", counter.Error)
	}
	if counter.Executing != 0 {
		t.Errorf("expected 0 executing after drain, got %d", counter.Executing)
	}
}

func TestFanOutZeroGoroutinesStillRuns(t *testing.T) {
	fanOut := FanOut{CallingModule: "fanout-test", Goroutines: 0}
	results := fanOut.Run([]string{"only"}, nil, func(unit string) error {
		return nil
	})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected one clean result, got %+v", results)
	}
}
