package internal

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/rightstart-io/rightstart/console"
)

var red = color.New(color.FgRed).SprintFunc()

// UnitResult is the per-unit bookkeeping of a fan-out run. Err is nil for
// units that completed.
type UnitResult struct {
	Unit string
	Err  error
}

// FanOut runs one action per unit on a bounded pool of goroutines. A failing
// unit is recorded and echoed but never cancels its siblings; Run always
// drains every submitted unit before returning. Completion order is not
// defined.
type FanOut struct {
	CallingModule string
	Goroutines    int
}

func (f *FanOut) Run(units []string, counter *console.CommandCounter, action func(unit string) error) []UnitResult {
	goroutines := f.Goroutines
	if goroutines < 1 {
		goroutines = 1
	}

	wg := new(sync.WaitGroup)
	semaphore := make(chan struct{}, goroutines)
	dataReceiver := make(chan UnitResult)
	receiverDone := make(chan bool)

	var results []UnitResult
	go func() {
		defer close(receiverDone)
		for data := range dataReceiver {
			results = append(results, data)
		}
	}()

	for _, unit := range units {
		wg.Add(1)
		if counter != nil {
			counter.Pending++
		}
		go func(unit string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			if counter != nil {
				counter.Total++
				counter.Pending--
				counter.Executing++
			}
			err := action(unit)
			if err != nil {
				if counter != nil {
					counter.Error++
				}
				fmt.Printf("[%s] Error processing %s: %s\n", red(f.CallingModule), unit, err)
				TxtLog.Printf("[%s] %s: %s", f.CallingModule, unit, err)
			}
			if counter != nil {
				counter.Executing--
				counter.Complete++
			}
			dataReceiver <- UnitResult{Unit: unit, Err: err}
		}(unit)
	}

	wg.Wait()
	close(dataReceiver)
	<-receiverDone
	return results
}

// Failures filters a result set down to the units that errored.
func Failures(results []UnitResult) []UnitResult {
	var failed []UnitResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
