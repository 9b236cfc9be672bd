package console

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/rightstart-io/rightstart/globals"
)

const clearln = "\r\x1b[2K"

var (
	cyan  = color.New(color.FgCyan).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

type CommandCounter struct {
	Total     int
	Pending   int
	Complete  int
	Error     int
	Executing int
}

func SpinUntil(callingModuleName string, counter *CommandCounter, done chan bool, spinType string) {
	defer close(done)
	logFile := filepath.Join(os.Getenv("HOME"), globals.RIGHTSTART_LOG_FILE_DIR_NAME, globals.RIGHTSTART_LOG_FILE_NAME)
	for {
		select {
		case <-time.After(1 * time.Second):
			fmt.Printf(clearln+"[%s] Status: %d/%d %s complete (%d errors -- For details check %s)", cyan(callingModuleName), counter.Complete, counter.Total, spinType, counter.Error, logFile)
		case <-done:
			fmt.Printf(clearln+"[%s] Status: %d/%d %s complete (%d errors -- For details check %s)\n", green(callingModuleName), counter.Complete, counter.Complete, spinType, counter.Error, logFile)
			done <- true
			return
		}
	}
}
