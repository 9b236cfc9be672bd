package internal

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"

	"github.com/aws/smithy-go/ptr"
	"github.com/fatih/color"
	"github.com/kyokomi/emoji"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/sirupsen/logrus"
)

var (
	TxtLoggerName = "root"
	TxtLog        = TxtLogger()
)

// This function returns ~/.rightstart.
// If the folder does not exist the function creates it.
func GetLogDirPath() *string {
	user, _ := user.Current()
	dir := filepath.Join(user.HomeDir, globals.RIGHTSTART_LOG_FILE_DIR_NAME)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0700)
		if err != nil {
			log.Fatalf("[-] Failed to read or create rightstart directory")
		}
	}
	return ptr.String(dir)
}

// TxtLogger - Returns the txt logger
func TxtLogger() *logrus.Logger {
	txtLogger := logrus.New()
	txtFile, err := os.OpenFile(filepath.Join(ptr.ToString(GetLogDirPath()), globals.RIGHTSTART_LOG_FILE_NAME), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file %v", err))
	}
	txtLogger.Out = txtFile
	txtLogger.SetLevel(logrus.InfoLevel)

	return txtLogger
}

type Logger struct {
	version string
	txtLog  *logrus.Logger
}

func NewLogger() Logger {
	var logger = Logger{
		version: globals.RIGHTSTART_VERSION,
		txtLog:  TxtLog,
	}
	return logger
}

func (l *Logger) Info(text string) {
	l.InfoM(text, "config")
}

func (l *Logger) InfoM(text string, module string) {
	var cyan = color.New(color.FgCyan).SprintFunc()
	fmt.Printf("[%s][%s] %s\n", cyan(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", l.version)), cyan(module), text)
}

func (l *Logger) Success(text string) {
	l.SuccessM(text, "config")
}

func (l *Logger) SuccessM(text string, module string) {
	var green = color.New(color.FgGreen).SprintFunc()
	fmt.Printf("[%s][%s] %s\n", green(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", l.version)), green(module), text)
}

func (l *Logger) Error(text string) {
	l.ErrorM(text, "config")
}

func (l *Logger) ErrorM(text string, module string) {
	var red = color.New(color.FgRed).SprintFunc()
	fmt.Printf("[%s][%s] %s\n", red(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", l.version)), red(module), text)
	l.txtLog.Printf("[%s] %s", module, text)
}

func (l *Logger) Fatal(text string) {
	l.FatalM(text, "config")
}

func (l *Logger) FatalM(text string, module string) {
	var red = color.New(color.FgRed).SprintFunc()
	l.txtLog.Printf("[%s] %s", module, text)
	fmt.Printf("[%s][%s] %s\n", red(emoji.Sprintf(":sunrise:rightstart %s :sunrise:", l.version)), red(module), text)
	os.Exit(1)
}

func CheckErr(e error, msg string) {
	if e != nil {
		TxtLog.Printf("[-] Error %s", msg)
	}
}
