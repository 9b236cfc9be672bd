package internal

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/aquasecurity/table"
	"github.com/aws/smithy-go/ptr"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh/terminal"
)

var fileSystem = afero.NewOsFs()

type OutputData2 struct {
	Headers       []string
	Body          [][]string
	FilePath      string
	FullFilename  string
	CallingModule string
	Verbosity     int
	Directory     string
}

// verbosity = 1 (Output printed to file).
// verbosity = 2 (Output printed to file, output printed to screen).
// outputType = "table", "csv"
// prefixIdentifier = this string gets printed with control messages from the calling module (e.g. aws profile)
func OutputSelector(verbosity int, outputType string, header []string, body [][]string, outputDirectory string, fileName string, callingModule string, wrapTable bool, prefixIdentifier string) {

	if verbosity >= 2 {
		PrintTableToScreen(header, body, wrapTable)
	}

	switch outputType {
	case "csv":
		outputFileCSV := createOutputFile(
			ptr.String(filepath.Join(outputDirectory, "csv")),
			ptr.String(fmt.Sprintf("%s.csv", fileName)),
			outputType,
			callingModule)
		printCSVtoFile(header, body, outputFileCSV)
		fmt.Printf("[%s][%s] Output written to [%s]\n", cyan(callingModule), cyan(prefixIdentifier), outputFileCSV.Name())

	default:
		outputFileTable := createOutputFile(
			ptr.String(filepath.Join(outputDirectory, "table")),
			ptr.String(fmt.Sprintf("%s.txt", fileName)),
			outputType,
			callingModule)
		printTableToFile(header, body, outputFileTable)
		fmt.Printf("[%s][%s] Output written to [%s]\n", cyan(callingModule), cyan(prefixIdentifier), outputFileTable.Name())
	}
}

func printCSVtoFile(header []string, body [][]string, outputFile afero.File) {
	csvWriter := csv.NewWriter(outputFile)
	csvWriter.Write(header)
	for _, row := range body {
		csvWriter.Write(row)
	}
	csvWriter.Flush()
}

func printTableToFile(header []string, body [][]string, outputFile afero.File) {
	t := table.New(outputFile)
	t.SetHeaders(header...)
	t.AddRows(body...)
	t.SetRowLines(false)
	t.SetDividers(table.UnicodeRoundedDividers)
	t.SetAlignment(table.AlignLeft)
	t.Render()
}

func PrintTableToScreen(header []string, body [][]string, wrapLines bool) {
	standardColumnWidth := 1000
	t := table.New(os.Stdout)
	if wrapLines {
		terminalWidth, _, err := terminal.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			fmt.Println("error getting terminal size:", err)
			return
		}
		columnCount := len(header)
		// The offset value was defined by trial and error to get the best wrapping
		trialAndErrorOffset := 1
		standardColumnWidth = terminalWidth / (columnCount + trialAndErrorOffset)
	}
	t.SetColumnMaxWidth(standardColumnWidth)
	t.SetHeaders(header...)
	t.AddRows(body...)
	t.SetHeaderStyle(table.StyleBold)
	t.SetRowLines(false)
	t.SetLineStyle(table.StyleCyan)
	t.SetDividers(table.UnicodeRoundedDividers)
	t.SetAlignment(table.AlignLeft)
	t.Render()
}

// The Afero library enables file system mocking:
// fileSystem = afero.NewOsFs() if not unit testing (real file system) OR
// fileSystem = afero.NewMemMapFs() for a mocked file system (when unit testing)
// outputDirectory = nil (creates the file in the current directory ".")
func createOutputFile(outputDirectory *string, fileName *string, outputType string, callingModule string) afero.File {

	if outputDirectory == nil {
		outputDirectory = ptr.String(".")
	}

	if _, err := fileSystem.Stat(ptr.ToString(outputDirectory)); os.IsNotExist(err) {
		err = fileSystem.MkdirAll(ptr.ToString(outputDirectory), 0700)
		if err != nil {
			log.Fatal(err)
		}
	}
	if fileName == nil {
		log.Fatalf("Error creating output file because no file name was specified")
	}
	outputFile, err := fileSystem.OpenFile(path.Join(ptr.ToString(outputDirectory), ptr.ToString(fileName)), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatalf("error creating output file: %s", err)
	}
	return outputFile
}

// WriteArtifactFile writes a generated artifact (Terraform backend file, SSO
// profile config) through the module file system so tests can capture it.
func WriteArtifactFile(outputPath string, contents string) error {
	dir := filepath.Dir(outputPath)
	if _, err := fileSystem.Stat(dir); os.IsNotExist(err) {
		err = fileSystem.MkdirAll(dir, 0700)
		if err != nil {
			return err
		}
	}
	return afero.WriteFile(fileSystem, outputPath, []byte(contents), 0644)
}

// ReadArtifactFile reads a previously written artifact back. Used by tests.
func ReadArtifactFile(outputPath string) (string, error) {
	data, err := afero.ReadFile(fileSystem, outputPath)
	return string(data), err
}

func MockFileSystem(switcher bool) afero.Fs {
	if switcher {
		fmt.Println("Using mocked file system")
		fileSystem = afero.NewMemMapFs()
		return fileSystem
	} else {
		fmt.Println("Using OS file system. Make sure to clean up your disk!")
		fileSystem = afero.NewOsFs()
		return fileSystem
	}
}
