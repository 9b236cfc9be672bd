package main

import (
	"os"

	"github.com/rightstart-io/rightstart/cli"
	"github.com/rightstart-io/rightstart/globals"
	"github.com/rightstart-io/rightstart/internal"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:     os.Args[0],
		Version: globals.RIGHTSTART_VERSION,
	}
)

func main() {
	rootCmd.AddCommand(cli.AWSCommands)
	internal.CheckErr(rootCmd.Execute(), "command returned an error")
}
