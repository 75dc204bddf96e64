package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sir_venger/upload_lite/pkg/uploadclient"
)

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:          "uploadctl",
	Short:        "Chunked upload client",
	Long:         "Command line client for the chunked upload server",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	def := os.Getenv("UPLOAD_SERVER")
	if def == "" {
		def = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", def, "upload server base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newStateCmd())
}

func newClient(opts ...uploadclient.Option) *uploadclient.Client {
	opts = append([]uploadclient.Option{uploadclient.WithLogger(logrus.WithField("component", "uploadctl"))}, opts...)
	return uploadclient.New(serverURL, opts...)
}
