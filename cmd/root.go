package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands,
// grounded on encodeous-nylon/cmd/root.go.
var rootCmd = &cobra.Command{
	Use:   "sospf",
	Short: "Simulated OSPF-like link-state routing node",
	Long: `sospf runs a single simulated link-state routing node: it peers with
other sospf processes over TCP, floods link-state advertisements, and
computes shortest paths over the resulting graph by Dijkstra's algorithm.`,
}

// Execute adds all child commands to the root command and runs it. This
// is called by main.main(); it only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "node", Title: "Node Commands"})
}
