// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X firestige.xyz/pktgate/cmd.Version=...".
var Version = "0.1.0"

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pktgate",
		Short: "pktgate - per-frame ICMP echo pass/drop gate",
		Long: `pktgate classifies Ethernet frames as Pass or Drop.

Frames are parsed through Ethernet, up to two stacked VLAN tags, IPv4 or
IPv6, and ICMP or ICMPv6. Echo messages with an odd sequence number pass,
even ones are dropped. Any frame that cannot be parsed that far passes.

Passed frames are forwarded to the configured sinks (console, pcap, kafka).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func addConfigFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "config", "c", "/etc/pktgate/config.yml", "config file path")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pktgate %s\n", Version)
		},
	}
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
