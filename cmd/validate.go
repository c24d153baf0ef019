package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktgate/internal/config"
)

func newValidateCmd() *cobra.Command {
	var (
		path     string
		printCfg bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file without opening any source or sink.

Defaults and PKTGATE_* environment overrides are applied first, so
--print shows the configuration "run" would use.

Examples:
  pktgate validate -c config.yml
  pktgate validate -c config.yml --print`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("INVALID: %w", err)
			}
			out := cmd.OutOrStdout()
			if printCfg {
				data, err := config.Dump(cfg)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			fmt.Fprintf(out, "VALID: source %s, %d worker(s), %d sink(s)\n",
				cfg.Source.Type, cfg.Pipeline.Workers, len(cfg.Sinks))
			return nil
		},
	}
	addConfigFlag(cmd, &path)
	cmd.Flags().BoolVar(&printCfg, "print", false, "print the effective configuration as YAML")
	return cmd
}
