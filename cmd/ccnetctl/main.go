// Command ccnetctl is a small demonstration CLI for the network façade: it
// runs a scripted scenario through network/memory.Network and logs every
// step, so the deadlock-rejection behaviour can be observed without
// writing a test. It is not a server and carries no transport of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oasisprotocol/ccnet/common/logging"
	"github.com/oasisprotocol/ccnet/common/tracing"
	"github.com/oasisprotocol/ccnet/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "ccnetctl",
		Short: "Exercise the process/thread/channel network façade",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := logging.Initialize(os.Stdout, cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			if _, err := tracing.Initialize(cfg.TracingService); err != nil {
				return err
			}
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(newDemoCmd())
	return root
}
