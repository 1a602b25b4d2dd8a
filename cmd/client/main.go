// Command emclient reads commands from stdin and sends each one to the
// event scheduling server, logging results to <name>_HHMMSS.log.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/event-manager/internal/client"
	"github.com/Shivanand-hulikatti/event-manager/internal/config"
	"github.com/Shivanand-hulikatti/event-manager/internal/console"
	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
)

const usage = "Usage: emClient clientName serverAddress serverPort"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "emclient: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "emclient clientName serverAddress serverPort",
		Short:         "Event scheduling client",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				fmt.Fprintln(cmd.OutOrStdout(), usage)
				return nil
			}
			return run(cmd, args[0], args[1], args[2])
		},
	}
}

func run(cmd *cobra.Command, name, host, portArg string) error {
	port, err := config.ParsePort(portArg)
	if err != nil {
		return err
	}

	logger := appLog.New(name + "_" + time.Now().Format("150405") + ".log")
	if err := logger.Open(); err != nil {
		return err
	}
	defer logger.Close()

	session := client.NewSession(name, net.JoinHostPort(host, fmt.Sprint(port)), logger)
	in := console.NewReader(cmd.InOrStdin())
	for line := range in.Lines() {
		done, err := session.Execute(cmd.Context(), line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	if err := in.Err(); err != nil {
		_ = logger.Append("ERROR\tread\t" + err.Error() + ".")
		return err
	}
	return nil
}
