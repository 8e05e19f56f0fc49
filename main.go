package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-i2p/logger"
	"github.com/spf13/cobra"

	"github.com/go-oblivion/go-oblivion/lib/client"
	"github.com/go-oblivion/go-oblivion/lib/config"
	"github.com/go-oblivion/go-oblivion/lib/parser"
	"github.com/go-oblivion/go-oblivion/lib/server"
	"github.com/go-oblivion/go-oblivion/lib/session"
)

var log = logger.GetGoI2PLogger()

var rootCmd = &cobra.Command{
	Use:   "oblivion",
	Short: "Encrypted message-framed transport over TCP",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an echo server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(config.NewServerConfigFromViper(), func(req *parser.OblivionRequest, content []byte) *session.BaseResponse {
			log.WithField("entrance", req.Entrance).Debug("Echoing request")
			return session.NewRawResponse(content, 200)
		})
		return srv.ListenAndServe(ctx)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <addr> <header> [payload]",
	Short: "Send one message and print the response",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := ""
		if len(args) == 3 {
			payload = args[2]
		}

		resp, err := client.Request(args[0], args[1], []byte(payload), 200)
		if err != nil {
			return err
		}
		fmt.Printf("%d %s\n", resp.Status, resp.Plain())
		return nil
	},
}

func init() {
	cobra.OnInitialize(config.InitConfig)
	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default $HOME/.go-oblivion/config.yaml)")
	rootCmd.AddCommand(serveCmd, sendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("oblivion failed: %s", err)
		os.Exit(1)
	}
}
