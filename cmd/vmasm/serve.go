package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"vmasm/pkg/server"
)

func newServeCmd() *cobra.Command {
	var (
		listen    string
		wsAddr    string
		whitelist string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assembler as a JSON-RPC 2.0 service",
		Long: `Serve answers "compile" and "disassemble" requests. By default it
speaks over standard input and output with Content-Length framing. Use
--listen for a TCP listener or --ws for a WebSocket endpoint at "/".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" && wsAddr != "" {
				return errors.New("use either --listen or --ws, not both")
			}
			wl, err := loadWhitelist(whitelist)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s := server.New(wl)
			switch {
			case listen != "":
				lis, err := net.Listen("tcp", listen)
				if err != nil {
					return err
				}
				return s.ServeTCP(ctx, lis)
			case wsAddr != "":
				return serveWebSocket(ctx, s, wsAddr)
			}
			glog.V(1).Info("serving on stdio")
			s.ServeStdio(ctx, os.Stdin, os.Stdout)
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "TCP `address` to listen on")
	cmd.Flags().StringVar(&wsAddr, "ws", "", "HTTP `address` for the WebSocket endpoint")
	cmd.Flags().StringVarP(&whitelist, "whitelist", "w", "", "default JSON whitelist for compile requests")
	return cmd
}

func serveWebSocket(ctx context.Context, s *server.Server, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.WebSocketHandler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	glog.Infof("listening for WebSocket connections on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
