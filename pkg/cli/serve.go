package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/service/mcp"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	var (
		cfg       config
		addr      string
		authToken string
		transport string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address of the HTTP server",
			Value:       ":3000",
			Sources:     cli.EnvVars("RECALL_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "auth-token",
			Usage:       "Bearer token required by the MCP endpoint",
			Sources:     cli.EnvVars("RECALL_AUTH_TOKEN"),
			Destination: &authToken,
		},
		&cli.StringFlag{
			Name:        "transport",
			Aliases:     []string{"t"},
			Usage:       "MCP transport (http, stdio)",
			Value:       "http",
			Sources:     cli.EnvVars("RECALL_TRANSPORT"),
			Destination: &transport,
		},
	}
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, loggingFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if transport == "http" && authToken == "" {
				return goerr.New("auth-token is required for http transport")
			}

			ctx, err := cfg.newLogger(ctx)
			if err != nil {
				return err
			}

			uc, err := cfg.newUseCase()
			if err != nil {
				return err
			}
			defer func() {
				if err := uc.Close(); err != nil {
					logging.From(ctx).Warn("failed to close usecase", "error", err)
				}
			}()

			logger := logging.From(ctx)
			logger.Info("durable store status", "status", uc.Status(ctx))

			server := mcp.NewServer(newRegistry(uc), version)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			switch transport {
			case "stdio":
				logger.Info("serving MCP over stdio")
				if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
					return goerr.Wrap(err, "stdio server failed")
				}
				return nil

			case "http":
				return serveHTTP(ctx, addr, mcp.NewHandler(server, authToken, uc.Status))

			default:
				return goerr.New("unsupported transport",
					goerr.V("transport", transport),
					goerr.V("supported", []string{"http", "stdio"}))
			}
		},
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	logger := logging.From(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return goerr.Wrap(err, "http server failed", goerr.V("addr", addr))
		}
		return nil

	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown http server")
		}
		return nil
	}
}
