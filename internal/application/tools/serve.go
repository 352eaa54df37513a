package tools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/domain/errs"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const shutdownTimeout = 5 * time.Second

// Serve runs s over the named transport until ctx is done or the transport
// fails. addr is used by the http transport only.
func Serve(ctx context.Context, s *server.MCPServer, transport, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch transport {
	case "", TransportStdio:
		logger.Info("serving tools", zap.String("transport", TransportStdio))
		return server.ServeStdio(s)
	case TransportHTTP:
		return serveHTTP(ctx, s, addr, logger)
	default:
		return errs.NewInvalidRequest("unsupported transport %q", transport).
			With("supported", []string{TransportStdio, TransportHTTP})
	}
}

func serveHTTP(ctx context.Context, s *server.MCPServer, addr string, logger *zap.Logger) error {
	httpServer := server.NewStreamableHTTPServer(s)

	done := make(chan error, 1)
	go func() {
		logger.Info("serving tools", zap.String("transport", TransportHTTP), zap.String("addr", addr))
		done <- httpServer.Start(addr)
	}()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("stopping tool server")
		return httpServer.Shutdown(shutdownCtx)
	}
}
