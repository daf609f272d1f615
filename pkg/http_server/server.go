package http_server

import (
	"context"
	"net"
	"net/http"

	"github.com/jaennil/guide_helper/backend/world/pkg/config"
)

// NewServer builds the server. Request contexts inherit ctx's values but not
// its cancellation, so Shutdown can drain in-flight requests after ctx is done.
func NewServer(ctx context.Context, cfg config.Server, handler http.Handler) *http.Server {
	base := context.WithoutCancel(ctx)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return base
		},
	}
}
