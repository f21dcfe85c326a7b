package observability

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Endpoint serves /metrics until its context is cancelled.
type Endpoint struct {
	listenAddress string
	metrics       *Metrics
	log           logger.Logger
}

// NewEndpoint creates an endpoint listening on listenAddress.
func NewEndpoint(listenAddress string, m *Metrics) (*Endpoint, error) {
	if listenAddress == "" {
		return nil, errors.Newf("telemetry listen address is empty").
			Component("observability").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &Endpoint{
		listenAddress: listenAddress,
		metrics:       m,
		log:           logger.Global().Module("telemetry"),
	}, nil
}

// Run serves until ctx is done, then shuts the server down.
func (e *Endpoint) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryNetwork).
			Context("address", e.listenAddress).
			Build()
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}
	serveErr := make(chan error, 1)
	go func() {
		e.log.Info("telemetry endpoint starting", logger.String("address", ln.Addr().String()))
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	e.log.Info("stopping telemetry endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-serveErr
	return nil
}
