package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/goldgpt/internal/httpapi"
	"github.com/suPer8Hu/goldgpt/internal/httpapi/handlers"
)

func newServeCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.HTTPAddr = addr
			}
			return runServe(cmd.Context(), e)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func runServe(ctx context.Context, e *env) error {
	gin.SetMode(gin.ReleaseMode)

	app, err := buildApp(ctx, e.cfg, e.log, buildOptions{publisher: true, limiter: true})
	if err != nil {
		return err
	}
	defer app.Close()

	h := handlers.NewHandler(handlers.Handler{
		ChatSvc:   app.Chat,
		ImageSvc:  app.Images,
		JobQueue:  app.Queue,
		PriceSvc:  app.Market,
		Catalog:   app.Catalog,
		Log:       e.log,
		ImagesURL: e.cfg.BasePath + "/images",
	})
	router := httpapi.NewRouter(h, httpapi.Options{
		BasePath:           e.cfg.BasePath,
		Limiter:            app.Limiter,
		RateLimitPerMinute: e.cfg.RateLimitPerMinute,
		SlowRequest:        e.cfg.SlowRequestThreshold,
		Log:                e.log,
	})

	srv := &http.Server{
		Addr:              e.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      e.cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("http server listening", "addr", srv.Addr, "base_path", e.cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	e.log.Info("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
