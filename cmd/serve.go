package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/api"
	"github.com/sells-group/curbside/internal/cache"
	"github.com/sells-group/curbside/internal/dataset"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the curb lookup HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loc, err := cfg.Region.Location()
		if err != nil {
			return err
		}

		manifest, src, err := loadDataset()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := []api.Option{
			api.WithStore(st),
			api.WithLocation(loc),
		}

		if cfg.Cache.Addr != "" {
			lc := cache.New(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL())
			if err := lc.Ping(ctx); err != nil {
				return err
			}
			defer lc.Close()
			opts = append(opts, api.WithCache(lc))
		}

		// Background dataset refresh; failures keep the current snapshot.
		go dataset.NewRefresher(manifest, src).Run(ctx)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port()),
			Handler: api.NewServer(src, opts...).Router(cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func port() int {
	if servePort != 0 {
		return servePort
	}
	return cfg.Server.Port
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
