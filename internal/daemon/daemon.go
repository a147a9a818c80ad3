// Package daemon wires the configured components together and runs the
// HTTP server until its context is cancelled.
package daemon

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"traveldiary/internal/config"
	"traveldiary/internal/db"
	"traveldiary/internal/geocode"
	"traveldiary/internal/httpapi"
	"traveldiary/internal/metrics"
	"traveldiary/internal/photostore"
	"traveldiary/internal/webui"
)

// ShutdownTimeout bounds how long in-flight requests may drain.
const ShutdownTimeout = 10 * time.Second

type Options struct {
	Config config.Config
	Logger *slog.Logger
	// Listener overrides binding Config.HTTP.Bind:Port. Used by tests.
	Listener net.Listener
	// Ready, if set, receives the bound address once the server accepts.
	Ready chan<- string
}

func Run(ctx context.Context, opt Options) error {
	c := opt.Config
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}
	if c.DB.Path == "" {
		return errors.New("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(c.DB.Path), 0o700); err != nil {
		return err
	}
	d, err := db.Open(ctx, c.DB.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer d.Close()

	n, err := d.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		lg.Warn("no users yet; run setup to create an admin account")
	}

	photos, err := photostore.New(c.Uploads.Dir, int64(c.HTTP.MaxUploadMB)<<20)
	if err != nil {
		return err
	}
	pages, err := webui.NewRenderer()
	if err != nil {
		return err
	}

	key := []byte(c.SecretKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return err
		}
		lg.Warn("secret_key is not set; using a random key, flash messages will not survive a restart")
	}

	secure := c.HTTP.CookieSecure || c.TLSEnabled()
	api := &httpapi.Server{
		DB:       d,
		Sessions: &httpapi.Sessions{DB: d, TTL: c.Session.TTL, Secure: secure, Logger: lg},
		Flashes:  &httpapi.Flashes{Key: key, Secure: secure},
		Geocoder: geocode.New(geocode.Options{
			BaseURL:   c.Geocoder.BaseURL,
			UserAgent: c.Geocoder.UserAgent,
			Timeout:   c.Geocoder.Timeout,
		}),
		Photos:         photos,
		Pages:          pages,
		Metrics:        metrics.New(),
		Logger:         lg,
		MaxUploadBytes: int64(c.HTTP.MaxUploadMB)<<20 + 1<<20,
	}
	h, err := api.Handler()
	if err != nil {
		return err
	}

	ln := opt.Listener
	if ln == nil {
		addr := net.JoinHostPort(c.HTTP.Bind, strconv.Itoa(c.HTTP.Port))
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return err
		}
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(lg.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		if c.TLSEnabled() {
			errCh <- srv.ServeTLS(ln, c.HTTP.TLS.CertPath, c.HTTP.TLS.KeyPath)
			return
		}
		errCh <- srv.Serve(ln)
	}()
	lg.Info("listening", "addr", ln.Addr().String(), "tls", c.TLSEnabled(), "db", c.DB.Path, "uploads", photos.Dir())
	if opt.Ready != nil {
		opt.Ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
