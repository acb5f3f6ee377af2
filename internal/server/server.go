package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"subkeep/internal/auth"
	"subkeep/internal/backup"
	"subkeep/internal/store"
)

const (
	allowRemoteEnvKey     = "SUBKEEP_ALLOW_REMOTE"
	readHeaderTimeout     = 5 * time.Second
	readTimeout           = 30 * time.Second
	writeTimeout          = 120 * time.Second
	idleTimeout           = 60 * time.Second
	backupConcurrency     = 1
	storageImportParallel = 1
)

// Store is the persistence the API needs.
type Store interface {
	store.ResourceStore
	store.StateStore
}

// BackupRunner executes one backup action.
type BackupRunner interface {
	Run(ctx context.Context, action backup.Action) error
}

// Options configures a Server.
type Options struct {
	Addr     string
	DBPath   string
	Store    Store
	Backup   BackupRunner
	Migrator backup.Migrator
	Verifier auth.Verifier
	Logger   *slog.Logger
}

// Server wraps HTTP handlers for the subkeep API.
type Server struct {
	addr          string
	dbPath        string
	store         Store
	backup        BackupRunner
	migrator      backup.Migrator
	verifier      auth.Verifier
	logger        *slog.Logger
	backupLimiter chan struct{}
	importLimiter chan struct{}
}

// New creates a new server instance.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:          opts.Addr,
		dbPath:        opts.DBPath,
		store:         opts.Store,
		backup:        opts.Backup,
		migrator:      opts.Migrator,
		verifier:      opts.Verifier,
		logger:        logger,
		backupLimiter: make(chan struct{}, backupConcurrency),
		importLimiter: make(chan struct{}, storageImportParallel),
	}
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.withAuth(s.routes()))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr, "auth", s.verifier.Enabled())
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("a %s is already running", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
