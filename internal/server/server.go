// Package server exposes the generated birthday calendar and a JSON dump of
// the contacts over a localhost-only HTTP listener.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-contacts/internal/config"
)

// feed is one immutable rendered payload with its HTTP caching metadata.
type feed struct {
	data         []byte
	mime         string
	etag         string
	lastModified string // RFC1123, as required by HTTP date headers
}

// FeedServer serves the calendar and contact feeds. Feeds are swapped in
// atomically: reads are frequent (every subscribed client poll) while
// updates only happen after a book mutation, so atomic.Pointer beats a
// RWMutex on the hot path.
type FeedServer struct {
	calendar atomic.Pointer[feed]
	contacts atomic.Pointer[feed]

	Port string
}

// NewFeedServer creates a server bound to the given port on localhost.
func NewFeedServer(port string) *FeedServer {
	return &FeedServer{Port: port}
}

// UpdateCalendar atomically replaces the served ICS payload.
func (s *FeedServer) UpdateCalendar(data []byte) {
	s.update(&s.calendar, data, config.MimeTextCalendar)
}

// UpdateContacts atomically replaces the served JSON payload.
func (s *FeedServer) UpdateContacts(data []byte) {
	s.update(&s.contacts, data, config.MimeJSON)
}

func (s *FeedServer) update(slot *atomic.Pointer[feed], data []byte, mime string) {
	hash := sha256.Sum256(data)
	item := &feed{
		data:         data,
		mime:         mime,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
	slot.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
}

// Start runs the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *FeedServer) Start(ctx context.Context) error {
	if err := config.ValidatePort(s.Port); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteCalendar, s.handleFeed(&s.calendar))
	mux.HandleFunc(config.RouteContacts, s.handleFeed(&s.contacts))

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      mux,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// handleFeed builds a handler serving one feed slot with conditional-GET
// support.
func (s *FeedServer) handleFeed(slot *atomic.Pointer[feed]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set(config.HeaderAllow, config.AllowedMethods)
			http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
			return
		}

		item := slot.Load()
		if item == nil {
			w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
			http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set(config.HeaderContentType, item.mime)
		w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
		w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
		w.Header().Set(config.HeaderETag, item.etag)
		w.Header().Set(config.HeaderLastModified, item.lastModified)

		if notModified(r, item) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if r.Method == http.MethodGet {
			if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
				slog.Error(config.ErrWriteResp,
					config.LogKeyComponent, config.CompServer,
					config.LogKeyError, err,
				)
			}
		}
	}
}

// notModified evaluates If-None-Match and If-Modified-Since against the feed.
func notModified(r *http.Request, item *feed) bool {
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		return true
	}

	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" {
		return false
	}
	clientTime, err := time.Parse(http.TimeFormat, since)
	if err != nil {
		return false
	}
	serverTime, err := time.Parse(http.TimeFormat, item.lastModified)
	if err != nil {
		return false
	}
	return !serverTime.After(clientTime)
}
