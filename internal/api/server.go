// Package api is the HTTP transport over the segmentation core: taxonomy
// queries, rule preview/validate/estimate, segment CRUD, attribution
// upload, and export.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/content-signals/internal/attribution"
	"github.com/ignite/content-signals/internal/classifier"
	"github.com/ignite/content-signals/internal/content"
	"github.com/ignite/content-signals/internal/export"
	"github.com/ignite/content-signals/internal/feeds"
	"github.com/ignite/content-signals/internal/pkg/logger"
	"github.com/ignite/content-signals/internal/repository/postgres"
	"github.com/ignite/content-signals/internal/segment"
	"github.com/ignite/content-signals/internal/taxonomy"
)

// Server holds the service dependencies behind the HTTP handlers.
type Server struct {
	taxonomy   *taxonomy.Service
	validator  *segment.Validator
	segments   *postgres.SegmentRepo
	classifier *classifier.CachedClassifier
	cache      *classifier.Cache
	discoverer *feeds.Discoverer
	archiver   *export.S3Archiver

	// Ingested datasets and the snapshot merged from them. Uploads append
	// under the lock and re-merge; queries read whatever snapshot is
	// current, so a query never sees a half-merged dataset.
	mu              sync.RWMutex
	attrs           []attribution.Record
	classifications []classifier.Classification
	snapshot        *content.Snapshot
}

// Options wires a server's collaborators. Taxonomy and validator are
// required; everything else degrades to a 503 on its endpoints when nil.
type Options struct {
	Taxonomy   *taxonomy.Service
	Validator  *segment.Validator
	Segments   *postgres.SegmentRepo
	Classifier *classifier.CachedClassifier
	Cache      *classifier.Cache
	Discoverer *feeds.Discoverer
	Archiver   *export.S3Archiver
}

// NewServer creates the API server.
func NewServer(opts Options) *Server {
	return &Server{
		taxonomy:   opts.Taxonomy,
		validator:  opts.Validator,
		segments:   opts.Segments,
		classifier: opts.Classifier,
		cache:      opts.Cache,
		discoverer: opts.Discoverer,
		archiver:   opts.Archiver,
		snapshot:   content.NewSnapshot(nil),
	}
}

// Snapshot returns the current merged row set.
func (s *Server) Snapshot() *content.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// ingestAttribution appends an upload's records and rebuilds the snapshot.
func (s *Server) ingestAttribution(records []attribution.Record) content.MergeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, records...)
	return s.remergeLocked()
}

// ingestClassifications appends classification results and rebuilds the
// snapshot.
func (s *Server) ingestClassifications(results []classifier.Classification) content.MergeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifications = append(s.classifications, results...)
	return s.remergeLocked()
}

func (s *Server) remergeLocked() content.MergeStats {
	rows, stats := content.Merge(s.attrs, s.classifications)
	s.snapshot = content.NewSnapshot(rows)
	return stats
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
