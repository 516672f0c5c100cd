package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	sloghttp "github.com/samber/slog-http"
)

// StatusServer exposes the reporting boundary over HTTP: health, filtering
// counters and an RSS feed of recently forwarded messages.
type StatusServer struct {
	cfg        *Config
	queue      *PendingQueue
	classifier *Classifier
	forwarded  *ForwardLog
	logger     *slog.Logger
}

func NewStatusServer(cfg *Config, queue *PendingQueue, classifier *Classifier, forwarded *ForwardLog) *StatusServer {
	return &StatusServer{
		cfg:        cfg,
		queue:      queue,
		classifier: classifier,
		forwarded:  forwarded,
		logger:     slog.Default(),
	}
}

func (s *StatusServer) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *StatusServer) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /feed", s.handleFeed)

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Status server starting", "addr", addr)

	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *StatusServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.classifier.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ai":              stats,
		"queue_backlog":   s.queue.Size(),
		"items_processed": s.queue.Acked(),
	})
}

func (s *StatusServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	items := s.forwarded.Recent(50)

	feed := &feeds.Feed{
		Title:       "Forwarded messages",
		Link:        &feeds.Link{Href: fmt.Sprintf("http://%s/feed", r.Host)},
		Description: "Recently forwarded keyword matches",
		Updated:     time.Now(),
	}
	for _, it := range items {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       fmt.Sprintf("%s / %s", it.Keyword, it.Chat),
			Link:        &feeds.Link{Href: it.Link},
			Description: it.Text,
			Author:      &feeds.Author{Name: it.Sender},
			Created:     it.SentAt,
			Id:          fmt.Sprintf("forward-%d", it.MessageID),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error rendering feed", "error", err)
		http.Error(w, "Failed to render feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	fmt.Fprint(w, rss)
}
