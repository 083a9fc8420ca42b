package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/orchestrator"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, orchestrator.Options{})
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/score", func(w http.ResponseWriter, req *http.Request) {
			var body orchestrator.SingleRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.ListingID == "" || body.BuyerID == "" || body.UniverseID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listing_id, buyer_id and universe_id are required"})
				return
			}

			result, err := env.Orchestrator.ScoreOne(req.Context(), body)
			if err != nil {
				zap.L().Error("single score failed",
					zap.String("listing_id", body.ListingID),
					zap.String("buyer_id", body.BuyerID),
					zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "scoring failed"})
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/score/bulk", func(w http.ResponseWriter, req *http.Request) {
			var body orchestrator.BulkRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.ListingID == "" || body.UniverseID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listing_id and universe_id are required"})
				return
			}

			out, err := env.Orchestrator.ScoreBulk(req.Context(), body)
			if err != nil {
				zap.L().Error("bulk score failed",
					zap.String("listing_id", body.ListingID),
					zap.String("universe_id", body.UniverseID),
					zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "scoring failed"})
				return
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Get("/scores", func(w http.ResponseWriter, req *http.Request) {
			listingID := req.URL.Query().Get("listing_id")
			universeID := req.URL.Query().Get("universe_id")
			if listingID == "" || universeID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listing_id and universe_id are required"})
				return
			}
			results, err := env.Store.ListScores(req.Context(), listingID, universeID)
			if err != nil {
				zap.L().Error("list scores failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			writeJSON(w, http.StatusOK, results)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}
