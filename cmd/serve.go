package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/fetcher"
	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/pipeline"
	"github.com/sells-group/docextract/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, envOptions{Mode: "serve", Store: true, Recognizer: true})
		if err != nil {
			return err
		}
		defer env.Close()

		h := buildRouter(env.Pipeline, env.Store, serverOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			Sources: fetcher.SourcePolicy{
				AllowLocal:   cfg.Server.AllowLocalSources,
				AllowedHosts: cfg.Server.AllowedSourceHosts,
			},
		})
		return startServer(ctx, h, resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runner is the part of the pipeline the API calls.
type runner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

type serverOptions struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	// Sources gates the source field of extract requests. The zero value
	// rejects local paths.
	Sources fetcher.SourcePolicy
}

// extractRequest is the POST /v1/extract body. Exactly one of source,
// passes or answers is normally set.
type extractRequest struct {
	DocType string                  `json:"doc_type"`
	Mode    string                  `json:"mode,omitempty"`
	Source  string                  `json:"source,omitempty"`
	Passes  []model.RecognitionPass `json:"passes,omitempty"`
	Answers model.AnswerMap         `json:"answers,omitempty"`
}

func buildRouter(p runner, st store.Store, opts serverOptions) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/extract", func(w http.ResponseWriter, req *http.Request) {
		if p == nil {
			writeError(w, http.StatusServiceUnavailable, "pipeline not configured")
			return
		}
		req.Body = http.MaxBytesReader(w, req.Body, opts.MaxUploadBytes)

		var body extractRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		dt, err := model.ParseDocumentType(body.DocType)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported document type %q", body.DocType))
			return
		}
		mode, err := model.ParseExtractionMode(body.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Answers != nil && body.Mode == "" {
			mode = model.ModeAnswers
		}
		if body.Source == "" && len(body.Passes) == 0 && body.Answers == nil {
			writeError(w, http.StatusBadRequest, "one of source, passes or answers is required")
			return
		}
		if body.Source != "" {
			if err := opts.Sources.Check(body.Source); err != nil {
				zap.L().Warn("serve: source rejected", zap.String("source", body.Source), zap.Error(err))
				writeError(w, http.StatusBadRequest, "source not allowed")
				return
			}
		}

		res, err := p.Run(req.Context(), pipeline.Job{
			DocType: dt,
			Source:  body.Source,
			Mode:    mode,
			Passes:  body.Passes,
			Answers: body.Answers,
		})
		if err != nil {
			status := http.StatusInternalServerError
			if eris.Is(err, model.ErrUnsupportedDocumentType) {
				status = http.StatusBadRequest
			}
			zap.L().Error("serve: extraction failed", zap.String("doc_type", string(dt)), zap.Error(err))
			writeError(w, status, err.Error())
			return
		}
		writeJSONStatus(w, http.StatusOK, res)
	})

	r.Get("/v1/runs", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "store not configured")
			return
		}
		filter, err := runFilterFromQuery(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSONStatus(w, http.StatusOK, runs)
	})

	r.Get("/v1/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "store not configured")
			return
		}
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			if eris.Is(err, store.ErrRunNotFound) {
				writeError(w, http.StatusNotFound, "run not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSONStatus(w, http.StatusOK, run)
	})

	return r
}

func runFilterFromQuery(req *http.Request) (model.RunFilter, error) {
	q := req.URL.Query()
	var f model.RunFilter
	if v := q.Get("doc_type"); v != "" {
		dt, err := model.ParseDocumentType(v)
		if err != nil {
			return f, err
		}
		f.DocType = dt
	}
	f.Status = model.RunStatus(q.Get("status"))
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, eris.Errorf("invalid %s %q", name, v)
		}
		*dst = n
	}
	return f, nil
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

// resolvePort prefers the flag value over the config value.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer serves h on port until ctx is done, then shuts down.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}
