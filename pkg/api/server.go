package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/csvimporter"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
	"github.com/bcaldwell/bistroledger/pkg/xlsximporter"
)

// BankSyncer is implemented by bankapi.Syncer.
type BankSyncer interface {
	Sync(ctx context.Context) (financialimporter.ImportStats, error)
}

type Server struct {
	store          ledger.Store
	importer       *financialimporter.TransactionImporter
	rules          financialimporter.Rules
	syncer         BankSyncer
	windowDays     int
	maxUploadBytes int64
}

type Option func(*Server)

// WithBankSyncer enables POST /bank/sync.
func WithBankSyncer(s BankSyncer) Option {
	return func(server *Server) {
		server.syncer = s
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(server *Server) {
		if n > 0 {
			server.maxUploadBytes = n
		}
	}
}

func NewServer(store ledger.Store, importer *financialimporter.TransactionImporter, rules financialimporter.Rules, windowDays int, opts ...Option) *Server {
	s := &Server{
		store:          store,
		importer:       importer,
		rules:          rules,
		windowDays:     windowDays,
		maxUploadBytes: config.DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)

	router.HandleFunc("/imports/csv", s.importFile(financialimporter.SourceCSV, csvimporter.Read)).Methods(http.MethodPost)
	router.HandleFunc("/imports/xlsx", s.importFile(financialimporter.SourceXLSX, xlsximporter.Read)).Methods(http.MethodPost)
	router.HandleFunc("/bank/sync", s.syncBank).Methods(http.MethodPost)
	router.HandleFunc("/fixed-costs/detect", s.detectRecurring).Methods(http.MethodPost)
	router.HandleFunc("/transactions/categorize", s.categorize).Methods(http.MethodPost)
	router.HandleFunc("/transactions/reconcile", s.reconcile).Methods(http.MethodPost)
	router.HandleFunc("/transactions/duplicates", s.auditDuplicates).Methods(http.MethodGet)
	router.HandleFunc("/transactions/duplicates", s.cleanupDuplicates).Methods(http.MethodDelete)

	return router
}

// ListenAndServe blocks until ctx is cancelled or the server fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		klog.Infof("Server starting on %s", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		klog.V(2).Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

type reader func(r io.Reader) ([]financialimporter.RawRow, error)

func (s *Server) importFile(source financialimporter.Source, read reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
			writeImportFailure(w, source, apperror.Wrap(apperror.Validation, err, "upload is missing or larger than the allowed size"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, _, err := r.FormFile("file")
		if err != nil {
			writeImportFailure(w, source, apperror.Wrap(apperror.Validation, err, "multipart field \"file\" is required"))
			return
		}
		defer file.Close()

		rows, err := read(file)
		if err != nil {
			writeImportFailure(w, source, err)
			return
		}

		stats, err := s.importer.Import(r.Context(), rows, source)
		writeImportResult(w, stats, err)
	}
}

func writeImportResult(w http.ResponseWriter, stats financialimporter.ImportStats, err error) {
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	writeJSON(w, status, financialimporter.ResultFromImport(stats, err))
}

func writeImportFailure(w http.ResponseWriter, source financialimporter.Source, err error) {
	writeJSON(w, statusFor(err), financialimporter.FailedResult(source, err))
}

func (s *Server) syncBank(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeImportFailure(w, financialimporter.SourceBankAPI, apperror.New(apperror.Validation, "bank sync is not configured"))
		return
	}
	stats, err := s.syncer.Sync(r.Context())
	writeImportResult(w, stats, err)
}

func (s *Server) detectRecurring(w http.ResponseWriter, r *http.Request) {
	report, err := financialimporter.NewRecurringDetector(s.store, s.rules).Run(r.Context())
	if err != nil {
		writeError(w, apperror.Wrap(apperror.Persistence, err, "failed to detect recurring costs"))
		return
	}
	writeData(w, report)
}

func (s *Server) categorize(w http.ResponseWriter, r *http.Request) {
	n, err := financialimporter.CategorizeUncategorized(r.Context(), s.store, s.rules)
	if err != nil {
		writeError(w, apperror.Wrap(apperror.Persistence, err, "failed to categorize transactions"))
		return
	}
	writeData(w, map[string]int{"categorized": n})
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	n, err := financialimporter.ReconcilePending(r.Context(), s.store, s.windowDays)
	if err != nil {
		writeError(w, apperror.Wrap(apperror.Persistence, err, "failed to reconcile transactions"))
		return
	}
	writeData(w, map[string]int{"reconciled": n})
}

func (s *Server) auditDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := financialimporter.NewDeduplicator(s.store).Audit(r.Context())
	if err != nil {
		writeError(w, apperror.Wrap(apperror.Persistence, err, "failed to audit duplicates"))
		return
	}
	if groups == nil {
		groups = []financialimporter.DuplicateGroup{}
	}
	writeData(w, map[string]interface{}{"groups": groups})
}

func (s *Server) cleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	report, err := financialimporter.NewDeduplicator(s.store).Cleanup(r.Context())
	if err != nil {
		writeError(w, apperror.Wrap(apperror.Persistence, err, "failed to delete duplicates"))
		return
	}
	writeData(w, report)
}
