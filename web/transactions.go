package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/haskoe/ledger/engine"
	errfmt "github.com/haskoe/ledger/errors"
	"github.com/haskoe/ledger/ledger"
)

func writeJSONResponse(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ErrorsResponse lists the errors that prevented a period from building.
type ErrorsResponse struct {
	Errors []errfmt.ErrorJSON `json:"errors"`
}

// writeBuildError answers 422 for classification errors, 500 otherwise.
func writeBuildError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var classErrs *ledger.ClassificationErrors
	if errors.As(err, &classErrs) {
		status = http.StatusUnprocessableEntity
	}
	writeJSONStatus(w, status, &ErrorsResponse{
		Errors: errfmt.NewJSONFormatter().FormatAllToSlice([]error{err}),
	})
}

// endDate reads the "end" query parameter, defaulting to the end of the
// period's year.
func (s *Server) endDate(r *http.Request) (time.Time, error) {
	if v := r.URL.Query().Get("end"); v != "" {
		return time.Parse("2006-01-02", v)
	}
	return engine.PeriodEnd(s.period)
}

// InfoResponse describes what the server serves.
type InfoResponse struct {
	Version string `json:"version,omitempty"`
	Company string `json:"company"`
	Period  string `json:"period"`
	Journal string `json:"journal"`
}

func (s *Server) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, &InfoResponse{
		Version: s.Version,
		Company: s.settings.Company,
		Period:  s.period,
		Journal: s.settings.JournalDB,
	})
}

// TransactionsResponse is the JSON response of the transactions endpoint.
// Each transaction is its flat template view.
type TransactionsResponse struct {
	Period       string              `json:"period"`
	Transactions []map[string]string `json:"transactions"`
	Skipped      int                 `json:"skipped"`
}

// handleGetTransactions builds the period without writing anything.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	c, _ := s.state()

	run, err := c.Build(r.Context(), s.period)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	txns := run.Result.All()
	resp := &TransactionsResponse{
		Period:       s.period,
		Transactions: make([]map[string]string, len(txns)),
		Skipped:      run.Result.Skipped,
	}
	for i, txn := range txns {
		resp.Transactions[i] = txn.Flat(s.settings.Currency)
	}
	writeJSONResponse(w, resp)
}
