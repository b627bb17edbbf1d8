package web

import (
	"net/http"

	"github.com/haskoe/ledger/ledger"
)

// BalanceResponse is one account balance.
type BalanceResponse struct {
	Account string `json:"account"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// BalancesResponse is the JSON response structure for the balances endpoint.
type BalancesResponse struct {
	End      string            `json:"end"`
	Currency string            `json:"currency"`
	Balances []BalanceResponse `json:"balances"`
}

// handleGetBalances returns the journal balances of the bank and VAT
// accounts.
//
// Query parameters:
//   - end: Balance date in YYYY-MM-DD format (default: end of the period's year).
func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	end, err := s.endDate(r)
	if err != nil {
		http.Error(w, "Invalid end date", http.StatusBadRequest)
		return
	}

	c, j := s.state()
	balances, err := c.Status(r.Context(), j, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := &BalancesResponse{
		End:      end.Format("2006-01-02"),
		Currency: s.settings.Currency,
		Balances: make([]BalanceResponse, len(balances)),
	}
	for i, b := range balances {
		resp.Balances[i] = BalanceResponse{
			Account: b.Account,
			Type:    ledger.ParseAccountType(b.Account).String(),
			Balance: ledger.FormatAmount(b.Balance),
		}
	}
	writeJSONResponse(w, resp)
}

// DifferenceResponse is a date on which journal and statement disagree.
type DifferenceResponse struct {
	Date       string `json:"date"`
	Journal    string `json:"journal"`
	Statement  string `json:"statement"`
	Difference string `json:"difference"`
}

// ReconcileResponse is the JSON response structure for the reconcile endpoint.
type ReconcileResponse struct {
	End      string              `json:"end"`
	Dates    int                 `json:"dates"`
	Balanced bool                `json:"balanced"`
	First    *DifferenceResponse `json:"first,omitempty"`
}

// handleGetReconcile compares the journal's bank balance with the period's
// bank statement.
func (s *Server) handleGetReconcile(w http.ResponseWriter, r *http.Request) {
	end, err := s.endDate(r)
	if err != nil {
		http.Error(w, "Invalid end date", http.StatusBadRequest)
		return
	}

	c, j := s.state()
	rec, err := c.Reconcile(r.Context(), j, s.period, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := &ReconcileResponse{End: end.Format("2006-01-02"), Dates: rec.Dates, Balanced: rec.First == nil}
	if d := rec.First; d != nil {
		resp.First = &DifferenceResponse{
			Date:       d.Date.Format("2006-01-02"),
			Journal:    ledger.FormatAmount(d.Journal),
			Statement:  ledger.FormatAmount(d.Statement),
			Difference: ledger.FormatAmount(d.Amount()),
		}
	}
	writeJSONResponse(w, resp)
}
