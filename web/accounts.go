package web

import (
	"net/http"

	"github.com/haskoe/ledger/ledger"
)

// AccountInfo represents basic information about a ledger account.
type AccountInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AccountsResponse is the JSON response structure for the accounts endpoint.
type AccountsResponse struct {
	Accounts []AccountInfo `json:"accounts"`
}

// handleGetAccounts returns the account chart of the period, sorted by name.
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	c, _ := s.state()

	run, err := c.Build(r.Context(), s.period)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	names := run.Chart.Accounts()
	accounts := make([]AccountInfo, len(names))
	for i, name := range names {
		accounts[i] = AccountInfo{Name: name, Type: ledger.ParseAccountType(name).String()}
	}
	writeJSONResponse(w, &AccountsResponse{Accounts: accounts})
}
