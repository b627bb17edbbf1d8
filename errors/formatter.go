// Package errors renders classification errors as structured JSON for
// scripts and editors. Terminal rendering lives in the cli package.
package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/haskoe/ledger/account"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/price"
	"github.com/haskoe/ledger/template"
)

// Error types.
const (
	TypeUnmatchedDescription = "unmatched_description"
	TypeAmbiguousMatch       = "ambiguous_match"
	TypeUnknownAccount       = "unknown_account"
	TypeMissingTemplate      = "missing_template"
	TypeMissingPrice         = "missing_price"
	TypeInvalidAccount       = "invalid_account"
	TypeImbalanced           = "imbalanced_transaction"
	TypeOther                = "error"
)

// ErrorJSON is one error in JSON form.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON locates the record an error came from.
type PositionJSON struct {
	Table string `json:"table"`
	Line  int    `json:"line"`
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a single error as a JSON object.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats errors as an indented JSON array. A ClassificationErrors
// value is flattened into its record errors.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice converts errors to ErrorJSON values.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		var classErrs *ledger.ClassificationErrors
		if stdErrors.As(err, &classErrs) {
			result = append(result, jf.FormatAllToSlice(classErrs.Errors)...)
			continue
		}
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	out := ErrorJSON{Type: TypeOther, Message: err.Error()}

	var rec *ledger.RecordError
	if stdErrors.As(err, &rec) {
		out.Message = rec.Err.Error()
		if rec.Line > 0 {
			out.Position = &PositionJSON{Table: rec.Kind, Line: rec.Line}
		}
	}

	var (
		unmatched *account.UnmatchedDescriptionError
		ambiguous *account.AmbiguousMatchError
		unknown   *account.UnknownAccountError
		noTmpl    *template.MissingTemplateError
		noPrice   *price.MissingPriceError
		invalid   *ledger.InvalidAccountError
		imbalance *ledger.ImbalancedTransactionError
	)
	switch {
	case stdErrors.As(err, &unmatched):
		out.Type = TypeUnmatchedDescription
		out.Details = details(unmatched.Date, "description", unmatched.Description)
	case stdErrors.As(err, &ambiguous):
		out.Type = TypeAmbiguousMatch
		out.Details = details(ambiguous.Date, "description", ambiguous.Description)
		candidates := make([]string, len(ambiguous.Candidates))
		for i, c := range ambiguous.Candidates {
			candidates[i] = fmt.Sprintf("%s (%s)", c.Token, c.Pattern)
		}
		out.Details["candidates"] = candidates
	case stdErrors.As(err, &unknown):
		out.Type = TypeUnknownAccount
		out.Details = details(unknown.Date, "token", unknown.Token, "description", unknown.Description)
	case stdErrors.As(err, &noTmpl):
		out.Type = TypeMissingTemplate
		out.Details = map[string]any{"group": noTmpl.Group}
	case stdErrors.As(err, &noPrice):
		out.Type = TypeMissingPrice
		out.Details = details(noPrice.Date, "token", noPrice.Token, "price_type", noPrice.PriceType)
	case stdErrors.As(err, &invalid):
		out.Type = TypeInvalidAccount
		out.Details = details(invalid.Date, "account", invalid.Account, "source", invalid.Source)
	case stdErrors.As(err, &imbalance):
		out.Type = TypeImbalanced
		out.Details = details(imbalance.Date, "residual", ledger.FormatAmount(imbalance.Residual))
	}

	return out
}

// details builds a detail map from a date and key/value pairs.
func details(date time.Time, kv ...string) map[string]any {
	m := map[string]any{"date": date.Format("2006-01-02")}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
