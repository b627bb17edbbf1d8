package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func flatFixture() map[string]string {
	return map[string]string{
		"date":            "2024-03-05",
		"narration":       "OFFICE SUPPLY CO",
		"extra_text":      "OFFICE SUPPLY CO",
		"template":        "udgift_moms",
		"link":            "",
		"currency":        "DKK",
		"postings":        "2",
		"net":             "100.00",
		"vat":             "25.00",
		"account1":        "Expenses:Office:Supplies",
		"amount1":         "125.00",
		"amount1_negated": "-125.00",
		"account2":        "Assets:Bank:BankErhverv",
		"amount2":         "-125.00",
		"amount2_negated": "125.00",
	}
}

func TestBeancountRender(t *testing.T) {
	got, err := NewBeancount(WithCurrencyColumn(40)).Render("udgift_moms", flatFixture())
	assert.NoError(t, err)

	want := strings.Join([]string{
		`2024-03-05 * "OFFICE SUPPLY CO"`,
		`  vat: 25.00 DKK`,
		`  Expenses:Office:Supplies        125.00 DKK`,
		`  Assets:Bank:BankErhverv        -125.00 DKK`,
		``,
	}, "\n")
	assert.Equal(t, want, got)
}

func TestBeancountRenderLinkAndExtraText(t *testing.T) {
	flat := flatFixture()
	flat["extra_text"] = `booked "net"`
	flat["link"] = "3f1c"
	flat["vat"] = "0.00"

	got, err := NewBeancount().Render("", flat)
	assert.NoError(t, err)

	first, rest, _ := strings.Cut(got, "\n")
	assert.Equal(t, `2024-03-05 * "OFFICE SUPPLY CO" "booked \"net\"" ^3f1c`, first)
	assert.False(t, strings.Contains(rest, "vat:"))
}

func TestBeancountPostingAlignment(t *testing.T) {
	b := NewBeancount(WithCurrencyColumn(30))

	// "ø" is two bytes but one column wide.
	assert.Equal(t, "  Expenses:Løn           10.00 DKK", b.Posting("Expenses:Løn", "10.00", "DKK"))
	assert.Equal(t, "  Expenses:Lon           10.00 DKK", b.Posting("Expenses:Lon", "10.00", "DKK"))

	// Accounts wider than the column keep the minimum spacing.
	assert.Equal(t, "  Liabilities:Kreditorer:Hosting  -1.00 DKK", b.Posting("Liabilities:Kreditorer:Hosting", "-1.00", "DKK"))
}

func TestTemplatesRender(t *testing.T) {
	dir := t.TempDir()
	tmpl := `{{.date}} * {{quote .narration}}
  ; netto {{.net}}
{{posting .account1 .amount1 .currency}}
{{posting .account2 .amount2 .currency}}
`
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "udgift_moms.tmpl"), []byte(tmpl), 0o644))

	r := NewTemplates(dir, nil)
	got, err := r.Render("udgift_moms", flatFixture())
	assert.NoError(t, err)

	want := strings.Join([]string{
		`2024-03-05 * "OFFICE SUPPLY CO"`,
		`  ; netto 100.00`,
		`  Expenses:Office:Supplies                    125.00 DKK`,
		`  Assets:Bank:BankErhverv                    -125.00 DKK`,
		``,
	}, "\n")
	assert.Equal(t, want, got)
}

func TestTemplatesFallback(t *testing.T) {
	r := NewTemplates(t.TempDir(), NewBeancount())

	got, err := r.Render("uden_moms", flatFixture())
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, `2024-03-05 * "OFFICE SUPPLY CO"`))
}

func TestTemplatesUnknown(t *testing.T) {
	r := NewTemplates(t.TempDir(), nil)

	_, err := r.Render("missing", flatFixture())
	assert.IsError(t, err, ErrUnknownTemplate)

	_, err = r.Render("../escape", flatFixture())
	assert.IsError(t, err, ErrUnknownTemplate)
}

func TestTemplatesParseError(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "broken.tmpl"), []byte("{{.date"), 0o644))

	_, err := NewTemplates(dir, NewBeancount()).Render("broken", flatFixture())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken.tmpl")
}
