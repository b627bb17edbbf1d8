// Bookkeeping Fixture Generator
//
// This tool writes a company directory with master data and a year of bank,
// billing and payroll records, for profiling generation on realistic volumes.
//
// Usage:
//
//	go run ./tools/generate_fixture /tmp/books
//	go run ./tools/generate_fixture --records 200000 --year 2024 /tmp/books
//	bogholder --root /tmp/books --telemetry generate 2024
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
)

type vendor struct {
	token       string
	group       string
	description string
	vat         bool
	postings    int
}

var vendors = []vendor{
	{"Supplies", "Expenses:Kontor", "OFFICE SUPPLY CO", true, 2},
	{"Hosting", "Expenses:IT", "ACME HOSTING", true, 3},
	{"Telefon", "Expenses:IT", "TELE DANMARK", true, 3},
	{"Husleje", "Expenses:Lokaler", "HUSLEJE EJENDOM", false, 2},
	{"Forsikring", "Expenses:Forsikring", "TRYG FORSIKRING", false, 2},
	{"Rejser", "Expenses:Rejser", "DSB BILLETTER", true, 2},
	{"Bank", "Expenses:Gebyrer", "GEBYR NETBANK", false, 2},
}

var customers = []string{"acme", "globex", "initech", "umbrella"}

var cli struct {
	Dir     string `arg:"" help:"Bookkeeping root to write below." type:"path"`
	Company string `help:"Company directory name." default:"firma"`
	Year    int    `help:"Year of the generated period." default:"2024"`
	Records int    `help:"Number of bank records." default:"50000"`
	Seed    int64  `help:"Random seed." default:"1"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Description("Write a bookkeeping fixture for profiling."))

	dir := filepath.Join(cli.Dir, cli.Company)
	err := write(dir, cli.Year, cli.Records, rand.New(rand.NewSource(cli.Seed)))
	ctx.FatalIfErrorf(err)

	_, _ = fmt.Fprintf(os.Stderr, "Wrote %d bank records to %s\n", cli.Records, dir)
}

// write creates the master data and the period tables of year below dir.
func write(dir string, year, records int, rng *rand.Rand) error {
	period := fmt.Sprint(year)

	files := map[string]string{
		"stamdata/account.csv":          directory(),
		"stamdata/account_regex.csv":    patterns(),
		"stamdata/transaction_type.csv": templates(),
		"stamdata/prices.csv":           prices(year),
		period + "/bank.csv":            bank(year, records, rng),
		period + "/salg.csv":            billing(year, rng),
		period + "/loen.csv":            payroll(year),
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func directory() string {
	var b strings.Builder
	for _, v := range vendors {
		fmt.Fprintf(&b, "%s;%s\n", v.token, v.group)
	}
	for _, c := range customers {
		fmt.Fprintf(&b, "%s;Income:Salg\n", c)
	}
	return b.String()
}

func patterns() string {
	var b strings.Builder
	for _, v := range vendors {
		fmt.Fprintf(&b, "%s;%s\n", strings.ToLower(v.description), v.token)
	}
	for _, c := range customers {
		fmt.Fprintf(&b, "indbetaling %s;%s\n", c, c)
	}
	return b.String()
}

func templates() string {
	var b strings.Builder
	seen := map[string]bool{}
	for _, v := range vendors {
		key := v.group + ":" + v.token
		if seen[key] {
			continue
		}
		seen[key] = true
		flag := 0
		if v.vat {
			flag = 1
		}
		fmt.Fprintf(&b, "%s;%s;;;;%d;%d\n", key, strings.ToLower(v.token), v.postings, flag)
	}
	b.WriteString("Income:Salg;faktura;;;;3;1\n")
	b.WriteString(";uden_moms;;;;2;0\n")
	return b.String()
}

func prices(year int) string {
	var b strings.Builder
	for i, c := range customers {
		fmt.Fprintf(&b, "%s;Timepris;%02d0101;%d\n", c, (year-1)%100, 600+i*50)
		fmt.Fprintf(&b, "%s;Support;%02d0101;%d\n", c, (year-1)%100, 400)
	}
	return b.String()
}

// bank lists records newest first, like a downloaded statement.
func bank(year, records int, rng *rand.Rand) string {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	days := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC).Sub(start).Hours() / 24

	type line struct {
		date        time.Time
		description string
		amount      decimal.Decimal
	}
	lines := make([]line, records)
	for i := range lines {
		date := start.AddDate(0, 0, int(float64(i)*days/float64(records)))
		if rng.Intn(5) == 0 {
			c := customers[rng.Intn(len(customers))]
			lines[i] = line{date, "INDBETALING " + strings.ToUpper(c), decimal.New(int64(1000+rng.Intn(50000)), -2).Mul(decimal.NewFromInt(10))}
			continue
		}
		v := vendors[rng.Intn(len(vendors))]
		lines[i] = line{date, v.description, decimal.New(-int64(100+rng.Intn(500000)), -2)}
	}

	var b strings.Builder
	total := decimal.Zero
	totals := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		total = total.Add(l.amount)
		totals[i] = total
	}
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		fmt.Fprintf(&b, "%s;;%s;%s;%s\n", l.date.Format("02-01-2006"), l.description, amount(l.amount), amount(totals[i]))
	}
	return b.String()
}

func billing(year int, rng *rand.Rand) string {
	var b strings.Builder
	for m := 1; m <= 12; m++ {
		last := time.Date(year, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC)
		for _, c := range customers {
			fmt.Fprintf(&b, "%s;%s;Konsulentydelser %s;%d;%d\n",
				c, last.Format("060102"), last.Format("01/2006"), 10+rng.Intn(120), rng.Intn(3))
		}
	}
	return b.String()
}

func payroll(year int) string {
	var b strings.Builder
	for m := 1; m <= 12; m++ {
		last := time.Date(year, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(&b, "%s;%s;28.500,00;94,65;9.800,00;3.200,00;45,00\n", last.Format("0102"), last.Format("01-2006"))
	}
	return b.String()
}

// amount formats d with a comma decimal separator and dot thousands
// separator.
func amount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)
	return sign + strings.Join(groups, ".") + "," + frac
}
