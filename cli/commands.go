package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Root      string `help:"Directory holding the company directories (default: $BOGHOLDER_ROOT or the working directory)." type:"path"`
	Company   string `help:"Company directory below the root." short:"c" default:"firma"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Debug     bool   `help:"Log debug messages to stderr."`
}

type Commands struct {
	Globals

	Generate  GenerateCmd  `cmd:"" help:"Generate the ledgers and account declarations of a period."`
	Reconcile ReconcileCmd `cmd:"" aliases:"afstem" help:"Compare the journal's bank balance with the bank statement."`
	VATClose  VATCloseCmd  `cmd:"" name:"vat-close" aliases:"moms-luk" help:"Settle purchase and sales VAT into the payable VAT account."`
	Approve   ApproveCmd   `cmd:"" aliases:"godkend" help:"Append the transactions of a period to the journal."`
	Status    StatusCmd    `cmd:"" help:"Show bank and VAT balances from the journal."`
	Web       WebCmd       `cmd:"" help:"Serve a read-only JSON API on localhost."`
	Doctor    DoctorCmd    `cmd:"" help:"Debugging utilities."`
}
