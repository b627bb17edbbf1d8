package journal

// schema creates the append-only entry log. Amounts are stored as exact
// decimal strings and summed in Go, never by SQLite's floating point SUM.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_date TEXT NOT NULL,          -- YYYY-MM-DD
    narration TEXT NOT NULL,
    template_id TEXT NOT NULL,
    link TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL,                -- rendered ledger-entry text
    appended_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS postings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id INTEGER NOT NULL REFERENCES entries(id),
    entry_date TEXT NOT NULL,          -- YYYY-MM-DD, copied for range queries
    account TEXT NOT NULL,
    amount TEXT NOT NULL               -- decimal string, e.g. -125.00
);

CREATE INDEX IF NOT EXISTS idx_postings_account_date
    ON postings(account, entry_date);

CREATE INDEX IF NOT EXISTS idx_entries_date
    ON entries(entry_date);

-- One row per accounting period whose generated entries were appended.
CREATE TABLE IF NOT EXISTS approvals (
    period TEXT PRIMARY KEY,
    entries INTEGER NOT NULL,
    approved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
