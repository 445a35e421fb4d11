package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	accounts "ledger-core/internal/accounts/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	level TEXT NOT NULL,
	parent_id TEXT REFERENCES accounts(id)
)`,
	`CREATE TABLE IF NOT EXISTS accounting_periods (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ NOT NULL,
	is_closed BOOLEAN NOT NULL DEFAULT FALSE,
	closed_at TIMESTAMPTZ,
	closed_by TEXT,
	total_revenue NUMERIC(20,4) NOT NULL DEFAULT 0,
	total_expenses NUMERIC(20,4) NOT NULL DEFAULT 0,
	net_income NUMERIC(20,4) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS journal_documents (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	type TEXT NOT NULL,
	currency TEXT NOT NULL,
	exchange_rate NUMERIC(20,8) NOT NULL DEFAULT 1,
	description TEXT,
	status TEXT NOT NULL,
	period_id TEXT NOT NULL REFERENCES accounting_periods(id),
	reversal_of_id TEXT REFERENCES journal_documents(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	posted_at TIMESTAMPTZ,
	posted_by TEXT,
	cancelled_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_documents_period
	ON journal_documents (period_id, status)`,
	`CREATE TABLE IF NOT EXISTS journal_lines (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES journal_documents(id) ON DELETE CASCADE,
	position INT NOT NULL,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	debit NUMERIC(20,4) NOT NULL DEFAULT 0,
	credit NUMERIC(20,4) NOT NULL DEFAULT 0,
	description TEXT,
	foreign_amount NUMERIC(20,4),
	foreign_currency TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_lines_document
	ON journal_lines (document_id, position)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor TEXT NOT NULL,
	role TEXT NOT NULL,
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	period_id TEXT,
	metadata JSONB,
	payload_digest TEXT,
	ip TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS event_outbox (
	id TEXT PRIMARY KEY,
	event_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	status TEXT NOT NULL,
	attempts INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS processed_events (
	event_id TEXT NOT NULL,
	consumer_name TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (event_id, consumer_name)
)`,
	`CREATE TABLE IF NOT EXISTS dead_letter_events (
	event_id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	error TEXT,
	first_seen_at TIMESTAMPTZ NOT NULL,
	last_seen_at TIMESTAMPTZ NOT NULL,
	attempts INT NOT NULL DEFAULT 1
)`,
	`CREATE TABLE IF NOT EXISTS bank_reconciliation_items (
	id TEXT PRIMARY KEY,
	period_id TEXT NOT NULL REFERENCES accounting_periods(id),
	description TEXT,
	amount NUMERIC(20,4) NOT NULL DEFAULT 0,
	reconciled BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE TABLE IF NOT EXISTS inventory_valuations (
	id TEXT PRIMARY KEY,
	period_id TEXT NOT NULL REFERENCES accounting_periods(id),
	ledger_balance NUMERIC(20,4) NOT NULL DEFAULT 0,
	valuation NUMERIC(20,4) NOT NULL DEFAULT 0
)`,
}

func main() {
	_ = godotenv.Load()

	dsn := flag.String("dsn", getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")), "postgres dsn")
	skipChart := flag.Bool("skip-chart", false, "create schema only, do not seed the default chart")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("schema: %v", err)
		}
	}
	log.Printf("schema ready")

	if *skipChart {
		return
	}

	insert := `
INSERT INTO accounts (id, code, name, type, level, parent_id)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
ON CONFLICT (id) DO NOTHING`
	seeded := 0
	for _, account := range accounts.DefaultChart() {
		result, err := db.ExecContext(ctx, insert,
			account.ID, account.Code, account.Name, account.Type, account.Level, account.ParentID)
		if err != nil {
			log.Fatalf("seed account %s: %v", account.Code, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			seeded += int(n)
		}
	}
	log.Printf("chart seeded: %d new account(s)", seeded)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
