package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the rebate store.
var Migrations = migrate.NewGroup("rebate")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_rebate_talents",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebate_talents (
    id                  TEXT PRIMARY KEY,
    one_id              TEXT NOT NULL DEFAULT '',
    platform            TEXT NOT NULL DEFAULT '',
    name                TEXT NOT NULL DEFAULT '',
    account_id          TEXT NOT NULL DEFAULT '',
    agency_id           TEXT NOT NULL DEFAULT 'individual',
    rebate_mode         TEXT NOT NULL DEFAULT 'independent',
    current_rebate      JSONB,
    last_rebate_sync_at TIMESTAMPTZ,
    metadata            JSONB NOT NULL DEFAULT '{}',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rebate_talents_platform_one ON rebate_talents (platform, one_id);
CREATE INDEX IF NOT EXISTS idx_rebate_talents_agency ON rebate_talents (platform, agency_id);
CREATE INDEX IF NOT EXISTS idx_rebate_talents_account ON rebate_talents (platform, account_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebate_talents`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebate_agencies",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebate_agencies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    platforms  JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rebate_agencies_name ON rebate_agencies (name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebate_agencies`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebate_customers",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebate_customers (
    id         TEXT PRIMARY KEY,
    code       TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rebate_customers_code ON rebate_customers (code) WHERE code != '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebate_customers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebate_relations",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebate_relations (
    id              TEXT PRIMARY KEY,
    customer_id     TEXT NOT NULL DEFAULT '',
    talent_one_id   TEXT NOT NULL DEFAULT '',
    platform        TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'active',
    customer_rebate JSONB,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rebate_relations_key ON rebate_relations (customer_id, talent_one_id, platform);
CREATE INDEX IF NOT EXISTS idx_rebate_relations_status ON rebate_relations (customer_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebate_relations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebate_config_records",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebate_config_records (
    id             TEXT PRIMARY KEY,
    target_type    TEXT NOT NULL DEFAULT '',
    target_id      TEXT NOT NULL DEFAULT '',
    platform       TEXT NOT NULL DEFAULT '',
    rebate_rate    BIGINT NOT NULL DEFAULT 0,
    previous_rate  BIGINT,
    effective_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expiry_date    TIMESTAMPTZ,
    status         TEXT NOT NULL DEFAULT 'active',
    created_by     TEXT NOT NULL DEFAULT '',
    change_source  TEXT NOT NULL DEFAULT '',
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rebate_records_active ON rebate_config_records (target_type, target_id, platform, status);
CREATE INDEX IF NOT EXISTS idx_rebate_records_history ON rebate_config_records (target_type, target_id, platform, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebate_config_records`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebate_imports",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebate_imports (
    id         TEXT PRIMARY KEY,
    platform   TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    is_default BOOLEAN NOT NULL DEFAULT FALSE,
    row_count  INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rebate_imports_default ON rebate_imports (platform, is_default);

CREATE TABLE IF NOT EXISTS rebate_library_rows (
    id          TEXT PRIMARY KEY,
    import_id   TEXT NOT NULL DEFAULT '',
    platform    TEXT NOT NULL DEFAULT '',
    account_id  TEXT NOT NULL DEFAULT '',
    agency_name TEXT NOT NULL DEFAULT '',
    rebate      BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rebate_rows_import ON rebate_library_rows (import_id, account_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS rebate_library_rows;
DROP TABLE IF EXISTS rebate_imports;
`)
				return err
			},
		},
	)
}
