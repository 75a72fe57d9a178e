package store

// migration is a single versioned schema change. Migrations run in order
// inside runMigrations; applied versions are recorded in schema_version.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS units (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS checklists (
	id           TEXT PRIMARY KEY,
	unit_id      TEXT NOT NULL REFERENCES units(id),
	status       TEXT NOT NULL DEFAULT 'pending'
	             CHECK (status IN ('pending', 'in_progress', 'completed')),
	completed_at DATETIME,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checklists_unit ON checklists(unit_id);
CREATE INDEX IF NOT EXISTS idx_checklists_active
	ON checklists(unit_id) WHERE status != 'completed';

CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	checklist_id  TEXT NOT NULL REFERENCES checklists(id) ON DELETE CASCADE,
	category      TEXT NOT NULL,
	description   TEXT NOT NULL,
	completed     INTEGER NOT NULL DEFAULT 0,
	display_order INTEGER NOT NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_checklist ON tasks(checklist_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// invariantGuards is the write-time enforcement of the one-active-checklist-
// per-unit invariant. Triggers rather than a unique index: new writes that
// would create a second active checklist are rejected, while duplicates that
// predate the guard (legacy imports) stay readable so the recovery routine
// can repair them. A rejected write is what hands control to conflict
// recovery. Installed after migrations and reinstalled by SuspendGuards.
const invariantGuards = `
CREATE TRIGGER IF NOT EXISTS trg_checklists_one_active_insert
BEFORE INSERT ON checklists
WHEN NEW.status != 'completed'
BEGIN
	SELECT RAISE(ABORT, 'duplicate active checklist')
	WHERE EXISTS (
		SELECT 1 FROM checklists
		WHERE unit_id = NEW.unit_id AND status != 'completed'
	);
END;

CREATE TRIGGER IF NOT EXISTS trg_checklists_one_active_update
BEFORE UPDATE OF status ON checklists
WHEN NEW.status != 'completed'
BEGIN
	SELECT RAISE(ABORT, 'duplicate active checklist')
	WHERE EXISTS (
		SELECT 1 FROM checklists
		WHERE unit_id = NEW.unit_id AND status != 'completed' AND id != NEW.id
	);
END;
`

const dropInvariantGuards = `
DROP TRIGGER IF EXISTS trg_checklists_one_active_insert;
DROP TRIGGER IF EXISTS trg_checklists_one_active_update;
`
