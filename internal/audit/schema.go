package audit

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	dry_run      INTEGER NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	repositories INTEGER NOT NULL,
	succeeded    INTEGER NOT NULL,
	failed       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS repository_results (
	run_id          TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	repository      TEXT NOT NULL,
	status          TEXT NOT NULL,
	failed_stage    TEXT,
	error_kind      TEXT,
	error           TEXT,
	platform        TEXT,
	platform_source TEXT,
	commit_sha      TEXT,
	pull_request    TEXT,
	PRIMARY KEY (run_id, repository)
);

CREATE TABLE IF NOT EXISTS decisions (
	run_id      TEXT NOT NULL,
	repository  TEXT NOT NULL,
	path        TEXT NOT NULL,
	source      TEXT NOT NULL,
	action      TEXT NOT NULL,
	level       TEXT,
	rule        TEXT,
	reason      TEXT NOT NULL,
	severity    TEXT NOT NULL,
	conflict    INTEGER NOT NULL,
	file_result TEXT,
	FOREIGN KEY (run_id, repository) REFERENCES repository_results(run_id, repository) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_decisions_conflict ON decisions(run_id, conflict);
`
