package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions and turns",
		SQL: `
			CREATE TABLE sessions (
				id          TEXT PRIMARY KEY,
				model       TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			);

			CREATE INDEX idx_sessions_updated ON sessions (updated_at);

			CREATE TABLE turns (
				session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				idx         INTEGER NOT NULL,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				tool_calls  TEXT,
				call_id     TEXT NOT NULL DEFAULT '',
				tool_name   TEXT NOT NULL DEFAULT '',
				timestamp   TEXT NOT NULL,
				PRIMARY KEY (session_id, idx)
			);
		`,
	},
	{
		Version: 2,
		Name:    "create tool invocations",
		SQL: `
			CREATE TABLE tool_invocations (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				call_id      TEXT NOT NULL,
				tool         TEXT NOT NULL,
				status       TEXT NOT NULL,
				reason       TEXT NOT NULL DEFAULT '',
				duration_ms  INTEGER NOT NULL DEFAULT 0,
				created_at   TEXT NOT NULL
			);

			CREATE INDEX idx_invocations_session ON tool_invocations (session_id, id);
			CREATE INDEX idx_invocations_tool ON tool_invocations (tool);
		`,
	},
	{
		Version: 3,
		Name:    "full-text index over turns",
		SQL: `
			CREATE VIRTUAL TABLE turns_fts USING fts5(
				content,
				content='turns',
				content_rowid='rowid'
			);

			CREATE TRIGGER turns_ai AFTER INSERT ON turns BEGIN
				INSERT INTO turns_fts(rowid, content) VALUES (new.rowid, new.content);
			END;

			CREATE TRIGGER turns_ad AFTER DELETE ON turns BEGIN
				INSERT INTO turns_fts(turns_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
			END;
		`,
	},
}
