package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	chat_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS triggers (
	trigger_id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	instrument TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL,
	direction TEXT NOT NULL,
	threshold REAL NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	alert_id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	trigger_id TEXT NOT NULL REFERENCES triggers(trigger_id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_triggers_user ON triggers(user_id);
CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_alerts_trigger ON alerts(trigger_id, created_at);
`
