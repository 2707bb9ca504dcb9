package database

const schema = `
-- Named cache partitions, one shell and one runtime per generation
CREATE TABLE cache_partitions (
	name TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);

-- Captured responses keyed by partition and request
CREATE TABLE cache_entries (
	partition_name TEXT NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	headers TEXT NOT NULL,
	body BLOB NOT NULL,
	cached_at TIMESTAMP NOT NULL,
	PRIMARY KEY (partition_name, method, url)
);

CREATE INDEX idx_entries_url ON cache_entries(method, url);

-- Lifecycle record of every generation the host has seen
CREATE TABLE registrations (
	install_id TEXT PRIMARY KEY,
	generation TEXT NOT NULL,
	origin TEXT NOT NULL,
	state TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	activated_at TIMESTAMP
);

CREATE INDEX idx_registrations_state ON registrations(state);
`

// migrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
