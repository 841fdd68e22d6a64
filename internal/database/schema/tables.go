package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS unified_identities (
		id UUID PRIMARY KEY,
		workspace_id VARCHAR(20) NOT NULL,
		anonymous_ids JSONB NOT NULL DEFAULT '[]',
		emails JSONB NOT NULL DEFAULT '[]',
		customer_ids JSONB NOT NULL DEFAULT '[]',
		primary_email VARCHAR(255),
		phone VARCHAR(50),
		traits JSONB NOT NULL DEFAULT '{}',
		computed JSONB NOT NULL DEFAULT '{}',
		first_seen_at TIMESTAMP NOT NULL,
		last_seen_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS identity_links (
		id UUID PRIMARY KEY,
		workspace_id VARCHAR(20) NOT NULL,
		unified_user_id UUID NOT NULL,
		identity_type VARCHAR(20) NOT NULL,
		identity_value VARCHAR(255) NOT NULL,
		source VARCHAR(50) NOT NULL,
		confidence VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (workspace_id, identity_type, identity_value)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		workspace_id VARCHAR(20) NOT NULL,
		unified_user_id UUID,
		anonymous_id VARCHAR(255),
		event_type VARCHAR(50) NOT NULL,
		event_name VARCHAR(255) NOT NULL,
		properties JSONB NOT NULL DEFAULT '{}',
		event_time TIMESTAMP NOT NULL,
		source VARCHAR(50) NOT NULL,
		dedupe_key VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (workspace_id, dedupe_key)
	)`,
	`CREATE TABLE IF NOT EXISTS sync_jobs (
		id UUID PRIMARY KEY,
		workspace_id VARCHAR(20) NOT NULL,
		destination_id UUID NOT NULL,
		unified_user_id UUID NOT NULL,
		event_id UUID,
		job_type VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL,
		reason VARCHAR(50) NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_error TEXT,
		scheduled_at TIMESTAMP NOT NULL,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS destinations (
		id UUID PRIMARY KEY,
		workspace_id VARCHAR(20) NOT NULL,
		kind VARCHAR(50) NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		settings JSONB NOT NULL DEFAULT '{}',
		last_sync_at TIMESTAMP,
		last_error TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// IndexDefinitions contains the indexes and partial unique constraints that
// back the resolution and drain queries.
var IndexDefinitions = []string{
	// At most one identity per (workspace, primary_email)
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_primary_email
		ON unified_identities (workspace_id, primary_email)
		WHERE primary_email IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_identities_anonymous_ids
		ON unified_identities USING GIN (anonymous_ids)`,
	`CREATE INDEX IF NOT EXISTS idx_identities_emails
		ON unified_identities USING GIN (emails)`,
	`CREATE INDEX IF NOT EXISTS idx_identities_customer_ids
		ON unified_identities USING GIN (customer_ids)`,
	`CREATE INDEX IF NOT EXISTS idx_identities_updated_at
		ON unified_identities (workspace_id, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user
		ON events (workspace_id, unified_user_id, event_time)`,
	`CREATE INDEX IF NOT EXISTS idx_events_anonymous
		ON events (workspace_id, anonymous_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_jobs_due
		ON sync_jobs (workspace_id, status, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_jobs_user
		ON sync_jobs (workspace_id, unified_user_id, job_type, status)`,
	`CREATE INDEX IF NOT EXISTS idx_destinations_workspace
		ON destinations (workspace_id, kind)`,
}
