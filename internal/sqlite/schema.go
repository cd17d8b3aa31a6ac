package sqlite

// schemaVersion is stored in PRAGMA user_version once the schema is in place.
const schemaVersion = 1

// Schema DDL for all tables. Statements are idempotent so an existing
// database is reused across runs.
const (
	createActivities = `CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    time TEXT NOT NULL,
    duration INTEGER NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL
);`

	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    name TEXT PRIMARY KEY,
    color TEXT NOT NULL
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
)

// Index DDL for the date and category lookups.
const (
	idxActivitiesDate     = `CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date);`
	idxActivitiesCategory = `CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createActivities,
	createCategories,
	createSettings,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxActivitiesDate,
	idxActivitiesCategory,
}
