package audit

const (
	tableSchema = `
		CREATE TABLE IF NOT EXISTS access_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_name TEXT NOT NULL,
			permission TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			is_suspicious INTEGER NOT NULL DEFAULT 0 CHECK(is_suspicious IN (0, 1)),
			reason TEXT
		)`

	triggerPreventUpdate = `
		CREATE TRIGGER IF NOT EXISTS access_logs_prevent_update
		BEFORE UPDATE ON access_logs
		FOR EACH ROW
		BEGIN
			SELECT RAISE(FAIL, 'Updates not allowed on access_logs');
		END`

	triggerPreventDelete = `
		CREATE TRIGGER IF NOT EXISTS access_logs_prevent_delete
		BEFORE DELETE ON access_logs
		FOR EACH ROW
		BEGIN
			SELECT RAISE(FAIL, 'Deletes not allowed on access_logs');
		END`

	indexTimestamp = `
		CREATE INDEX IF NOT EXISTS idx_access_logs_timestamp ON access_logs(timestamp DESC, id DESC)`

	indexAppPermission = `
		CREATE INDEX IF NOT EXISTS idx_access_logs_app_permission ON access_logs(app_name, permission, timestamp)`
)

func schemaStatements() []string {
	return []string{
		tableSchema,
		triggerPreventUpdate,
		triggerPreventDelete,
		indexTimestamp,
		indexAppPermission,
	}
}
