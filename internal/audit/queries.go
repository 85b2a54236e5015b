package audit

const (
	queryInsertEntry = `
		INSERT INTO access_logs (app_name, permission, timestamp, is_suspicious, reason)
		VALUES (?, ?, ?, ?, ?)`

	querySelectEntries = `
		SELECT id, app_name, permission, timestamp, is_suspicious, reason
		FROM access_logs`

	queryOrderLimit = `
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`

	queryCountRecent = `
		SELECT COUNT(*)
		FROM access_logs
		WHERE app_name = ? AND permission = ? AND timestamp >= ?`

	// Stored timestamps are UTC in this layout so they sort lexically.
	timestampLayout = "2006-01-02 15:04:05"

	DefaultLimit = 100
)
