package sqlitefs

const (
	createFileTable = `
		CREATE TABLE IF NOT EXISTS fs_file (
			ino INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			content BLOB NOT NULL DEFAULT x'',
			mtime INTEGER NOT NULL
		)`

	lookupIno = `SELECT ino FROM fs_file WHERE path = ?`

	insertFile = `INSERT OR IGNORE INTO fs_file (path, content, mtime) VALUES (?, x'', ?)`

	truncateFile = `UPDATE fs_file SET content = x'', mtime = ? WHERE ino = ?`

	readRange = `SELECT substr(content, ?, ?) FROM fs_file WHERE ino = ?`

	readContent = `SELECT content FROM fs_file WHERE ino = ?`

	writeContent = `UPDATE fs_file SET content = ?, mtime = ? WHERE ino = ?`

	fileLength = `SELECT length(content) FROM fs_file WHERE ino = ?`

	statFile = `SELECT path, length(content), mtime FROM fs_file WHERE ino = ?`

	deleteFile = `DELETE FROM fs_file WHERE path = ?`
)
