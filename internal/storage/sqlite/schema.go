// ABOUTME: SQLite database schema for vector records, videos, and chat messages
// ABOUTME: Statements are idempotent so Open can run them on every start
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Vector index records, one row per (namespace, id)
CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    namespace TEXT NOT NULL,
    id TEXT NOT NULL,
    video_id TEXT NOT NULL,
    document TEXT NOT NULL,
    metadata TEXT NOT NULL,
    vector BLOB NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(namespace, id)
);

-- Settings the index was built with, e.g. vector_dimension
CREATE TABLE IF NOT EXISTS index_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Video status records
CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    original_filename TEXT,
    file_size INTEGER DEFAULT 0,
    duration REAL DEFAULT 0,
    fps REAL DEFAULT 0,
    resolution TEXT,
    status TEXT NOT NULL,
    uploaded_at DATETIME NOT NULL,
    processed_at DATETIME,
    frame_count INTEGER DEFAULT 0,
    transcript TEXT,
    error TEXT
);

-- Chat history, ordered by insertion
CREATE TABLE IF NOT EXISTS messages (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    video_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    context_frame_ids TEXT,
    confidence REAL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_video ON records(namespace, video_id);
CREATE INDEX IF NOT EXISTS idx_messages_video ON messages(video_id);
CREATE INDEX IF NOT EXISTS idx_videos_uploaded ON videos(uploaded_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
