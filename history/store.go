// Package history 把频道聊天记录保存到 SQLite，并按“锚点之前的最近 N 条”取回。
package history

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/ByLCY/weeed/layout"
)

const schema = `CREATE TABLE IF NOT EXISTS messages (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL,
  ts TEXT NOT NULL,
  channel TEXT NOT NULL,
  author_id TEXT NOT NULL,
  author_name TEXT NOT NULL DEFAULT '',
  text TEXT NOT NULL,
  UNIQUE (channel, id)
);
CREATE INDEX IF NOT EXISTS idx_messages_channel_ts ON messages (channel, ts, seq);`

// ErrNotFound 表示锚点消息不存在。
var ErrNotFound = errors.New("message not found")

// Record 是一条原始聊天消息。
type Record struct {
	ID         string
	Channel    string
	AuthorID   string
	AuthorName string
	Text       string
	Ts         time.Time
}

// Store 是基于 SQLite 的聊天记录。
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）path 处的数据库。
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=wal;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append 写入一条消息，同一频道内重复的 id 会被忽略。
func (s *Store) Append(ctx context.Context, rec Record) error {
	const q = `INSERT INTO messages (id, ts, channel, author_id, author_name, text)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(channel, id) DO NOTHING;`
	if rec.ID == "" || rec.Channel == "" || rec.AuthorID == "" {
		return errors.Wrapf(layout.ErrInvalidInput, "message %q is missing id, channel or author", rec.ID)
	}
	ts := rec.Ts
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, q, rec.ID, formatTs(ts), rec.Channel, rec.AuthorID, rec.AuthorName, rec.Text)
	return errors.Wrap(err, "insert message")
}

// Latest 返回频道中最近的 limit 条消息，按时间正序。
func (s *Store) Latest(ctx context.Context, channel string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	const q = `SELECT id, ts, channel, author_id, author_name, text FROM messages
WHERE channel = ?
ORDER BY ts DESC, seq DESC LIMIT ?;`
	recs, err := s.query(ctx, q, channel, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(recs)
	return recs, nil
}

// Before 返回锚点之前的 limit-1 条消息，锚点本身排在最后，总数不超过 limit。
func (s *Store) Before(ctx context.Context, channel, anchorID string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	anchor, seq, err := s.find(ctx, channel, anchorID)
	if err != nil {
		return nil, err
	}
	const q = `SELECT id, ts, channel, author_id, author_name, text FROM messages
WHERE channel = ? AND (ts < ? OR (ts = ? AND seq < ?))
ORDER BY ts DESC, seq DESC LIMIT ?;`
	ts := formatTs(anchor.Ts)
	recs, err := s.query(ctx, q, channel, ts, ts, seq, limit-1)
	if err != nil {
		return nil, err
	}
	slices.Reverse(recs)
	return append(recs, anchor), nil
}

func (s *Store) find(ctx context.Context, channel, id string) (Record, int64, error) {
	const q = `SELECT seq, id, ts, channel, author_id, author_name, text FROM messages
WHERE channel = ? AND id = ?;`
	var (
		rec Record
		seq int64
		ts  string
	)
	err := s.db.QueryRowContext(ctx, q, channel, id).
		Scan(&seq, &rec.ID, &ts, &rec.Channel, &rec.AuthorID, &rec.AuthorName, &rec.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, 0, errors.Wrapf(ErrNotFound, "anchor %s in channel %s", id, channel)
	}
	if err != nil {
		return Record{}, 0, errors.Wrap(err, "find anchor")
	}
	rec.Ts = parseTs(ts)
	return rec, seq, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec Record
			ts  string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Channel, &rec.AuthorID, &rec.AuthorName, &rec.Text); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		rec.Ts = parseTs(ts)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate messages")
	}
	return out, nil
}

// Messages 把记录转换为布局阶段使用的消息，Position 为在结果中的下标。
func Messages(recs []Record) []layout.Message {
	out := make([]layout.Message, len(recs))
	for i, r := range recs {
		out[i] = layout.Message{AuthorID: r.AuthorID, Text: r.Text, Position: i}
	}
	return out
}

// 固定宽度的纳秒时间戳，保证字符串排序与时间排序一致。
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTs(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTs(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
