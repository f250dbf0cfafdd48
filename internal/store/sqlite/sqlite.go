// Package sqlite persists conversations, listings, sent-message hashes and
// the send log in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"outreach/internal/model"
)

// DB wraps the outreach database.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// one connection keeps :memory: databases and write ordering consistent
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, errors.Wrap(err, "pragma")
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS conversations (
	  listing_id TEXT PRIMARY KEY,
	  seller_id TEXT NOT NULL DEFAULT '',
	  payload TEXT NOT NULL,
	  updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conv_seller ON conversations(seller_id);
	CREATE TABLE IF NOT EXISTS listings (
	  listing_id TEXT PRIMARY KEY,
	  url TEXT NOT NULL DEFAULT '',
	  seller_id TEXT NOT NULL DEFAULT '',
	  raw_text TEXT NOT NULL,
	  added_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sent_hashes (
	  hash TEXT PRIMARY KEY,
	  ts INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS actions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actions_ts ON actions(ts, type);
	CREATE TABLE IF NOT EXISTS events (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL,
	  payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	`)
	return err
}

// SaveConversation upserts the JSON state of one conversation.
func (d *DB) SaveConversation(ctx context.Context, st model.ConversationState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal conversation")
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO conversations(listing_id, seller_id, payload, updated_at) VALUES(?,?,?,?)
	ON CONFLICT(listing_id) DO UPDATE SET seller_id=excluded.seller_id, payload=excluded.payload, updated_at=excluded.updated_at`,
		st.ListingID, st.SellerID, string(b), time.Now().Unix())
	return errors.Wrapf(err, "save conversation %s", st.ListingID)
}

// LoadConversations returns all conversations in first-saved order.
func (d *DB) LoadConversations(ctx context.Context) ([]*model.ConversationState, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT payload FROM conversations ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "query conversations")
	}
	defer rows.Close()
	var out []*model.ConversationState
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		st := &model.ConversationState{}
		if err := json.Unmarshal([]byte(payload), st); err != nil {
			return nil, errors.Wrap(err, "decode conversation")
		}
		if st.MessagesSent == nil {
			st.MessagesSent = []model.Message{}
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ContactedSellers lists the distinct non-empty seller ids of all conversations.
func (d *DB) ContactedSellers(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT DISTINCT seller_id FROM conversations WHERE seller_id<>'' ORDER BY seller_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query sellers")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Listing is the raw text a conversation was started from.
type Listing struct {
	ID       string
	URL      string
	SellerID string
	RawText  string
	AddedAt  time.Time
}

func (d *DB) SaveListing(ctx context.Context, l Listing) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO listings(listing_id, url, seller_id, raw_text, added_at) VALUES(?,?,?,?,?)
	ON CONFLICT(listing_id) DO UPDATE SET url=excluded.url, seller_id=excluded.seller_id, raw_text=excluded.raw_text`,
		l.ID, l.URL, l.SellerID, l.RawText, l.AddedAt.Unix())
	return errors.Wrapf(err, "save listing %s", l.ID)
}

// LoadListing returns sql.ErrNoRows (wrapped) for unknown ids.
func (d *DB) LoadListing(ctx context.Context, id string) (Listing, error) {
	var l Listing
	var added int64
	err := d.sql.QueryRowContext(ctx, `SELECT listing_id, url, seller_id, raw_text, added_at FROM listings WHERE listing_id=?`, id).
		Scan(&l.ID, &l.URL, &l.SellerID, &l.RawText, &added)
	if err != nil {
		return Listing{}, errors.Wrapf(err, "load listing %s", id)
	}
	l.AddedAt = time.Unix(added, 0).UTC()
	return l, nil
}

// AddSentHash remembers a sent message hash; repeats are ignored.
func (d *DB) AddSentHash(ctx context.Context, hash string, ts time.Time) error {
	_, err := d.sql.ExecContext(ctx, `INSERT OR IGNORE INTO sent_hashes(hash, ts) VALUES(?,?)`, hash, ts.Unix())
	return errors.Wrap(err, "add sent hash")
}

func (d *DB) SentHashes(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT hash FROM sent_hashes ORDER BY ts, hash`)
	if err != nil {
		return nil, errors.Wrap(err, "query sent hashes")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// PutAction appends to the send log used for budgets.
func (d *DB) PutAction(ctx context.Context, ts time.Time, typ string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO actions(ts, type) VALUES(?,?)`, ts.Unix(), typ)
	return errors.Wrap(err, "put action")
}

// CountActionsWithin counts actions of typ in [start, end).
func (d *DB) CountActionsWithin(ctx context.Context, start, end time.Time, typ string) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions WHERE ts>=? AND ts<? AND type=?`, start.Unix(), end.Unix(), typ).Scan(&n)
	return n, errors.Wrap(err, "count actions")
}

// PutEvent stores an outreach event such as a sent message or a reply.
func (d *DB) PutEvent(ctx context.Context, ts time.Time, typ string, payload any) error {
	pb, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO events(ts, type, payload) VALUES(?,?,?)`, ts.Unix(), typ, string(pb))
	return errors.Wrap(err, "put event")
}

// LoadEventsRange returns events in [start, end); an empty typ matches all.
func (d *DB) LoadEventsRange(ctx context.Context, start, end time.Time, typ string) ([]model.Event, error) {
	var rows *sql.Rows
	var err error
	if typ == "" {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, type, payload FROM events WHERE ts>=? AND ts<? ORDER BY ts, id`, start.Unix(), end.Unix())
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, type, payload FROM events WHERE ts>=? AND ts<? AND type=? ORDER BY ts, id`, start.Unix(), end.Unix(), typ)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var ts int64
		var e model.Event
		var payload sql.NullString
		if err := rows.Scan(&ts, &e.Type, &payload); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		e.Payload = payload.String
		out = append(out, e)
	}
	return out, rows.Err()
}
