package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

// JournalKey holds the indexed columns of a journal entry.
type JournalKey struct {
	ID        string
	Principal string
	Kind      string
	At        time.Time
}

type Journaled interface {
	JournalKey() JournalKey
}

// Filter narrows a journal selection; zero fields match everything.
type Filter struct {
	Principal string
	Kind      string
	After     time.Time
	Limit     int
}

// Journal is an append-only table of JSON objects.
type Journal[T Journaled] struct {
	db    *DB
	table string
}

var tableNameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewJournal creates table on db unless it exists.
func NewJournal[T Journaled](ctx convCtx.Context, db *DB, table string) (j *Journal[T], err error) {
	ctx = ctx.WithScope("db.NewJournal", "table", table)
	defer ctx.Exit(&err)

	if !tableNameRegexp.MatchString(table) {
		err = errors.New("journal table name must be lower snake case")
		return
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS "`+table+`" (
"id" text PRIMARY KEY,
"at" timestamp NOT NULL,
"principal" text NOT NULL,
"kind" text NOT NULL,
"created_at" timestamp NOT NULL,
"created_by" text NOT NULL,
"object" JSONB NULL
);
CREATE INDEX IF NOT EXISTS "`+table+`_at" ON "`+table+`" ("at");`)
	if err != nil {
		return
	}

	j = &Journal[T]{db: db, table: table}
	return
}

func (j *Journal[T]) Append(ctx convCtx.Context, obj T) (err error) {
	ctx = ctx.WithScope("db.Journal.Append", "table", j.table)
	defer ctx.Exit(&err)

	key := obj.JournalKey()

	bytes, err := json.Marshal(obj)
	if err != nil {
		return
	}

	_, err = j.db.ExecContext(ctx, `INSERT INTO "`+j.table+`"
("id","at","principal","kind","created_at","created_by","object")
VALUES($1,$2,$3,$4,$5,$6,$7)`,
		key.ID, key.At.UTC(), key.Principal, key.Kind, ctx.Now(), string(ctx.User()), bytes)

	return
}

// Select returns the matching entries ordered by time.
func (j *Journal[T]) Select(ctx convCtx.Context, f Filter) (res []T, err error) {
	ctx = ctx.WithScope("db.Journal.Select", "table", j.table)
	defer ctx.Exit(&err)

	var (
		where []string
		args  []any
	)
	if f.Principal != "" {
		args = append(args, f.Principal)
		where = append(where, `"principal"=$`+strconv.Itoa(len(args)))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		where = append(where, `"kind"=$`+strconv.Itoa(len(args)))
	}
	if !f.After.IsZero() {
		args = append(args, f.After.UTC())
		where = append(where, `"at">$`+strconv.Itoa(len(args)))
	}

	query := `SELECT "object" FROM "` + j.table + `"`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY "at", "id"`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return
	}
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {

		var (
			bytes []byte
			obj   T
		)

		err = rows.Scan(&bytes)
		if err != nil {
			return
		}

		err = json.Unmarshal(bytes, &obj)
		if err != nil {
			return
		}

		res = append(res, obj)
	}

	err = rows.Err()
	return
}
