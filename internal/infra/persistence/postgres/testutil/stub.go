// Package testutil fakes the Postgres server behind the documents table so
// the postgres backend runs without a database.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	createRe = regexp.MustCompile(`(?is)^CREATE TABLE IF NOT EXISTS documents\b`)
	upsertRe = regexp.MustCompile(`(?is)^INSERT INTO documents \(location, payload\) VALUES \(\$1, \$2\) ON CONFLICT \(location\)`)
	selectRe = regexp.MustCompile(`(?is)^SELECT payload FROM documents WHERE location = \$1$`)
)

// StubConn holds the documents table. Upserts made inside a transaction
// become visible on commit.
type StubConn struct {
	mu         sync.Mutex
	docs       map[string][]byte
	pending    map[string][]byte
	Execs      []string
	FailPing   bool
	FailCommit bool
}

// NewStubConn returns an empty documents table.
func NewStubConn() *StubConn { return &StubConn{docs: make(map[string][]byte)} }

var driverSeq atomic.Uint64

// NewStubDB returns a database handle over a fresh table.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := NewStubConn()
	return conn.OpenDB(), conn
}

// OpenDB returns a new pool over the same table, so a backend can be
// reopened after its pool was closed.
func (c *StubConn) OpenDB() *sql.DB {
	name := fmt.Sprintf("stubpg-%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: c})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db
}

// Documents returns a copy of the committed rows keyed by location.
func (c *StubConn) Documents() map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]byte, len(c.docs))
	for loc, payload := range c.docs {
		out[loc] = append([]byte(nil), payload...)
	}
	return out
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *StubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("stub: prepared statements unsupported: %s", query)
}

func (c *StubConn) Close() error { return nil }

func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return nil, fmt.Errorf("stub: transaction already open")
	}
	c.pending = make(map[string][]byte)
	return stubTx{conn: c}, nil
}

func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("stub: server unreachable")
	}
	return nil
}

func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	query = strings.TrimSpace(query)
	c.Execs = append(c.Execs, query)
	switch {
	case createRe.MatchString(query):
		return driver.RowsAffected(0), nil
	case upsertRe.MatchString(query):
		if len(args) != 2 {
			return nil, fmt.Errorf("stub: upsert wants 2 arguments, got %d", len(args))
		}
		loc, _ := args[0].Value.(string)
		payload, _ := args[1].Value.([]byte)
		target := c.docs
		if c.pending != nil {
			target = c.pending
		}
		target[loc] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("stub: unsupported statement: %s", query)
}

func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !selectRe.MatchString(strings.TrimSpace(query)) || len(args) != 1 {
		return nil, fmt.Errorf("stub: unsupported query: %s", query)
	}
	loc, _ := args[0].Value.(string)
	rows := &payloadRows{}
	if payload, ok := c.docs[loc]; ok {
		rows.payloads = [][]byte{append([]byte(nil), payload...)}
	}
	return rows, nil
}

type stubTx struct{ conn *StubConn }

func (t stubTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending
	c.pending = nil
	if c.FailCommit {
		return fmt.Errorf("stub: commit rejected")
	}
	for loc, payload := range pending {
		c.docs[loc] = payload
	}
	return nil
}

func (t stubTx) Rollback() error {
	t.conn.mu.Lock()
	t.conn.pending = nil
	t.conn.mu.Unlock()
	return nil
}

type payloadRows struct {
	payloads [][]byte
}

func (r *payloadRows) Columns() []string { return []string{"payload"} }
func (r *payloadRows) Close() error      { return nil }

func (r *payloadRows) Next(dest []driver.Value) error {
	if len(r.payloads) == 0 {
		return io.EOF
	}
	dest[0] = r.payloads[0]
	r.payloads = r.payloads[1:]
	return nil
}
