package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTracer records every transaction into the `access` table of a SQLite
// database. Records are buffered and written in batches.
type SQLiteTracer struct {
	*sql.DB
	statement *sql.Stmt

	dbName string

	lock      sync.Mutex
	pending   []Access
	batchSize int
	seq       uint64
}

// NewSQLiteTracer creates a tracer that writes into path + ".sqlite3". If path
// is empty, a unique name is generated. Buffered records are flushed when the
// program exits through atexit.
func NewSQLiteTracer(path string) *SQLiteTracer {
	t := &SQLiteTracer{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { t.Flush() })

	return t
}

// NewSQLiteTracerWithDB creates a tracer that writes into an opened database.
func NewSQLiteTracerWithDB(db *sql.DB) *SQLiteTracer {
	t := &SQLiteTracer{
		DB:        db,
		batchSize: 100000,
	}

	atexit.Register(func() { t.Flush() })

	return t
}

// WithBatchSize sets how many records are buffered before a flush.
func (t *SQLiteTracer) WithBatchSize(n int) *SQLiteTracer {
	if n <= 0 {
		panic("batch size must be positive")
	}

	t.batchSize = n

	return t
}

// FileName returns the database file, or "" if the tracer was given a
// database.
func (t *SQLiteTracer) FileName() string {
	if t.dbName == "" {
		return ""
	}

	return t.dbName + ".sqlite3"
}

// Init establishes a connection to the database and creates the table.
func (t *SQLiteTracer) Init() {
	if t.DB == nil {
		t.createDatabase()
	}

	t.createTable()
	t.prepareStatement()
}

func (t *SQLiteTracer) createDatabase() {
	if t.dbName == "" {
		t.dbName = "memmodel_trace_" + xid.New().String()
	}

	filename := t.FileName()

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Transactions are recorded in %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTracer) createTable() {
	t.mustExecute(`
		create table if not exists access
		(
			seq          integer     not null,
			kind         varchar(10) not null,
			address      integer     not null,
			data         integer     not null,
			byte_enable  integer     not null,
			node         integer     not null,
			effective    integer     not null,
			lane         integer     not null,
			width        integer     not null,
			error        text        default ''
		);
	`)

	t.mustExecute(`
		create index if not exists access_address_index
			on access (node, address);
	`)
}

func (t *SQLiteTracer) prepareStatement() {
	sqlStr := `
		INSERT INTO access
		(seq, kind, address, data, byte_enable, node, effective, lane, width,
			error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

// Func buffers the access record.
func (t *SQLiteTracer) Func(ctx HookCtx) {
	access, ok := accessFromCtx(ctx)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.pending = append(t.pending, access)
	if len(t.pending) >= t.batchSize {
		t.flush()
	}
}

// Flush writes all the buffered records to the database.
func (t *SQLiteTracer) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.flush()
}

func (t *SQLiteTracer) flush() {
	if len(t.pending) == 0 {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	stmt := tx.Stmt(t.statement)

	for _, a := range t.pending {
		errStr := ""
		if a.Err != nil {
			errStr = a.Err.Error()
		}

		_, err := stmt.Exec(
			t.seq,
			a.Txn.Kind.String(),
			a.Txn.Address,
			a.Txn.Data,
			a.Txn.ByteEnable,
			a.Txn.Node,
			a.EffectiveAddress,
			a.Lane,
			a.Width,
			errStr,
		)
		if err != nil {
			_ = tx.Rollback()
			panic(err)
		}

		t.seq++
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	t.pending = nil
}

func (t *SQLiteTracer) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
