package mocks

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
)

// txDriver is a minimal database/sql driver that supports beginning,
// committing and rolling back transactions and nothing else. Transactional
// flows under test do their actual work against the mock stores; the
// transaction object only has to exist and complete.
type txDriver struct{}

func (txDriver) Open(name string) (driver.Conn, error) {
	return txConn{failCommit: name == "fail-commit"}, nil
}

type txConn struct {
	failCommit bool
}

func (txConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements are not supported")
}

func (txConn) Close() error { return nil }

func (c txConn) Begin() (driver.Tx, error) {
	return txTx{failCommit: c.failCommit}, nil
}

type txTx struct {
	failCommit bool
}

func (t txTx) Commit() error {
	if t.failCommit {
		return errors.New("commit refused")
	}
	return nil
}

func (txTx) Rollback() error { return nil }

var registerTxDriver sync.Once

func openTxDB(source string) *sql.DB {
	registerTxDriver.Do(func() {
		sql.Register("mocktx", txDriver{})
	})

	db, err := sql.Open("mocktx", source)
	if err != nil {
		panic(err)
	}
	return db
}

// NewDB returns a database handle whose transactions always begin, commit
// and roll back successfully without touching a real database.
func NewDB() *sql.DB {
	return openTxDB("")
}

// NewCommitFailDB returns a database handle whose transactions begin but
// refuse to commit.
func NewCommitFailDB() *sql.DB {
	return openTxDB("fail-commit")
}
