package sqlog

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// DB journals gateway traffic into MySQL: one row per outbound part and
// receiver, one per inbound message; a delivery report updates the status
// of the matching outbound row.
type DB struct {
	db *sql.DB
}

func Connect(url string) (*DB, error) {
	db, err := sql.Open("mysql", url) //"/cmppsms?charset=utf8"
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Sent records one acknowledged outbound part.
func (db *DB) Sent(to string, msgId int64, part, total int) error {
	stmt, err := db.db.Prepare(`INSERT log SET called=?,msgid=?,part=?,total=?,inbound=0`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(to, msgId, part, total)
	return err
}

// Received records one mobile-originated message.
func (db *DB) Received(from, to, text string, msgId int64) error {
	stmt, err := db.db.Prepare(`INSERT log SET calling=?,called=?,text=?,msgid=?,inbound=1`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(from, to, text, msgId)
	return err
}

// Report records a delivery report for an earlier submit.
func (db *DB) Report(msgId int64, stat, to string) error {
	stmt, err := db.db.Prepare(`UPDATE log SET stat=? WHERE msgid=? AND called=? AND inbound=0`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(stat, msgId, to)
	return err
}
