// Package keychain stores named login credentials in sqlite so CLI
// invocations can share them across runs.
package keychain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jishux2/bilibili-api/lib/credential"
	"github.com/jishux2/bilibili-api/lib/timezone"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

var ErrNotFound = errors.New("no credential stored under that name")

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type Entry struct {
	Name       string
	Credential credential.Credential
	UpdatedAt  time.Time
}

// Put saves cred under name, replacing whatever was there before.
func (s Store) Put(ctx context.Context, name string, cred credential.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (name, sessdata, bili_jct, buvid3, dedeuserid, ac_time_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			sessdata = excluded.sessdata,
			bili_jct = excluded.bili_jct,
			buvid3 = excluded.buvid3,
			dedeuserid = excluded.dedeuserid,
			ac_time_value = excluded.ac_time_value,
			updated_at = excluded.updated_at
	`,
		name,
		cred.SessData,
		cred.BiliJct,
		cred.Buvid3,
		cred.DedeUserID,
		cred.AcTimeValue,
		timezone.Now().Unix(),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var updatedAt int64
	err := row.Scan(
		&e.Name,
		&e.Credential.SessData,
		&e.Credential.BiliJct,
		&e.Credential.Buvid3,
		&e.Credential.DedeUserID,
		&e.Credential.AcTimeValue,
		&updatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = timezone.Unix(updatedAt)
	return e, nil
}

func (s Store) Get(ctx context.Context, name string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, sessdata, bili_jct, buvid3, dedeuserid, ac_time_value, updated_at
		FROM credentials WHERE name = ?
	`, name)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sessdata, bili_jct, buvid3, dedeuserid, ac_time_value, updated_at
		FROM credentials ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the credential stored under name. Deleting a name
// that was never stored is not an error.
func (s Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, name)
	return err
}
