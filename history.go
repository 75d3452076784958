// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package boxer

import (
	"database/sql"
	"strings"
	"time"

	"shanhu.io/misc/errcode"

	// sqlite driver
	_ "modernc.org/sqlite"
)

// History keeps the results of past builds in a sqlite database.
type History struct {
	db *sql.DB
}

const historySchema = `
create table if not exists builds (
	id integer primary key autoincrement,
	session text not null,
	start integer not null,
	requested text not null,
	state text not null
);
create table if not exists target_results (
	build integer not null,
	name text not null,
	status text not null,
	artifact text not null,
	build_number integer not null,
	duration integer not null,
	error text not null,
	ran integer not null,
	run_error text not null
);
create index if not exists target_results_name
	on target_results (name, build);
`

// OpenHistory opens or creates the history database.
func OpenHistory(file string) (*History, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, errcode.Annotate(err, "open database")
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, errcode.Annotate(err, "create tables")
	}
	return &History{db: db}, nil
}

// Record saves a build report.
func (h *History) Record(r *BuildReport) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`insert into builds (session, start, requested, state)
		values (?, ?, ?, ?)`,
		r.Session, r.Start.UnixNano(),
		strings.Join(r.Requested, ","), r.State.String(),
	)
	if err != nil {
		return errcode.Annotate(err, "insert build")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, t := range r.Targets {
		if _, err := tx.Exec(
			`insert into target_results (
				build, name, status, artifact, build_number,
				duration, error, ran, run_error
			) values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, t.Name, string(t.Status), t.Artifact, t.BuildNumber,
			int64(t.Duration), t.Error, t.Ran, t.RunError,
		); err != nil {
			return errcode.Annotatef(err, "insert result of %q", t.Name)
		}
	}
	return tx.Commit()
}

// HistoryEntry is a recorded target result.
type HistoryEntry struct {
	Build   int64
	Session string
	Start   time.Time
	State   State

	Result *TargetResult
}

// Recent returns the latest n target results, newest first. When target
// is not empty, only results of that target are returned.
func (h *History) Recent(target string, n int) ([]*HistoryEntry, error) {
	q := `select b.id, b.session, b.start, b.state,
		t.name, t.status, t.artifact, t.build_number, t.duration,
		t.error, t.ran, t.run_error
		from target_results t join builds b on t.build = b.id`
	var args []interface{}
	if target != "" {
		q += ` where t.name = ?`
		args = append(args, target)
	}
	q += ` order by b.id desc, t.rowid asc limit ?`
	args = append(args, n)

	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, errcode.Annotate(err, "query history")
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var start, duration int64
		var state, status string
		e := &HistoryEntry{Result: new(TargetResult)}
		r := e.Result
		if err := rows.Scan(
			&e.Build, &e.Session, &start, &state,
			&r.Name, &status, &r.Artifact, &r.BuildNumber, &duration,
			&r.Error, &r.Ran, &r.RunError,
		); err != nil {
			return nil, err
		}
		e.Start = time.Unix(0, start)
		if err := e.State.UnmarshalText([]byte(state)); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		r.Duration = time.Duration(duration)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }
