package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// QueryParams selects and pages the rows of a table.
type QueryParams struct {
	// Where is a filter without the WHERE keyword, e.g. "RunID = ?".
	Where string
	Args  []any

	// OrderBy is a sort order without the ORDER BY keywords, e.g. "Seq".
	OrderBy string

	// Limit of 0 returns every row.
	Limit  int
	Offset int
}

func (p QueryParams) filter() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) page() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", p.Limit, p.Offset)
	}

	return b.String()
}

// A Reader reads the tables written by a DataRecorder back into the entry
// types they were recorded from.
type Reader struct {
	db *sql.DB
}

// NewReader opens a recording read-only.
func NewReader(dbFilename string) (*Reader, error) {
	db, err := sql.Open("sqlite3", "file:"+dbFilename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", dbFilename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a Reader on an open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Count returns the number of rows of a table that pass the filter of
// params. Ordering and paging are ignored.
func (r *Reader) Count(
	ctx context.Context,
	table string,
	params QueryParams,
) (int, error) {
	var n int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+params.filter(),
		params.Args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}

	return n, nil
}

// Query reads rows of a table into entries of type T, which must be the
// struct the table was created from. Only the columns named after fields of
// T are selected.
func Query[T any](
	ctx context.Context,
	r *Reader,
	table string,
	params QueryParams,
) ([]T, error) {
	var sample T
	if reflect.TypeOf(sample).Kind() != reflect.Struct {
		panic(fmt.Sprintf("cannot read %s into %T", table, sample))
	}

	columns := structs.Names(sample)

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+strings.Join(columns, ", ")+" FROM "+table+
			params.filter()+params.page(),
		params.Args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	var entries []T

	for rows.Next() {
		var entry T

		v := reflect.ValueOf(&entry).Elem()
		targets := make([]any, len(columns))

		for i, name := range columns {
			targets[i] = v.FieldByName(name).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
