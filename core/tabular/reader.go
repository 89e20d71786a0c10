package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"clia-tracker/core/record"

	"golang.org/x/sync/errgroup"
)

// DefaultKeyColumn is the identifier column of CDC CLIA exports.
const DefaultKeyColumn = "CLIA"

// Options controls how a file is parsed.
type Options struct {
	// KeyColumn names the unique identifier column.
	KeyColumn string
	// Columns, when set, declares the column names and marks the input as
	// headerless: the first row is data.
	Columns []string
	// Delimiter is the field separator. Zero means ','.
	Delimiter rune
	// Concurrency bounds LoadAll. Zero or less means 4.
	Concurrency int
}

func (o Options) keyColumn() string {
	if o.KeyColumn == "" {
		return DefaultKeyColumn
	}
	return o.KeyColumn
}

// Opener opens an input by path or URI.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FileOpener opens local files.
type FileOpener struct{}

// Open implements Opener.
func (FileOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// LoadFile loads a local file.
func LoadFile(path string, opts Options) (*record.Set, error) {
	return LoadFrom(context.Background(), FileOpener{}, path, opts)
}

// LoadFrom opens path with the opener and loads it.
func LoadFrom(ctx context.Context, opener Opener, path string, opts Options) (*record.Set, error) {
	rc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot open input", Err: err}
	}
	defer rc.Close()
	return Load(rc, path, opts)
}

// LoadAll loads every path concurrently. Results keep the order of paths.
// The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, opener Opener, paths []string, opts Options) ([]*record.Set, error) {
	sets := make([]*record.Set, len(paths))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set, err := LoadFrom(gctx, opener, path, opts)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

// Load parses a delimited stream into a record set named after source.
func Load(r io.Reader, source string, opts Options) (*record.Set, error) {
	key := opts.keyColumn()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	columns := opts.Columns
	if len(columns) == 0 {
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: source, Reason: "empty file, header row expected"}
		}
		if err != nil {
			return nil, &LoadError{Path: source, Line: 1, Reason: "unreadable header", Err: err}
		}
		columns = cleanHeader(header)
	}

	if err := checkColumns(columns, key); err != nil {
		return nil, &LoadError{Path: source, Reason: err.Error()}
	}

	set := &record.Set{Name: source, KeyColumn: key, Columns: columns}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var line int
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &LoadError{Path: source, Line: line, Reason: "malformed row", Err: err}
		}
		line, _ := cr.FieldPos(0)
		if isBlank(fields) {
			continue
		}
		if len(fields) > len(columns) {
			return nil, &LoadError{
				Path:   source,
				Line:   line,
				Reason: fmt.Sprintf("row has %d fields, header declares %d", len(fields), len(columns)),
			}
		}

		values := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(fields) {
				values[c] = record.Normalize(fields[i])
			} else {
				values[c] = ""
			}
		}
		rec := record.New(key, values)
		if rec.Key == "" {
			return nil, &LoadError{Path: source, Line: line, Reason: fmt.Sprintf("empty %s value", key)}
		}
		rec.Origin = record.Origin{Source: source, Line: line}
		set.Append(rec)
	}
	return set, nil
}

func cleanHeader(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = strings.TrimSpace(h)
	}
	return cols
}

func checkColumns(columns []string, key string) error {
	seen := make(map[string]struct{}, len(columns))
	hasKey := false
	for _, c := range columns {
		if c == "" {
			return errors.New("header contains an empty column name")
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("column %q declared twice", c)
		}
		seen[c] = struct{}{}
		if c == key {
			hasKey = true
		}
	}
	if !hasKey {
		return fmt.Errorf("missing key column %q", key)
	}
	return nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
