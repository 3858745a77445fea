package library

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"building-converter/internal/common/metrics"
	"building-converter/internal/converter/models"
)

//go:embed schema.sql
var schemaSQL string

//go:embed seed.sql
var seedSQL string

// ============================================================
// SQLite Library
// ============================================================

// SQLite serves materials and layers from a sqlite database. All rows are
// read on the first successful lookup; the library is read-only afterwards.
// A failed read is not kept, the next lookup tries again.
type SQLite struct {
	db      *sql.DB
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries *Static
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// WithMetrics counts lookups on m.
func (s *SQLite) WithMetrics(m *metrics.Metrics) *SQLite {
	s.metrics = m
	return s
}

// Init создает схему и заполняет справочник, если он пуст.
func (s *SQLite) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&n); err != nil {
		return fmt.Errorf("count materials: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, seedSQL); err != nil {
		return fmt.Errorf("seed library: %w", err)
	}
	return nil
}

func (s *SQLite) Material(ctx context.Context, name string) (*models.Command, bool, error) {
	if err := s.load(ctx); err != nil {
		return nil, false, err
	}
	m, ok, _ := s.entries.Material(ctx, name)
	s.metrics.LibraryLookup("material", ok)
	return m, ok, nil
}

func (s *SQLite) Layer(ctx context.Context, name string) (*models.Command, bool, error) {
	if err := s.load(ctx); err != nil {
		return nil, false, err
	}
	l, ok, _ := s.entries.Layer(ctx, name)
	s.metrics.LibraryLookup("layer", ok)
	return l, ok, nil
}

// Ping checks that the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// ============================================================
// Loading
// ============================================================

func (s *SQLite) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries != nil {
		return nil
	}
	entries, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	s.entries = entries
	return nil
}

func (s *SQLite) readAll(ctx context.Context) (*Static, error) {
	var cmds []*models.Command

	rows, err := s.db.QueryContext(ctx, `
        SELECT name, type, thickness, conductivity, density, specific_heat, resistance
        FROM materials
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, typ                                              string
			thickness, conductivity, density, specificHeat, resist sql.NullFloat64
		)
		if err := rows.Scan(&name, &typ, &thickness, &conductivity, &density, &specificHeat, &resist); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		m := models.NewCommand(name, "MATERIAL", 0)
		m.Set("TYPE", typ)
		setFloat(m, "THICKNESS", thickness)
		setFloat(m, "CONDUCTIVITY", conductivity)
		setFloat(m, "DENSITY", density)
		setFloat(m, "SPECIFIC-HEAT", specificHeat)
		setFloat(m, "RESISTANCE", resist)
		cmds = append(cmds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read materials: %w", err)
	}

	layers, err := s.readLayers(ctx)
	if err != nil {
		return nil, err
	}
	return NewStatic(append(cmds, layers...)), nil
}

func (s *SQLite) readLayers(ctx context.Context) ([]*models.Command, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT l.name, lm.material
        FROM layers l
        LEFT JOIN layer_materials lm ON lm.layer = l.name
        ORDER BY l.name, lm.position
    `)
	if err != nil {
		return nil, fmt.Errorf("query layers: %w", err)
	}
	defer rows.Close()

	var (
		out      []*models.Command
		current  string
		material []string
	)
	flush := func() {
		if current == "" {
			return
		}
		l := models.NewCommand(current, "LAYERS", 0)
		l.Set("MATERIAL", formatList(material))
		out = append(out, l)
	}

	for rows.Next() {
		var name string
		var mat sql.NullString
		if err := rows.Scan(&name, &mat); err != nil {
			return nil, fmt.Errorf("scan layer: %w", err)
		}
		if name != current {
			flush()
			current, material = name, nil
		}
		if mat.Valid {
			material = append(material, mat.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read layers: %w", err)
	}
	flush()
	return out, nil
}

func setFloat(cmd *models.Command, key string, v sql.NullFloat64) {
	if v.Valid {
		cmd.Set(key, strconv.FormatFloat(v.Float64, 'f', -1, 64))
	}
}

// formatList renders names the way a document writes them: ( "a", "b" ).
func formatList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "( " + strings.Join(quoted, ", ") + " )"
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
