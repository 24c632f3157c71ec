// Package sqlite persists graph snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"patchbay/internal/domain"
)

// Repository stores the diagram graph in SQLite. The graph is saved as a
// whole snapshot: devices carry a msgpack blob for the full record plus
// indexed columns for the fields queries care about.
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		w REAL NOT NULL,
		h REAL NOT NULL,
		data BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		from_device TEXT NOT NULL,
		from_port TEXT NOT NULL,
		to_device TEXT NOT NULL,
		to_port TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (from_device) REFERENCES devices(id) ON DELETE CASCADE,
		FOREIGN KEY (to_device) REFERENCES devices(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_devices_type ON devices(type);
	CREATE INDEX IF NOT EXISTS idx_connections_from ON connections(from_device);
	CREATE INDEX IF NOT EXISTS idx_connections_to ON connections(to_device);
	`

	_, err := r.db.Exec(schema)
	return err
}

// LoadGraph reads the stored snapshot. An empty database yields an empty
// graph, not an error.
func (r *Repository) LoadGraph(ctx context.Context) (*domain.GraphState, error) {
	g := domain.NewGraphState()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, x, y, w, h, data FROM devices ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, devType string
			x, y, w, h  float64
			data        []byte
		)
		if err := rows.Scan(&id, &devType, &x, &y, &w, &h, &data); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		var dev domain.Device
		if err := msgpack.Unmarshal(data, &dev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device data: %w", err)
		}

		// Indexed columns win over the blob.
		dev.ID = id
		dev.Type = devType
		dev.X = x
		dev.Y = y
		dev.W = w
		dev.H = h
		if dev.Ports == nil {
			dev.Ports = make([]domain.Port, 0)
		}

		g.Devices = append(g.Devices, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}

	connRows, err := r.db.QueryContext(ctx, `
		SELECT id, from_device, from_port, to_device, to_port FROM connections ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer connRows.Close()

	for connRows.Next() {
		var id, fromDev, fromPort, toDev, toPort string
		if err := connRows.Scan(&id, &fromDev, &fromPort, &toDev, &toPort); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		g.Connections = append(g.Connections, domain.Connection{
			ID:   id,
			From: domain.ConnectionEnd{DeviceID: fromDev, PortID: fromPort},
			To:   domain.ConnectionEnd{DeviceID: toDev, PortID: toPort},
		})
	}
	if err := connRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("stored graph is invalid: %w", err)
	}
	return g, nil
}

// SaveGraph replaces the stored snapshot with g.
func (r *Repository) SaveGraph(ctx context.Context, g *domain.GraphState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Clear in dependency order.
	if _, err := tx.ExecContext(ctx, `DELETE FROM connections`); err != nil {
		return fmt.Errorf("failed to clear connections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("failed to clear devices: %w", err)
	}

	devStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO devices (id, type, x, y, w, h, data) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare device statement: %w", err)
	}
	defer devStmt.Close()

	for _, dev := range g.Devices {
		data, err := msgpack.Marshal(&dev)
		if err != nil {
			return fmt.Errorf("failed to marshal device %s: %w", dev.ID, err)
		}
		if _, err := devStmt.ExecContext(ctx, dev.ID, dev.Type, dev.X, dev.Y, dev.W, dev.H, data); err != nil {
			return fmt.Errorf("failed to insert device %s: %w", dev.ID, err)
		}
	}

	connStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO connections (id, from_device, from_port, to_device, to_port)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare connection statement: %w", err)
	}
	defer connStmt.Close()

	for _, conn := range g.Connections {
		if _, err := connStmt.ExecContext(ctx, conn.ID, conn.From.DeviceID, conn.From.PortID, conn.To.DeviceID, conn.To.PortID); err != nil {
			return fmt.Errorf("failed to insert connection %s: %w", conn.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES ('last_saved', ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store save timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LastSaved reports when the snapshot was last written. The zero time
// means the database has never been saved to.
func (r *Repository) LastSaved(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'last_saved'`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query metadata: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse save timestamp: %w", err)
	}
	return ts, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}
