// Package sqlite is the local order journal: every order applied by the
// sync service is mirrored into a single-file database so a restarted
// device has something to show before the first sync_state arrives.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/suyeshs/hands-free-sub005/internal/models"
	"github.com/suyeshs/hands-free-sub005/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	order_number  TEXT NOT NULL,
	table_number  INTEGER,
	status        TEXT NOT NULL,
	payload       TEXT NOT NULL,
	kitchen_order TEXT,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

// Journal persists applied orders to a local sqlite file
type Journal struct {
	db *sql.DB
}

var _ store.Persister = (*Journal)(nil)

// Open creates or opens the journal at path
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open order journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// SaveOrder upserts an order and its kitchen ticket
func (j *Journal) SaveOrder(order models.Order, kitchenOrder models.KitchenOrder) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}
	kot, err := json.Marshal(kitchenOrder)
	if err != nil {
		return err
	}

	_, err = j.db.Exec(`
		INSERT INTO orders (id, order_number, table_number, status, payload, kitchen_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			payload = excluded.payload,
			kitchen_order = excluded.kitchen_order,
			updated_at = excluded.updated_at`,
		order.ID, order.OrderNumber, order.TableNumber, string(order.Status),
		string(payload), string(kot), order.CreatedAt, time.Now())
	return err
}

// UpdateOrderStatus sets an order's status in the journal
func (j *Journal) UpdateOrderStatus(orderID string, status models.OrderStatus) error {
	_, err := j.db.Exec(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), orderID)
	return err
}

// ActiveOrders loads the non-terminal orders back out of the journal
func (j *Journal) ActiveOrders() ([]models.Order, error) {
	rows, err := j.db.Query(`SELECT payload FROM orders WHERE status NOT IN ('completed', 'cancelled')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var order models.Order
		if err := json.Unmarshal([]byte(payload), &order); err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// Close closes the journal
func (j *Journal) Close() error {
	return j.db.Close()
}
