package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Inventory — набор данных инвентаря клиники. Загружается один раз при старте
// и далее только читается, поэтому разделяется между запросами без блокировок.
type Inventory struct {
	raw     []byte
	pretty  string
	entries int
}

// NewInventory проверяет, что data — валидный JSON, и готовит его текстовое
// представление с отступом в два пробела. Порядок ключей сохраняется.
func NewInventory(data []byte) (*Inventory, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("inventory is empty")
	}
	if !json.Valid(data) {
		return nil, errors.New("inventory is not valid JSON")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("indent inventory: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}

	raw := make([]byte, len(data))
	copy(raw, data)
	return &Inventory{raw: raw, pretty: buf.String(), entries: countEntries(doc)}, nil
}

// LoadInventoryFile читает JSON-документ с диска.
func LoadInventoryFile(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory %q: %w", path, err)
	}
	inv, err := NewInventory(data)
	if err != nil {
		return nil, fmt.Errorf("load inventory %q: %w", path, err)
	}
	return inv, nil
}

// Pretty возвращает документ в виде JSON с отступами.
func (i *Inventory) Pretty() string { return i.pretty }

// Raw возвращает копию исходного документа.
func (i *Inventory) Raw() []byte {
	out := make([]byte, len(i.raw))
	copy(out, i.raw)
	return out
}

// Entries: длина массива, число ключей объекта, 1 для скаляра.
func (i *Inventory) Entries() int { return i.entries }

func countEntries(doc interface{}) int {
	switch v := doc.(type) {
	case []interface{}:
		return len(v)
	case map[string]interface{}:
		return len(v)
	case nil:
		return 0
	default:
		return 1
	}
}
