// seed_lots genera un script SQL con lotes iniciales de bodega a partir de un CSV.
//
// Uso: go run ./cmd/seed_lots lotes.csv [salida.sql]
// Sin salida escribe en stdout. El CSV puede venir en UTF-8 o ISO-8859-1 (exportes de Excel).
//
// Columnas (con encabezado): enterprise_id,warehouse_id,item_name,description,quantity,unit_price,reorder_level
package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-traslados/internal/domain/entity"
)

var columns = []string{"enterprise_id", "warehouse_id", "item_name", "description", "quantity", "unit_price", "reorder_level"}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_lots lotes.csv [salida.sql]")
		os.Exit(2)
	}
	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	lots, err := parseLots(decode(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "CSV inválido: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if len(os.Args) > 2 {
		f, err := os.Create(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := writeSQL(out, lots); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generados %d lotes\n", len(lots))
}

// decode devuelve un lector UTF-8: si el archivo no es UTF-8 válido se asume ISO-8859-1.
func decode(raw []byte) io.Reader {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

func parseLots(r io.Reader) ([]*entity.StockLot, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("archivo vacío")
	}
	idx := make(map[string]int, len(columns))
	for i, h := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	var lots []*entity.StockLot
	for n, rec := range records[1:] {
		line := n + 2
		get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }

		qty, err := strconv.ParseInt(get("quantity"), 10, 64)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("línea %d: quantity debe ser un entero > 0", line)
		}
		price := decimal.Zero
		if s := get("unit_price"); s != "" {
			if price, err = decimal.NewFromString(strings.ReplaceAll(s, ",", ".")); err != nil {
				return nil, fmt.Errorf("línea %d: unit_price inválido: %w", line, err)
			}
		}
		var reorder int64
		if s := get("reorder_level"); s != "" {
			if reorder, err = strconv.ParseInt(s, 10, 64); err != nil || reorder < 0 {
				return nil, fmt.Errorf("línea %d: reorder_level inválido", line)
			}
		}
		name := entity.NormalizeItemName(get("item_name"))
		if name == "" || get("warehouse_id") == "" || get("enterprise_id") == "" {
			return nil, fmt.Errorf("línea %d: enterprise_id, warehouse_id e item_name son obligatorios", line)
		}
		lots = append(lots, &entity.StockLot{
			ID:           uuid.Must(uuid.NewV7()).String(),
			EnterpriseID: get("enterprise_id"),
			ItemName:     name,
			Description:  get("description"),
			Quantity:     qty,
			Location:     entity.WarehouseLocation(get("warehouse_id")),
			UnitPrice:    price,
			ReorderLevel: reorder,
		})
	}
	return lots, nil
}

func writeSQL(w io.Writer, lots []*entity.StockLot) error {
	var b strings.Builder
	b.WriteString("-- Lotes iniciales de bodega\n-- Generado por cmd/seed_lots\n\n")
	if len(lots) == 0 {
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString("INSERT INTO stock_lots (id, enterprise_id, item_name, description, quantity, location_type, location_id, unit_price, reorder_level) VALUES\n")
	for i, l := range lots {
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', %d, '%s', '%s', %s, %d)",
			l.ID, escapeSQL(l.EnterpriseID), escapeSQL(l.ItemName), escapeSQL(l.Description), l.Quantity,
			l.Location.Type, escapeSQL(l.Location.ID), l.UnitPrice.StringFixed(2), l.ReorderLevel)
		if i < len(lots)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString(";\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
