// Package report renders stock data as XLSX workbooks.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/xuri/excelize/v2"
)

// Names resolves ids to display names for the ledger sheet. Missing ids are
// printed as numbers.
type Names struct {
	Materials map[int64]string
	Users     map[int64]string
}

func StockWorkbook(ms []materials.Material) ([]byte, error) {
	header := []any{"id", "nome", "categoria", "classe", "quantidade", "unidade", "local"}
	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		q, _ := m.Quantity.Float64()
		rows = append(rows, []any{m.ID, m.Name, m.Category, string(m.Class), q, string(m.Unit), m.Location})
	}
	return build("Estoque", header, rows)
}

func LedgerWorkbook(es []inventory.Entry, names Names, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	header := []any{"id", "material", "antes", "depois", "delta", "responsavel", "agendamento", "data"}
	rows := make([][]any, 0, len(es))
	for _, e := range es {
		before, _ := e.Before.Float64()
		after, _ := e.After.Float64()
		delta, _ := e.Delta.Float64()
		var booking any = ""
		if e.BookingID != nil {
			booking = *e.BookingID
		}
		rows = append(rows, []any{
			e.ID,
			lookup(names.Materials, e.MaterialID),
			before, after, delta,
			lookup(names.Users, e.ActorID),
			booking,
			e.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		})
	}
	return build("Movimentacoes", header, rows)
}

func lookup(m map[int64]string, id int64) any {
	if n, ok := m[id]; ok {
		return n
	}
	return id
}

func build(sheet string, header []any, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
