package xlsx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"

	"github.com/xuri/excelize/v2"
)

// Header is the column layout of a cargo sheet.
var Header = []string{
	"ID", "Откуда", "Широта погрузки", "Долгота погрузки",
	"Куда", "Широта выгрузки", "Долгота выгрузки",
	"Вес, т", "Ставка, ₽", "Расстояние, км", "Дата погрузки",
	"Тип груза", "Описание", "Контакт", "Телефон",
}

const (
	colID = iota
	colFrom
	colFromLat
	colFromLng
	colTo
	colToLat
	colToLng
	colWeight
	colPrice
	colDistance
	colDate
	colType
	colDescription
	colContact
	colPhone
	columnCount
)

var ErrBadRow = errors.New("bad cargo row")

// RowError describes a skipped row. Row is 1-based as shown in spreadsheet apps.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// ReadFile opens path and reads cargo records from sheet.
func ReadFile(path, sheet string) ([]cargo.Record, []RowError, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadSheet(f, sheet)
}

// ReadSheet reads cargo records, skipping the header row. Rows without a valid id are
// reported and skipped; unreadable numbers become zero and unreadable coordinates nil.
func ReadSheet(f *excelize.File, sheet string) ([]cargo.Record, []RowError, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	var (
		records []cargo.Record
		skipped []RowError
	)
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			skipped = append(skipped, RowError{Row: i + 1, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func parseRow(row []string) (cargo.Record, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	id, err := strconv.ParseInt(cell(colID), 10, 64)
	if err != nil || id <= 0 {
		return cargo.Record{}, fmt.Errorf("%w: id %q", ErrBadRow, cell(colID))
	}

	return cargo.Record{
		ID:              id,
		OriginCity:      cell(colFrom),
		Origin:          parsePoint(cell(colFromLat), cell(colFromLng)),
		DestinationCity: cell(colTo),
		Destination:     parsePoint(cell(colToLat), cell(colToLng)),
		WeightT:         parseNumber(cell(colWeight)),
		PriceRub:        parseNumber(cell(colPrice)),
		DistanceKM:      parseNumber(cell(colDistance)),
		LoadingDate:     parseDate(cell(colDate)),
		CargoType:       cell(colType),
		Description:     cell(colDescription),
		ContactName:     cell(colContact),
		ContactPhone:    cell(colPhone),
	}, nil
}

// parseNumber accepts "1 520", "1520,5" and similar spreadsheet renderings.
func parseNumber(val string) float64 {
	val = strings.ReplaceAll(val, ",", ".")
	val = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, val)
	v, err := strconv.ParseFloat(val, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parsePoint(lat, lng string) *geo.Point {
	la, err1 := parseCoord(lat)
	ln, err2 := parseCoord(lng)
	if err1 != nil || err2 != nil {
		return nil
	}
	p, err := geo.NewPoint(la, ln)
	if err != nil {
		return nil
	}
	return &p
}

// parseCoord accepts both decimal separators.
func parseCoord(val string) (float64, error) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}

var dateLayouts = []string{cargo.DateLayout, "02.01.2006", "01-02-06", "2006/01/02"}

func parseDate(val string) string {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, val); err == nil {
			return d.Format(cargo.DateLayout)
		}
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteFile writes records to a new workbook at path using the stream writer.
func WriteFile(path, sheet string, records []cargo.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, columnCount)
		for c := range row {
			row[c] = ""
		}
		row[colID] = r.ID
		row[colFrom] = r.OriginCity
		row[colTo] = r.DestinationCity
		if r.Origin != nil {
			row[colFromLat], row[colFromLng] = r.Origin.Lat, r.Origin.Lng
		}
		if r.Destination != nil {
			row[colToLat], row[colToLng] = r.Destination.Lat, r.Destination.Lng
		}
		row[colWeight] = r.WeightT
		row[colPrice] = r.PriceRub
		row[colDistance] = r.DistanceKM
		row[colDate] = r.LoadingDate
		row[colType] = r.CargoType
		row[colDescription] = r.Description
		row[colContact] = r.ContactName
		row[colPhone] = r.ContactPhone
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
