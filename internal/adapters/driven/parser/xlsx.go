package parser

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driven.Parser = (*XLSXParser)(nil)

// XLSXParser handles .xlsx files by reading the OOXML archive directly.
// Each non-empty data row becomes one table_row chunk with headers from
// the sheet's first row echoed for context.
type XLSXParser struct{}

// NewXLSXParser creates an XLSX parser.
func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// FileType returns the format this parser handles.
func (p *XLSXParser) FileType() domain.FileType {
	return domain.FileTypeXLSX
}

// workbookXML mirrors xl/workbook.xml.
type workbookXML struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// sharedStringsXML mirrors xl/sharedStrings.xml. Rich-text strings are
// split into runs; both plain and run forms are captured.
type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// worksheetXML mirrors xl/worksheets/sheetN.xml.
type worksheetXML struct {
	SheetData struct {
		Rows []struct {
			Ref   string `xml:"r,attr"`
			Cells []struct {
				Ref   string `xml:"r,attr"`
				Type  string `xml:"t,attr"`
				Value string `xml:"v"`
				IS    struct {
					Text string `xml:"t"`
				} `xml:"is"`
			} `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

// Parse extracts one chunk per non-empty data row across all sheets.
func (p *XLSXParser) Parse(ctx context.Context, path string) (*domain.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Parsing XLSX: %s", path)

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s as archive: %v", domain.ErrInvalidInput, path, err)
	}
	defer reader.Close()

	var workbook workbookXML
	if err := readZipXML(&reader.Reader, "xl/workbook.xml", &workbook); err != nil {
		return nil, err
	}

	shared := readSharedStrings(&reader.Reader)

	sheetNames := make([]string, len(workbook.Sheets.Sheet))
	for i, s := range workbook.Sheets.Sheet {
		sheetNames[i] = s.Name
	}

	fileName := filepath.Base(path)
	now := time.Now().UTC()
	var chunks []domain.Chunk

	for i, sheetName := range sheetNames {
		var sheet worksheetXML
		member := fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		if err := readZipXML(&reader.Reader, member, &sheet); err != nil {
			logger.Warn("Skipping sheet %s: %v", sheetName, err)
			continue
		}
		chunks = append(chunks, sheetChunks(sheet, sheetName, shared, fileName, len(chunks), now)...)
	}

	logger.Debug("Extracted %d chunks from %d sheets in %s", len(chunks), len(sheetNames), fileName)

	doc, err := newDocument(path, domain.FileTypeXLSX, map[string]any{
		"num_sheets":  len(sheetNames),
		"sheet_names": sheetNames,
	})
	if err != nil {
		return nil, err
	}

	return &domain.ParsedDocument{
		Metadata: doc,
		Chunks:   chunks,
	}, nil
}

// sheetChunks converts one worksheet's data rows into chunks. The first
// non-empty row supplies the headers.
func sheetChunks(sheet worksheetXML, sheetName string, shared []string, fileName string, position int, now time.Time) []domain.Chunk {
	var headers []string
	var chunks []domain.Chunk

	for _, row := range sheet.SheetData.Rows {
		rowNum, _ := strconv.Atoi(row.Ref)

		type cellValue struct {
			col   int
			value string
		}
		var values []cellValue
		maxCol := 0

		for _, cell := range row.Cells {
			value := cellString(cell.Type, cell.Value, cell.IS.Text, shared)
			if strings.TrimSpace(value) == "" {
				continue
			}
			col := columnIndex(cell.Ref)
			values = append(values, cellValue{col: col, value: value})
			if col > maxCol {
				maxCol = col
			}
		}
		if len(values) == 0 {
			continue
		}

		cells := make([]string, maxCol)
		for _, v := range values {
			if v.col >= 1 {
				cells[v.col-1] = v.value
			}
		}

		if headers == nil {
			headers = cells
			continue
		}

		text := tableRowText(headers, cells)
		if text == "" {
			continue
		}

		first, last := values[0].col, values[len(values)-1].col
		cellRef := columnLetter(first) + strconv.Itoa(rowNum)
		if last != first {
			cellRef += ":" + columnLetter(last) + strconv.Itoa(rowNum)
		}

		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Position: position + len(chunks),
			Text:     text,
			Type:     domain.ChunkTypeTableRow,
			Citation: domain.Citation{
				FilePath: fileName,
				Sheet:    sheetName,
				Cell:     cellRef,
			}.String(),
			Metadata: map[string]any{
				"sheet": sheetName,
				"row":   rowNum,
			},
			CreatedAt: now,
		})
	}
	return chunks
}

// readSharedStrings loads the shared string table. A missing table is
// fine; sheets may use only inline or numeric values.
func readSharedStrings(reader *zip.Reader) []string {
	var sst sharedStringsXML
	if err := readZipXML(reader, "xl/sharedStrings.xml", &sst); err != nil {
		return nil
	}

	strs := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if item.Text != "" {
			strs[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, run := range item.Runs {
			b.WriteString(run.Text)
		}
		strs[i] = b.String()
	}
	return strs
}

// cellString resolves a cell's display value for the given cell type.
func cellString(cellType, value, inline string, shared []string) string {
	switch cellType {
	case "s":
		idx, err := strconv.Atoi(value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return inline
	default:
		return value
	}
}

// columnIndex converts a cell reference like "B5" to its 1-based
// column number.
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
	}
	return col
}

// columnLetter converts a 1-based column number to its letter form
// (1 = A, 27 = AA).
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte(col%26) + 'A'}, b...)
		col /= 26
	}
	return string(b)
}
