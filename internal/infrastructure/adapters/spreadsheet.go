package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Spreadsheet source kinds
const (
	SpreadsheetSourceHTTP = "http"
	SpreadsheetSourceS3   = "s3"
	SpreadsheetSourceFile = "file"
)

// Errors for spreadsheet configuration
var (
	ErrSpreadsheetConfigMissingSource = errors.New("spreadsheet: source is required (http, s3 or file)")
	ErrSpreadsheetConfigMissingURL    = errors.New("spreadsheet: url is required for http source")
	ErrSpreadsheetConfigMissingKey    = errors.New("spreadsheet: object_key is required for s3 source")
	ErrSpreadsheetConfigMissingPath   = errors.New("spreadsheet: path is required for file source")
	ErrSpreadsheetConfigBadColumns    = errors.New("spreadsheet: key_column and quantity_column must be valid column names")
	ErrSpreadsheetConfigBadRows       = errors.New("spreadsheet: skip_rows cannot be negative")
	ErrSpreadsheetNoObjectStore       = errors.New("spreadsheet: s3 source requires an object store")
)

// SpreadsheetObjectStore downloads spreadsheet exports dropped into object
// storage. Implemented by the S3 storage layer.
type SpreadsheetObjectStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// SpreadsheetConfig holds the per-integration configuration for a flat-file
// stock export
type SpreadsheetConfig struct {
	// Source selects where the workbook lives: http, s3 or file
	Source string `json:"source"`
	// URL is the workbook location for the http source
	URL string `json:"url,omitempty"`
	// ObjectKey is the workbook key for the s3 source
	ObjectKey string `json:"object_key,omitempty"`
	// Path is the workbook path for the file source
	Path string `json:"path,omitempty"`
	// Sheet is the worksheet to read; the first sheet when empty
	Sheet string `json:"sheet,omitempty"`
	// KeyColumn holds external product keys (default "A")
	KeyColumn string `json:"key_column,omitempty"`
	// QuantityColumn holds stock quantities (default "B")
	QuantityColumn string `json:"quantity_column,omitempty"`
	// SkipRows is the number of leading header rows to skip. Defaults to one
	// header row when omitted; an explicit 0 reads a headerless sheet.
	SkipRows *int `json:"skip_rows,omitempty"`
	// TimeoutSeconds is the HTTP request timeout for the http source
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Validate validates the spreadsheet configuration
func (c *SpreadsheetConfig) Validate() error {
	switch c.Source {
	case SpreadsheetSourceHTTP:
		if c.URL == "" {
			return ErrSpreadsheetConfigMissingURL
		}
	case SpreadsheetSourceS3:
		if c.ObjectKey == "" {
			return ErrSpreadsheetConfigMissingKey
		}
	case SpreadsheetSourceFile:
		if c.Path == "" {
			return ErrSpreadsheetConfigMissingPath
		}
	default:
		return ErrSpreadsheetConfigMissingSource
	}

	if _, err := excelize.ColumnNameToNumber(c.keyColumn()); err != nil {
		return ErrSpreadsheetConfigBadColumns
	}
	if _, err := excelize.ColumnNameToNumber(c.quantityColumn()); err != nil {
		return ErrSpreadsheetConfigBadColumns
	}
	if c.SkipRows != nil && *c.SkipRows < 0 {
		return ErrSpreadsheetConfigBadRows
	}
	return nil
}

func (c *SpreadsheetConfig) keyColumn() string {
	if c.KeyColumn == "" {
		return "A"
	}
	return c.KeyColumn
}

func (c *SpreadsheetConfig) quantityColumn() string {
	if c.QuantityColumn == "" {
		return "B"
	}
	return c.QuantityColumn
}

func (c *SpreadsheetConfig) skipRows() int {
	if c.SkipRows == nil {
		return 1
	}
	return *c.SkipRows
}

// SpreadsheetAdapter parses xlsx stock exports. Brands without a live system
// drop a workbook into object storage or host it on a URL; each sync reads
// the whole sheet as the authoritative snapshot.
type SpreadsheetAdapter struct {
	objectStore SpreadsheetObjectStore
	logger      *zap.Logger
}

// NewSpreadsheetAdapter creates a new SpreadsheetAdapter. objectStore may be
// nil when the s3 source is not used.
func NewSpreadsheetAdapter(objectStore SpreadsheetObjectStore, logger *zap.Logger) *SpreadsheetAdapter {
	return &SpreadsheetAdapter{objectStore: objectStore, logger: logger}
}

// Type returns the adapter type this connector handles
func (a *SpreadsheetAdapter) Type() syncdomain.AdapterType {
	return syncdomain.AdapterTypeSpreadsheet
}

// ValidateConfig checks a raw configuration against the spreadsheet schema
func (a *SpreadsheetAdapter) ValidateConfig(raw []byte) error {
	config, err := a.parseConfig(raw)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Source == SpreadsheetSourceS3 && a.objectStore == nil {
		return ErrSpreadsheetNoObjectStore
	}
	return nil
}

// Fetch reads the workbook and parses the configured columns
func (a *SpreadsheetAdapter) Fetch(ctx context.Context, raw []byte) ([]syncdomain.CanonicalStockItem, error) {
	config, err := a.parseConfig(raw)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	if err := config.Validate(); err != nil {
		return nil, syncdomain.NewConfigError(err)
	}

	data, err := a.download(ctx, config)
	if err != nil {
		return nil, err
	}
	return a.parseWorkbook(data, config)
}

func (a *SpreadsheetAdapter) download(ctx context.Context, config *SpreadsheetConfig) ([]byte, error) {
	switch config.Source {
	case SpreadsheetSourceHTTP:
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.URL, nil)
		if err != nil {
			return nil, syncdomain.NewConfigError(err)
		}
		return fetchBody(newHTTPClient(config.TimeoutSeconds), req)

	case SpreadsheetSourceS3:
		if a.objectStore == nil {
			return nil, syncdomain.NewConfigError(ErrSpreadsheetNoObjectStore)
		}
		rc, err := a.objectStore.Download(ctx, config.ObjectKey)
		if err != nil {
			return nil, syncdomain.NewConnectivityError(fmt.Errorf("downloading %s: %w", config.ObjectKey, err))
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(io.LimitReader(rc, maxResponseSize))
		if err != nil {
			return nil, syncdomain.NewConnectivityError(err)
		}
		return data, nil

	case SpreadsheetSourceFile:
		data, err := os.ReadFile(config.Path)
		if err != nil {
			return nil, syncdomain.NewConnectivityError(fmt.Errorf("reading %s: %w", config.Path, err))
		}
		return data, nil

	default:
		return nil, syncdomain.NewConfigError(ErrSpreadsheetConfigMissingSource)
	}
}

func (a *SpreadsheetAdapter) parseWorkbook(data []byte, config *SpreadsheetConfig) ([]syncdomain.CanonicalStockItem, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("opening workbook: %w", err))
	}
	defer func() { _ = wb.Close() }()

	sheet := config.Sheet
	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("reading sheet %q: %w", sheet, err))
	}

	keyIdx, _ := excelize.ColumnNameToNumber(config.keyColumn())
	qtyIdx, _ := excelize.ColumnNameToNumber(config.quantityColumn())

	items := make([]syncdomain.CanonicalStockItem, 0, len(rows))
	for i, row := range rows {
		if i < config.skipRows() {
			continue
		}
		key := cellAt(row, keyIdx-1)
		if key == "" {
			continue // Blank row
		}

		qtyRaw := cellAt(row, qtyIdx-1)
		qty, err := decimal.NewFromString(strings.TrimSpace(qtyRaw))
		if err != nil {
			a.logger.Warn("Skipping spreadsheet row with unparseable quantity",
				zap.Int("row", i+1),
				zap.String("key", key),
				zap.String("quantity", qtyRaw),
			)
			continue
		}

		items = append(items, syncdomain.CanonicalStockItem{
			ExternalKey: key,
			Quantity:    qty.IntPart(),
		})
	}
	return items, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (a *SpreadsheetAdapter) parseConfig(raw []byte) (*SpreadsheetConfig, error) {
	var config SpreadsheetConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("spreadsheet: invalid config: %w", err)
	}
	return &config, nil
}
