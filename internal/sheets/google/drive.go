// Package google reads workbooks from Google Drive.
//
// A workbook is located by explicit file id or by looking its name up
// inside a named folder. Uploaded xlsx files are downloaded through the
// Drive API; native Google Sheets are read through the Sheets API, or
// exported to xlsx when that fails. Without API credentials, or when the
// API call fails, the public share link is tried last.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/log"
	"spendtrack/internal/sheets"
	"spendtrack/internal/sheets/xlsx"

	"google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	folderMimeType      = "application/vnd.google-apps.folder"
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	xlsxMimeType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// DefaultPublicBaseURL serves uc?export=download links.
	DefaultPublicBaseURL = "https://drive.google.com"

	maxDownloadBytes = 32 << 20
)

// Config configures a Reader.
type Config struct {
	Credentials Credentials
	// PublicBaseURL overrides DefaultPublicBaseURL.
	PublicBaseURL string
	// HTTPClient is used for public downloads; defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
	// LookupTTL bounds how long folder/file name lookups are remembered.
	LookupTTL time.Duration
	// Options replace credential discovery and are passed to both API
	// clients as-is, with DriveEndpoint and SheetsEndpoint appended.
	Options        []goption.ClientOption
	DriveEndpoint  string
	SheetsEndpoint string
}

// Reader implements sheets.Reader over Google Drive.
type Reader struct {
	drive   *drive.Service
	sheets  *gsheet.Service
	http    *http.Client
	public  string
	lookups *cache.LRUCache[fileInfo]
	logger  *log.Logger
}

var _ sheets.Reader = (*Reader)(nil)

type fileInfo struct {
	id       string
	name     string
	mimeType string
}

// New builds a Reader. Missing credentials are not an error: the reader
// then only uses public links, which need an explicit file id.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Reader, error) {
	logger = log.OrDefault(logger, log.ComponentDrive)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LookupTTL <= 0 {
		cfg.LookupTTL = 30 * time.Minute
	}
	r := &Reader{
		http:    cfg.HTTPClient,
		public:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		lookups: cache.NewLRUCache[fileInfo](64, cfg.LookupTTL),
		logger:  logger,
	}
	if r.http == nil {
		r.http = &http.Client{Timeout: cfg.Timeout}
	}
	if r.public == "" {
		r.public = DefaultPublicBaseURL
	}

	opts, method := cfg.Options, "explicit_options"
	if len(opts) == 0 {
		var err error
		opts, method, err = clientOptions(ctx, cfg.Credentials)
		if errors.Is(err, ErrNoCredentials) {
			logger.InfoContext(ctx, "No Google API credentials, using public links only", log.FieldError, err)
			return r, nil
		}
		if err != nil {
			return nil, fmt.Errorf("google credentials: %w", err)
		}
	}

	driveOpts := withEndpoint(opts, cfg.DriveEndpoint)
	svc, err := drive.NewService(ctx, driveOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	r.drive = svc

	sheetsSvc, err := gsheet.NewService(ctx, withEndpoint(opts, cfg.SheetsEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	r.sheets = sheetsSvc

	logger.InfoContext(ctx, "Google API clients ready", "auth", method)
	return r, nil
}

func withEndpoint(opts []goption.ClientOption, endpoint string) []goption.ClientOption {
	out := append([]goption.ClientOption(nil), opts...)
	if endpoint != "" {
		out = append(out, goption.WithEndpoint(endpoint))
	}
	return out
}

func (r *Reader) Name() string { return "drive" }

// HasAPI reports whether Drive API credentials are configured.
func (r *Reader) HasAPI() bool { return r.drive != nil }

// Read resolves ref and returns the named sheet.
func (r *Reader) Read(ctx context.Context, ref sheets.WorkbookRef) (sheets.Table, error) {
	info := fileInfo{id: strings.TrimSpace(ref.FileID), name: ref.FileName}
	if info.id == "" {
		if r.drive == nil {
			return sheets.Table{}, fmt.Errorf("%s has no file id and %w", ref.Dataset, ErrNoCredentials)
		}
		found, err := r.resolve(ctx, ref.Folder, ref.FileName)
		if err != nil {
			return sheets.Table{}, err
		}
		info = found
	}

	if r.drive != nil {
		t, err := r.readAPI(ctx, info, ref.Sheet)
		if err == nil {
			return t, nil
		}
		r.logger.WarnContext(ctx, "Drive API read failed, trying public link",
			log.FieldOperation, log.OpFetch,
			log.FieldDataset, ref.Dataset,
			log.FieldFileID, info.id,
			log.FieldError, err)
	}
	return r.readPublic(ctx, info, ref.Sheet)
}

// resolve finds fileName inside the folder named folder. A blank folder
// searches the whole drive.
func (r *Reader) resolve(ctx context.Context, folder, fileName string) (fileInfo, error) {
	if strings.TrimSpace(fileName) == "" {
		return fileInfo{}, fmt.Errorf("no file name to look up: %w", sheets.ErrNotFound)
	}
	key := folder + "/" + fileName
	if info, ok := r.lookups.Get(key); ok {
		return info, nil
	}

	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(fileName))
	if folder != "" {
		folderFile, err := r.findOne(ctx, fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(folder), folderMimeType))
		if err != nil {
			return fileInfo{}, fmt.Errorf("folder %q: %w", folder, err)
		}
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(folderFile.id))
	}
	info, err := r.findOne(ctx, q)
	if err != nil {
		return fileInfo{}, fmt.Errorf("file %q: %w", fileName, err)
	}

	r.lookups.Set(key, info)
	r.logger.DebugContext(ctx, "Resolved Drive file", log.FieldFileName, fileName, log.FieldFileID, info.id)
	return info, nil
}

func (r *Reader) findOne(ctx context.Context, q string) (fileInfo, error) {
	list, err := r.drive.Files.List().
		Q(q).
		Fields("files(id, name, mimeType)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fileInfo{}, fmt.Errorf("drive list: %w", err)
	}
	if len(list.Files) == 0 {
		return fileInfo{}, sheets.ErrNotFound
	}
	f := list.Files[0]
	return fileInfo{id: f.Id, name: f.Name, mimeType: f.MimeType}, nil
}

func (r *Reader) readAPI(ctx context.Context, info fileInfo, sheet string) (sheets.Table, error) {
	if info.mimeType == "" {
		meta, err := r.drive.Files.Get(info.id).
			Fields("id, name, mimeType").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return sheets.Table{}, fmt.Errorf("drive metadata: %w", err)
		}
		info.name, info.mimeType = meta.Name, meta.MimeType
	}

	if info.mimeType == spreadsheetMimeType {
		t, err := r.readValues(ctx, info.id, sheet)
		if err == nil {
			return t, nil
		}
		r.logger.WarnContext(ctx, "Sheets API read failed, exporting as xlsx",
			log.FieldOperation, log.OpFetch,
			log.FieldFileID, info.id,
			log.FieldSheet, sheet,
			log.FieldError, err)

		resp, err := r.drive.Files.Export(info.id, xlsxMimeType).Context(ctx).Download()
		if err != nil {
			return sheets.Table{}, fmt.Errorf("drive export: %w", err)
		}
		return decodeResponse(resp, info.name+".xlsx", sheet)
	}

	resp, err := r.drive.Files.Get(info.id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return sheets.Table{}, fmt.Errorf("drive download: %w", err)
	}
	return decodeResponse(resp, info.name, sheet)
}

// readValues reads a native spreadsheet through the Sheets API with
// unformatted values, so dates arrive as serial numbers like they do in
// raw xlsx cells.
func (r *Reader) readValues(ctx context.Context, id, sheet string) (sheets.Table, error) {
	if r.sheets == nil {
		return sheets.Table{}, errors.New("sheets service not initialized")
	}
	if sheet == "" {
		ss, err := r.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return sheets.Table{}, fmt.Errorf("spreadsheet metadata: %w", err)
		}
		if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
			return sheets.Table{}, fmt.Errorf("spreadsheet %s: %w", id, xlsx.ErrSheetNotFound)
		}
		sheet = ss.Sheets[0].Properties.Title
	}

	resp, err := r.sheets.Spreadsheets.Values.Get(id, quoteSheet(sheet)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return sheets.Table{}, fmt.Errorf("sheets values: %w", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellString(cell)
		}
	}
	return sheets.NewTable(rows), nil
}

// readPublic downloads a file shared by link.
func (r *Reader) readPublic(ctx context.Context, info fileInfo, sheet string) (sheets.Table, error) {
	u := r.public + "/uc?export=download&id=" + url.QueryEscape(info.id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return sheets.Table{}, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return sheets.Table{}, fmt.Errorf("public download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return sheets.Table{}, fmt.Errorf("public download: status %d", resp.StatusCode)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		resp.Body.Close()
		return sheets.Table{}, errors.New("public download returned a web page; is the file shared by link?")
	}
	name := info.name
	if name == "" {
		name = "download.xlsx"
	}
	return decodeResponse(resp, name, sheet)
}

func decodeResponse(resp *http.Response, name, sheet string) (sheets.Table, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read download: %w", err)
	}
	return xlsx.Decode(name, data, sheet)
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
