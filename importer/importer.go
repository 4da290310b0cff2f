package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"menuadmin/db"
	"menuadmin/model"
)

const menuFileExt = ".json"

type Status string

const (
	StatusUpdated  Status = "updated"
	StatusNotFound Status = "not found"
	StatusFailed   Status = "failed"
)

// ErrNoRowsUpdated is returned when the restaurant exists but the update
// reported no affected rows.
var ErrNoRowsUpdated = errors.New("update operation returned no data")

var errNullDocument = errors.New("document is null")

// MenuParseError is returned by LoadMenuFile when a file is not a JSON document.
type MenuParseError struct {
	Path string
	Err  error
}

func (e *MenuParseError) Error() string {
	return fmt.Sprintf("error parsing JSON file %s: %v", e.Path, e.Err)
}

func (e *MenuParseError) Unwrap() error { return e.Err }

type FileResult struct {
	File       string
	Restaurant string
	Status     Status
	Err        error
}

type Result struct {
	Succeeded int
	Failed    int
	Files     []FileResult
}

func (r *Result) add(fr FileResult) {
	if fr.Status == StatusUpdated {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Files = append(r.Files, fr)
}

// WriteSummary renders one row per processed file.
func (r *Result) WriteSummary(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Restaurant", "Status", "Detail"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, f := range r.Files {
		detail := ""
		if f.Err != nil {
			detail = f.Err.Error()
		}
		table.Append([]string{f.File, f.Restaurant, string(f.Status), detail})
	}
	table.SetFooter([]string{"", "", "Successful", fmt.Sprintf("%d / %d", r.Succeeded, r.Succeeded+r.Failed)})
	table.Render()
}

// ListJSONFiles returns the names of the entries in dir ending in ".json",
// sorted. Directories are skipped; symlinks are followed, and a dangling one
// is kept so that loading it is reported as a failure.
func ListJSONFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), menuFileExt) || e.IsDir() {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(dir, e.Name())); err == nil && info.IsDir() {
				continue
			}
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// RestaurantNameFromFile strips the final extension; the rest of the name is
// used as is.
func RestaurantNameFromFile(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	// leading dots are part of the name, not an extension
	if strings.Trim(stem, ".") == "" {
		return filename
	}
	return stem
}

// LoadMenuFile reads path and checks it holds a single non-null JSON document.
func LoadMenuFile(path string) (model.MenuData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var raw json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, &MenuParseError{Path: path, Err: err}
	}
	if string(raw) == "null" {
		return nil, &MenuParseError{Path: path, Err: errNullDocument}
	}
	return model.MenuData(b), nil
}

type Importer struct {
	store db.Store
	dir   string
	log   *zap.SugaredLogger
}

func New(store db.Store, dir string, log *zap.SugaredLogger) *Importer {
	return &Importer{store: store, dir: dir, log: log}
}

// UpdateRestaurantMenu overwrites the menus of the restaurant called name.
// It returns db.ErrRestaurantNotFound without writing when there is no such
// restaurant.
func (im *Importer) UpdateRestaurantMenu(ctx context.Context, name string, menu model.MenuData) error {
	if _, err := im.store.GetRestaurantIDByName(ctx, name); err != nil {
		if errors.Is(err, db.ErrRestaurantNotFound) {
			im.log.Warnf("No restaurant found with name: %s", name)
			return err
		}
		im.log.Errorf("Error updating restaurant %s: %v", name, err)
		return err
	}

	n, err := im.store.UpdateRestaurantMenus(ctx, name, menu)
	if err != nil {
		im.log.Errorf("Error updating restaurant %s: %v", name, err)
		return err
	}
	if n == 0 {
		im.log.Warnf("Update operation returned no data for %s", name)
		return ErrNoRowsUpdated
	}
	im.log.Infof("Successfully updated menu for %s", name)
	return nil
}

// Run imports every menu file in the directory. Per-file problems are
// recorded in the Result; only a missing directory or a cancelled ctx
// return an error.
func (im *Importer) Run(ctx context.Context) (*Result, error) {
	files, err := ListJSONFiles(im.dir)
	if err != nil {
		return nil, err
	}
	im.log.Infof("Found %d JSON files to process", len(files))

	res := &Result{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			im.log.Warnf("Import interrupted after %d of %d files", len(res.Files), len(files))
			return res, err
		}
		res.add(im.importFile(ctx, file))
	}

	im.log.Infof("Import complete. Successful: %d, Failed: %d", res.Succeeded, res.Failed)
	return res, nil
}

func (im *Importer) importFile(ctx context.Context, file string) FileResult {
	name := RestaurantNameFromFile(file)
	path := filepath.Join(im.dir, file)
	fr := FileResult{File: file, Restaurant: name, Status: StatusFailed}
	im.log.Infof("Processing %s from %s", name, path)

	menu, err := LoadMenuFile(path)
	if err != nil {
		var parseErr *MenuParseError
		if errors.As(err, &parseErr) {
			im.log.Errorf("Error parsing JSON file: %s", path)
		} else {
			im.log.Errorf("Error reading file %s: %v", path, err)
		}
		im.log.Errorf("Skipping %s due to data loading error", name)
		fr.Err = err
		return fr
	}

	fr.Err = im.UpdateRestaurantMenu(ctx, name, menu)
	switch {
	case fr.Err == nil:
		fr.Status = StatusUpdated
	case errors.Is(fr.Err, db.ErrRestaurantNotFound):
		fr.Status = StatusNotFound
	}
	return fr
}
