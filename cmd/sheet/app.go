package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/vogtb/sheetcalc/internal/config"
	"github.com/vogtb/sheetcalc/internal/logging"
	"github.com/vogtb/sheetcalc/packages/formula"
	"github.com/vogtb/sheetcalc/packages/spreadsheet"
	"github.com/vogtb/sheetcalc/packages/store"
)

// app is one invocation of the tool: configuration, logger and an open store
type app struct {
	cfg   *config.Config
	log   logr.Logger
	store store.Store
	out   io.Writer
}

func newApp(ctx context.Context, configPath, storeKind, storePath string, out, errOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storeKind != "" {
		cfg.Store.Kind = strings.ToLower(storeKind)
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	log, err := logging.New(errOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Validate() {
		log.Info("config warning", "warning", w)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("opened store", "kind", cfg.Store.Kind, "path", cfg.Store.Path)

	return &app{cfg: cfg, log: log, store: st, out: out}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreFile:
		return store.NewOSFileStore(cfg.Store.Path), nil
	case config.StorePebble:
		st, err := store.OpenPebbleStore(cfg.Store.Path, nil)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreS3:
		st, err := store.NewS3Store(ctx, store.S3Options{
			Endpoint:  cfg.Store.S3.Endpoint,
			Bucket:    cfg.Store.S3.Bucket,
			Prefix:    cfg.Store.S3.Prefix,
			AccessKey: cfg.Store.S3.AccessKey,
			SecretKey: cfg.Store.S3.SecretKey,
			Secure:    cfg.Store.S3.Secure,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// close releases the store and merges its error into err
func (a *app) close(err error) error {
	return multierr.Append(err, a.store.Close())
}

func (a *app) options() []spreadsheet.Option {
	opts := []spreadsheet.Option{
		spreadsheet.WithVersion(a.cfg.Version),
		spreadsheet.WithLogr(a.log.WithName("spreadsheet")),
	}
	if a.cfg.Names.Uppercase {
		opts = append(opts, spreadsheet.WithNormalizer(strings.ToUpper))
	}
	return opts
}

// open loads the named sheet. a missing sheet is created when create is set.
func (a *app) open(ctx context.Context, name string, create bool) (*spreadsheet.Spreadsheet, error) {
	sheet, err := store.Open(ctx, a.store, name, a.options()...)
	if create && errors.Is(err, store.ErrNotFound) {
		a.log.Info("creating spreadsheet", "sheet", name)
		return spreadsheet.New(a.options()...), nil
	}
	return sheet, err
}

func (a *app) set(ctx context.Context, sheetName, cell, contents string) error {
	sheet, err := a.open(ctx, sheetName, true)
	if err != nil {
		return err
	}

	order, err := sheet.SetContentsOfCell(cell, contents)
	if err != nil {
		return err
	}
	for _, name := range order {
		value, err := sheet.GetCellValue(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\n", name, formatValue(value, a.cfg.Display.Precision))
	}

	if !sheet.Changed() {
		return nil
	}
	return store.Save(ctx, a.store, sheetName, sheet)
}

func (a *app) get(ctx context.Context, sheetName string, cells []string, contents bool) error {
	sheet, err := a.open(ctx, sheetName, false)
	if err != nil {
		return err
	}

	for _, cell := range cells {
		var text string
		if contents {
			c, err := sheet.GetCellContents(cell)
			if err != nil {
				return err
			}
			text = c.String()
		} else {
			v, err := sheet.GetCellValue(cell)
			if err != nil {
				return err
			}
			text = formatValue(v, a.cfg.Display.Precision)
		}
		fmt.Fprintf(a.out, "%s\t%s\n", cell, text)
	}
	return nil
}

func (a *app) show(ctx context.Context, sheetName string) error {
	sheet, err := a.open(ctx, sheetName, false)
	if err != nil {
		return err
	}

	for name := range sheet.NamesOfAllNonemptyCells() {
		c, err := sheet.GetCellContents(name)
		if err != nil {
			return err
		}
		v, err := sheet.GetCellValue(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", name, c.String(), formatValue(v, a.cfg.Display.Precision))
	}
	return nil
}

// eval evaluates against an empty sheet when the named one does not exist
func (a *app) eval(ctx context.Context, sheetName, text string) error {
	sheet, err := a.open(ctx, sheetName, true)
	if err != nil {
		return err
	}

	value, err := sheet.Evaluate(text)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, formatValue(value, a.cfg.Display.Precision))
	return nil
}

func (a *app) list(ctx context.Context) error {
	names, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(a.out, name)
	}
	return nil
}

func (a *app) delete(ctx context.Context, sheetName string) error {
	if err := a.store.Delete(ctx, sheetName); err != nil {
		return err
	}
	a.log.Info("deleted spreadsheet", "sheet", sheetName)
	return nil
}

// formatValue renders a value for display. numbers are rounded to precision
// decimals, errors are shown with their reason.
func formatValue(v spreadsheet.Value, precision int) string {
	switch v := v.(type) {
	case spreadsheet.Number:
		return formula.FormatNumber(round(float64(v), precision))
	case spreadsheet.ErrorValue:
		return "#ERROR: " + v.Reason
	default:
		return v.String()
	}
}

func round(v float64, precision int) float64 {
	if precision < 0 || precision > 15 {
		return v
	}
	scale := math.Pow10(precision)
	rounded := math.Round(v*scale) / scale
	if math.IsInf(rounded, 0) || math.IsNaN(rounded) {
		return v
	}
	return rounded
}
