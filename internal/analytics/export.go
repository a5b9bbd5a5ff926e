package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vmunix/vodgate/internal/visits"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVHeader is the first row of an export.
var CSVHeader = []string{"ID", "Time", "IP", "Location", "Action", "UserAgent"}

// WriteCSV writes every visit, newest first, as CSV preceded by a UTF-8
// byte-order mark so spreadsheet tools detect the encoding. It returns the
// number of data rows written.
func (r *Reporter) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	if _, err := w.Write(utf8BOM); err != nil {
		return 0, fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	err := r.store.Each(ctx, func(rec visits.Record) error {
		n++
		return cw.Write([]string{
			strconv.FormatInt(rec.ID, 10),
			rec.Time,
			rec.IP,
			rec.Location,
			rec.Action,
			rec.UserAgent,
		})
	})
	if err != nil {
		return n, fmt.Errorf("export visits: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	r.log.Info("visits exported", "rows", n)
	return n, nil
}

// ExportFilename returns the attachment name for an export taken now.
func (r *Reporter) ExportFilename() string {
	return "traffic_data_" + r.now().In(r.opts.Location).Format("20060102") + ".csv"
}
