package registrations

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ExportFilename is the attachment filename for CSV downloads.
const ExportFilename = "registrations.csv"

// CSVHeader is the fixed header row of every registration export.
var CSVHeader = []string{"ID", "User", "Email", "Phone", "Event", "Status"}

// WriteCSV streams every registration matching the filters as CSV, newest
// id first. The export always covers the full filtered set, not the
// current listing page.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, filters Filters) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	err := s.repo.ForEach(ctx, filters, func(row Row) error {
		return writer.Write([]string{
			strconv.FormatInt(row.ID, 10),
			row.Username,
			row.Email,
			row.Phone,
			row.EventTitle,
			row.Status,
		})
	})
	if err != nil {
		return fmt.Errorf("export registrations: %w", err)
	}

	writer.Flush()
	return writer.Error()
}
