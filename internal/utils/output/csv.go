package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/lotwatch/pkg/models"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{
	"lot_id", "lot_number", "search_id", "title", "lot_name", "location",
	"ends_at", "condition", "description", "url", "thumbnails", "images",
}

// WriteCSV writes one row per lot. Image filenames are joined with "|".
func WriteCSV(w io.Writer, lots []models.Lot) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, lot := range lots {
		row := []string{
			lot.LotID,
			lot.LotNumber,
			lot.SearchID,
			lot.Title,
			lot.LotName,
			lot.Location,
			endsAt(lot),
			lot.Condition,
			lot.Description,
			lot.URL,
			strconv.Itoa(lot.ThumbnailCount),
			strings.Join(lot.ImageFilenames, "|"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func endsAt(lot models.Lot) string {
	if lot.Timestamp == 0 {
		return ""
	}
	return lot.EndsAt().UTC().Format(time.RFC3339)
}
