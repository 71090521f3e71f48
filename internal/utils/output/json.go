package output

import (
	"encoding/json"
	"io"

	"github.com/law-makers/lotwatch/pkg/models"
)

// WriteJSON writes lots as an indented JSON array. A nil slice is written as [].
func WriteJSON(w io.Writer, lots []models.Lot) error {
	if lots == nil {
		lots = []models.Lot{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(lots)
}
