package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	end := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC).UnixMilli()
	return Report{
		Title:   "Solar report",
		BaseURL: "https://bid.example.com",
		Lots: []models.Lot{
			{
				LotID:          "L1",
				LotNumber:      "1001",
				SearchID:       "solar",
				Title:          "Solar panel <b>100W</b>",
				Location:       "Warehouse A",
				Timestamp:      end,
				Condition:      "Used",
				Description:    "Works, \"minor\" wear",
				URL:            "https://bid.example.com/lot/L1",
				ImageURLs:      []string{"https://cdn.example.com/L1-1.jpg"},
				ImageFilenames: []string{"lot_L1_image_1.jpg", "lot_L1_image_2.jpg"},
				ThumbnailCount: 2,
			},
			{LotID: "L2", LotNumber: "1002", Title: "Charge controller"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"JSON": FormatJSON, "csv": FormatCSV, "md": FormatMarkdown, "markdown": FormatMarkdown, "htm": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xlsx")
	assert.Error(t, err)

	assert.Equal(t, FormatCSV, FormatFromPath("out/lots.csv"))
	assert.Equal(t, FormatMarkdown, FormatFromPath("lots.md"))
	assert.Equal(t, FormatJSON, FormatFromPath("lots"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, sampleReport().Lots))
	var lots []models.Lot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &lots))
	assert.Equal(t, sampleReport().Lots, lots)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport().Lots))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, "L1", rows[1][0])
	assert.Equal(t, "2026-11-01T18:00:00Z", rows[1][6])
	assert.Equal(t, `Works, "minor" wear`, rows[1][8])
	assert.Equal(t, "lot_L1_image_1.jpg|lot_L1_image_2.jpg", rows[1][11])
	assert.Equal(t, "", rows[2][6], "unknown end time stays blank")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Solar report</title>")
	assert.Contains(t, out, "<p>2 lots</p>")
	assert.Contains(t, out, `<a href="https://bid.example.com/lot/L1">1001</a>`)
	assert.Contains(t, out, `<a href="https://bid.example.com/lot/L2">1002</a>`, "detail link falls back to the lot id")
	assert.Contains(t, out, "Solar panel &lt;b&gt;100W&lt;/b&gt;")
	assert.Contains(t, out, `<img src="https://cdn.example.com/L1-1.jpg"`)
}

func TestCleanHTML(t *testing.T) {
	cleaned, err := CleanHTML(`<html><head><title>x</title></head><body><p class="a" onclick="x()">hi <a href="/l" target="_blank">l</a></p><script>evil()</script></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, `<p>hi <a href="/l">l</a></p>`, cleaned)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "# Solar report")
	assert.Contains(t, out, "[1001](https://bid.example.com/lot/L1)")
	assert.Contains(t, out, "Charge controller")
	assert.NotContains(t, out, "<td>")
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exports", "lots.csv")

	require.NoError(t, Save(path, FormatFromPath(path), sampleReport()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lot_id,lot_number")
	assert.NoFileExists(t, path+".tmp")
}
