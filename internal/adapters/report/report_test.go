package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/training"
	"github.com/okian/gridcast/internal/domain/types"
)

func fixture(withResult bool) *training.Report {
	r := &training.Report{
		RunID:  "3f2c9a",
		Target: model.EventKey{Country: "Italy", Location: "Imola", Year: 2025},
		Model:  "ridge",
		TrainingEvents: []model.EventKey{
			{Country: "Bahrain", Location: "Sakhir", Year: 2024},
			{Country: "Saudi Arabia", Location: "Jeddah", Year: 2024},
		},
		TrainingRows: 40,
		Features:     31,
		Skipped: []model.Skip{{
			Event:  model.EventKey{Country: "Australia", Location: "Melbourne", Year: 2024},
			Kind:   model.SkipNoLabels,
			Reason: "no race classification",
		}},
		Predictions: []types.Entry{
			{Rank: 1, Driver: model.DriverIdentity{Number: 81, Name: "Oscar Piastri", Team: "McLaren"}, Score: 1.8421},
			{Rank: 2, Driver: model.DriverIdentity{Number: 1, Name: "Max Verstappen", Team: "Red Bull Racing"}, Score: 2.05},
			{Rank: 3, Driver: model.DriverIdentity{Number: 63, Name: "George Russell", Team: "Mercedes"}, Score: 4.5},
		},
		CreatedAt: time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC),
	}
	if withResult {
		first, second, seventh := 2, 1, 7
		r.Predictions[0].Actual = &first
		r.Predictions[1].Actual = &second
		r.Predictions[2].Actual = &seventh
		r2 := 0.55
		r.Metrics = &training.Metrics{MAE: 1.2357, R2: &r2, Samples: 3}
	}
	return r
}

func TestWriteTextGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)

	var upcoming bytes.Buffer
	require.NoError(t, WriteText(&upcoming, fixture(false)))
	g.Assert(t, "upcoming", upcoming.Bytes())

	var classified bytes.Buffer
	require.NoError(t, WriteText(&classified, fixture(true)))
	g.Assert(t, "classified", classified.Bytes())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, fixture(false), "json"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "3f2c9a", decoded["run_id"])
	assert.NotContains(t, decoded, "metrics")
	preds := decoded["predictions"].([]any)
	require.Len(t, preds, 3)
	first := preds[0].(map[string]any)
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "Oscar Piastri", first["driver"].(map[string]any)["driver_name"])
	assert.NotContains(t, first, "actual_position")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, fixture(false), "yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, fixture(true)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(PredictionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Rank", "Driver Number", "Driver", "Team", "Score", "Actual Position"}, rows[0])
	assert.Equal(t, []string{"1", "81", "Oscar Piastri", "McLaren"}, rows[1][:4])
	assert.Equal(t, "2", rows[1][5])

	kind, err := f.GetCellValue(RunSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "ridge", kind)
	event, err := f.GetCellValue(RunSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Italy/Imola/2025", event)
}

func TestWriteXLSXWithoutResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, fixture(false)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	mae, err := f.GetCellValue(RunSheet, "B8")
	require.NoError(t, err)
	assert.Equal(t, "unavailable", mae)
}
