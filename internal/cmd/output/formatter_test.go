package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/cmd/table"
	"github.com/agentstation/storefront/pkg/catalog"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

func devices() []catalog.Device {
	return []catalog.Device{
		{ID: 1, Code: "NTB-1", Name: "Notebook", BasePrice: decimal.NewFromInt(1200), Currency: "USD",
			Features: []catalog.Feature{{ID: 11, Name: "RAM"}}},
		{ID: 2, Code: "TAB-1", Name: "Tablet", BasePrice: decimal.RequireFromString("499.9"), Currency: "USD"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", "", false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"wide", FormatWide, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestFormatDevicesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatDevices(&buf, devices(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "NTB-1")
	assert.Contains(t, out, "1200.00 USD")
	assert.Contains(t, out, "499.90 USD")
	assert.NotContains(t, strings.ToUpper(out), "CUSTOMIZATIONS")
}

func TestFormatDevicesWide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatDevices(&buf, devices(), FormatWide))
	assert.Contains(t, strings.ToUpper(buf.String()), "CUSTOMIZATIONS")
}

func TestFormatDevicesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatDevices(&buf, devices(), FormatJSON))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "NTB-1", decoded[0]["codigo"])
}

func TestFormatDevicesYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatDevices(&buf, devices(), FormatYAML))
	assert.Contains(t, buf.String(), "codigo: NTB-1")
}

func TestFormatRunTable(t *testing.T) {
	run := syncpkg.Run{ID: "run-1", Status: syncpkg.StatusFailed, Error: "boom", ErrorClass: "fetch"}

	var buf bytes.Buffer
	require.NoError(t, FormatRun(&buf, run, FormatTable))
	assert.Contains(t, buf.String(), "run-1")
	assert.Contains(t, buf.String(), "boom")
}

func TestTableFormatterReflection(t *testing.T) {
	type row struct {
		Name   string          `json:"name"`
		Price  decimal.Decimal `json:"price"`
		Tags   []string        `json:"tags"`
		Secret string          `json:"-"`
	}

	data := toTableData([]row{{Name: "a", Price: decimal.NewFromInt(3), Tags: []string{"x"}, Secret: "s"}})
	require.NotNil(t, data)
	assert.Equal(t, []string{"Name", "Price"}, data.Headers)
	assert.Equal(t, [][]string{{"a", "3"}}, data.Rows)

	single := toTableData(row{Name: "b"})
	require.NotNil(t, single)
	assert.Equal(t, []string{"Property", "Value"}, single.Headers)
	assert.Equal(t, []string{"Name", "b"}, single.Rows[0])

	assert.Nil(t, toTableData([]int{1, 2}))
	assert.Nil(t, toTableData(nil))
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a": 1}`, buf.String())
}

func TestTableFormatterRendersData(t *testing.T) {
	var buf bytes.Buffer
	data := table.Data{
		Headers:         []string{"ID", "Name"},
		Rows:            [][]string{{"1", "one"}},
		ColumnAlignment: []table.Align{table.AlignRight, table.AlignLeft},
	}
	require.NoError(t, (&TableFormatter{}).Format(&buf, data))
	assert.Contains(t, buf.String(), "one")
}
