package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/cmd/emoji"
	"github.com/agentstation/storefront/internal/cmd/output"
)

func TestAlertString(t *testing.T) {
	assert.Equal(t, emoji.Success+" Sync succeeded", NewSuccess("Sync succeeded").String())
	assert.Equal(t, emoji.Error+" Sync failed: boom", NewError("Sync failed").WithError(fmt.Errorf("boom")).String())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "unknown(9)", Level(9).String())
	assert.Equal(t, emoji.Info, LevelInfo.Icon())
}

func TestFormatWriterText(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable)

	require.NoError(t, w.WriteAlert(NewSuccess("Created user admin").WithDetails("roles: ROLE_ADMIN,ROLE_USER")))
	assert.Equal(t, emoji.Success+" Created user admin\n   roles: ROLE_ADMIN,ROLE_USER\n", buf.String())
}

func TestFormatWriterColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable).WithConfig(WriterConfig{UseColor: true})

	require.NoError(t, w.WriteAlert(NewError("failed")))
	assert.Contains(t, buf.String(), LevelError.Color())
	assert.Contains(t, buf.String(), resetColor)
}

func TestFormatWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatJSON)

	require.NoError(t, w.WriteAlert(NewWarning("Dry run").WithDetails("nothing written")))

	var got alertData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, alertData{Level: "warning", Message: "Dry run", Details: []string{"nothing written"}}, got)
}

func TestFormatWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatYAML)

	require.NoError(t, w.WriteAlert(NewError("Sync failed").WithError(fmt.Errorf("upstream unavailable"))))
	assert.Contains(t, buf.String(), "level: error")
	assert.Contains(t, buf.String(), "error: upstream unavailable")
}

func TestWriterHelpers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterTo(&buf).WriteAlert(NewInfo("hello")))
	assert.Equal(t, emoji.Info+" hello\n", buf.String())

	assert.NoError(t, DiscardWriter.WriteAlert(NewInfo("ignored")))
}
