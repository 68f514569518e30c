package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Table_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	headers := []string{"Ticker", "Market Value"}
	rows := [][]string{
		{"PETR4", "R$385,00"},
		{"VALE3", "R$1.300,00"},
	}

	require.NoError(t, f.Table(headers, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Ticker"))
	assert.True(t, strings.HasPrefix(lines[1], "------"))
	assert.Contains(t, lines[2], "R$385,00")
	assert.Contains(t, lines[3], "VALE3")
	// columns aligned: second column starts at the same offset on every row
	assert.Equal(t, strings.Index(lines[0], "Market"), strings.Index(lines[2], "R$"))
}

func TestFormatter_Table_EmptyRows(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	require.NoError(t, f.Table([]string{"Name", "Value"}, [][]string{}))

	output := buf.String()
	assert.Contains(t, output, "Name")
	assert.Contains(t, output, "Value")
}

func TestFormatter_TableOr_Placeholder(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	require.NoError(t, f.TableOr([]string{"Ticker", "Product", "Qty"}, nil, "No assets in portfolio."))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "No assets in portfolio.")
	assert.False(t, strings.HasPrefix(lines[2], "No"), "placeholder sits in the second column")
}

func TestFormatter_TableOr_SingleColumn(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	require.NoError(t, f.TableOr([]string{"Items"}, nil, "Nothing here."))
	assert.Contains(t, buf.String(), "Nothing here.")
}

func TestFormatter_TableOr_JSONStaysEmpty(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	require.NoError(t, f.TableOr([]string{"Ticker"}, nil, "No assets in portfolio."))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatter_Table_InJSONMode_OutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	headers := []string{"Name", "Value"}
	rows := [][]string{
		{"foo", "123"},
		{"bar"},
	}

	require.NoError(t, f.Table(headers, rows))

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "123", decoded[0]["Value"])
	assert.Equal(t, "", decoded[1]["Value"], "short rows are padded")
}

func TestFormatter_Record(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	fields := []Field{
		{Label: "Account", Value: "C-0000001"},
		{Label: "Balance", Value: "R$10.000,00"},
	}
	require.NoError(t, f.Record(fields, nil))

	output := buf.String()
	assert.Contains(t, output, "Account:")
	assert.Contains(t, output, "R$10.000,00")
}

func TestFormatter_Record_JSONUsesRaw(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	raw := map[string]string{"balance": "10000"}
	require.NoError(t, f.Record([]Field{{Label: "Balance", Value: "R$10.000,00"}}, raw))

	assert.Contains(t, buf.String(), `"balance": "10000"`)
	assert.NotContains(t, buf.String(), "R$")
}

func TestFormatter_Message(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, false).Message("Order executed."))
	assert.Equal(t, "Order executed.\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, true).Message("Order executed."))
	assert.Contains(t, buf.String(), `"message": "Order executed."`)
}

func TestFormatter_JSON_PrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	require.NoError(t, f.Print(map[string]string{"key": "value"}))

	output := buf.String()
	assert.Contains(t, output, "\n")
	assert.Contains(t, output, "  ")
}

func TestFormatter_Print_NonJSONMode_Fallback(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	require.NoError(t, f.Print(map[string]string{"key": "value"}))
	assert.NotEmpty(t, buf.String())
}

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	assert.Equal(t, &buf, f.Writer)
	assert.False(t, f.JSONMode)

	f2 := New(&buf, true)
	assert.True(t, f2.JSONMode)
}
