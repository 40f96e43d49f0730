package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/uaparser/pkg/server"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

func TestPrintJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false, false)

	require.NoError(t, f.PrintJSON(map[string]string{"family": "Chrome"}))
	require.Equal(t, "{\n  \"family\": \"Chrome\"\n}\n", stdout.String())
}

func TestPrintTable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false, false)

	require.NoError(t, f.PrintTable([]string{"field", "value"}, [][]string{{"family", "Chrome"}, {"major", "91"}}))
	require.Contains(t, stdout.String(), "FIELD")
	require.Contains(t, stdout.String(), "family  Chrome")
}

func TestPrintTable_JSONMode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false, false)

	require.NoError(t, f.PrintTable([]string{"field", "value"}, [][]string{{"family", "Chrome"}}))

	var items []map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &items))
	require.Equal(t, []map[string]string{{"field": "family", "value": "Chrome"}}, items)
}

func TestPrintSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, New(&stdout, &stderr, ModeTable, false, false).PrintSummary("done"))
	require.Equal(t, "done\n", stdout.String())

	stdout.Reset()
	require.NoError(t, New(&stdout, &stderr, ModeJSON, false, false).PrintSummary("done"))
	require.Empty(t, stdout.String())
	require.Equal(t, "done\n", stderr.String())

	stderr.Reset()
	require.NoError(t, New(&stdout, &stderr, ModeTable, true, false).PrintSummary("done"))
	require.Empty(t, stdout.String())
}

func TestPrintSuccessSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false, false)

	require.NoError(t, f.PrintSuccessSummary("sync", "1312 rules"))
	require.Equal(t, "✓ Sync 1312 rules\n", stdout.String())

	stdout.Reset()
	require.NoError(t, f.PrintSuccessSummary("validate", ""))
	require.Equal(t, "✓ Validate completed successfully\n", stdout.String())
}

func TestPrintTotalFailureSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false, false)

	cause := uaparser.NewSourceRequiredError()
	err := f.PrintTotalFailureSummary("sync rules", cause, ErrorCode(cause))
	require.ErrorIs(t, err, uaparser.ErrSourceRequired)
	require.True(t, IsReported(err))
	require.Contains(t, stderr.String(), "✗ Failed to sync rules")
	require.Contains(t, stderr.String(), "Suggestions:")
	require.Contains(t, stderr.String(), "--file <path>")
}

func TestPrintTotalFailureSummary_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false, false)

	cause := fmt.Errorf("load: %w", uaparser.ErrEmptySpecification)
	err := f.PrintTotalFailureSummary("validate rules", cause, ErrorCode(cause))
	require.True(t, IsReported(err))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &payload))
	require.Equal(t, false, payload["success"])
	require.Equal(t, "SPEC_EMPTY", payload["error_code"])
}

func TestPrintTotalFailureSummary_Nil(t *testing.T) {
	f := New(&bytes.Buffer{}, &bytes.Buffer{}, ModeTable, false, false)
	require.NoError(t, f.PrintTotalFailureSummary("x", nil, ""))
	require.False(t, IsReported(errors.New("plain")))
}

func TestGetSuggestions(t *testing.T) {
	require.Nil(t, GetSuggestions(nil))
	require.True(t, IsServerError(server.NewInvalidPortError(0)))
	require.Equal(t, server.Suggestions(server.NewInvalidPortError(0)), GetSuggestions(server.NewInvalidPortError(0)))
	require.False(t, IsServerError(uaparser.NewSourceConflictError()))
	require.Equal(t, uaparser.Suggestions(uaparser.NewSourceConflictError()), GetSuggestions(uaparser.NewSourceConflictError()))
}

func TestPrintBox_Plain(t *testing.T) {
	var stdout bytes.Buffer
	f := New(&stdout, &bytes.Buffer{}, ModeTable, false, false)

	require.NoError(t, f.PrintBox("Conformance", [][2]string{{"cases", "12"}, {"pass rate", "100.0%"}}, true))
	require.Equal(t, "Conformance\ncases      12\npass rate  100.0%\n", stdout.String())
}

func TestValidateMode(t *testing.T) {
	require.NoError(t, ValidateMode("json"))
	require.NoError(t, ValidateMode("TABLE"))
	require.Error(t, ValidateMode("yaml"))
	require.Equal(t, ModeTable, ParseMode("anything"))
}

func TestFromCommandRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("output", "table", "")
	cmd.Flags().Bool("quiet", false, "")
	cmd.Flags().Bool("no-color", false, "")

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Flags().Set("output", "json"))
	require.NoError(t, cmd.Flags().Set("quiet", "true"))

	formatter := FromCommand(cmd)
	require.Equal(t, ModeJSON, formatter.Mode())
	require.NoError(t, formatter.PrintSummary("should be suppressed"))
	require.Empty(t, out.String())
}

func TestFromCommandJSONFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("json", false, "")
	require.NoError(t, cmd.Flags().Set("json", "true"))
	require.Equal(t, ModeJSON, FromCommand(cmd).Mode())
}
