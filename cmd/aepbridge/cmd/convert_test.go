package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

func jsonOpts() convertOptions {
	return convertOptions{inputFormat: "json", outputFormat: "json", target: "string"}
}

func convertJSON(t *testing.T, kind, input string, opts convertOptions) map[string]any {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, runConvert(kind, strings.NewReader(input), &out, opts))
	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	return got
}

func TestConvert_Event(t *testing.T) {
	got := convertJSON(t, "event", `{
		"eventName": "purchase",
		"eventType": "com.adobe.eventType.generic.track",
		"eventSource": "com.adobe.eventSource.requestContent",
		"eventData": {"sku": "A1", "qty": 2, "gone": null}
	}`, jsonOpts())

	assert.Equal(t, "purchase", got["eventName"])
	data := got["eventData"].(map[string]any)
	assert.Equal(t, "A1", data["sku"])
	assert.EqualValues(t, 2, data["qty"])
}

func TestConvert_Failures(t *testing.T) {
	var out bytes.Buffer
	err := runConvert("event", strings.NewReader(`{"eventName": "x"}`), &out, jsonOpts())
	assert.ErrorIs(t, err, types.ErrConversionFailed)
	assert.Contains(t, err.Error(), "Event")

	err = runConvert("event", strings.NewReader(`[1, 2]`), &out, jsonOpts())
	assert.ErrorIs(t, err, types.ErrConversionFailed)

	err = runConvert("nope", strings.NewReader(`{}`), &out, jsonOpts())
	assert.ErrorContains(t, err, "unknown kind")

	opts := jsonOpts()
	opts.inputFormat = "xml"
	err = runConvert("consents", strings.NewReader(`{}`), &out, opts)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	assert.Empty(t, out.String())
}

func TestConvert_IdentityMap(t *testing.T) {
	opts := jsonOpts()
	opts.inputFormat = "jsonc"
	got := convertJSON(t, "identity-map", `{
		// comments and trailing commas are accepted
		"items": {
			"Email": [{"id": "a@example.com", "authenticatedState": "authenticated"},],
			"Broken": "not a list",
		},
	}`, opts)

	items := got["items"].(map[string]any)
	assert.Len(t, items, 1)
	email := items["Email"].([]any)
	require.Len(t, email, 1)
	assert.Equal(t, "a@example.com", email[0].(map[string]any)["id"])
}

func TestConvert_Sanitize(t *testing.T) {
	input := `{"a": "x", "b": 1, "c": true, "d": null}`

	got := convertJSON(t, "sanitize", input, jsonOpts())
	assert.Equal(t, map[string]any{"a": "x"}, got["dict"])
	assert.Equal(t, []any{"b", "c", "d"}, got["dropped"])

	opts := jsonOpts()
	opts.target = "number"
	got = convertJSON(t, "sanitize", input, opts)
	assert.Equal(t, map[string]any{"b": 1.0}, got["dict"])

	opts.target = "null"
	var out bytes.Buffer
	assert.ErrorIs(t, runConvert("sanitize", strings.NewReader(input), &out, opts), types.ErrInvalidArgument)
}

func TestConvert_Lookup(t *testing.T) {
	opts := jsonOpts()
	opts.path = "items[*].sku"
	got := convertJSON(t, "lookup", `{"items": [{"qty": 1}, {"sku": "B2"}]}`, opts)
	assert.Equal(t, "items[1].sku", got["path"])
	assert.Equal(t, "B2", got["value"])

	opts.path = "missing"
	var out bytes.Buffer
	assert.ErrorIs(t, runConvert("lookup", strings.NewReader(`{}`), &out, opts), types.ErrFieldNotFound)
}

func TestConvert_Encodings(t *testing.T) {
	in, err := wire.EncodeCBOR(wire.MustDict(map[string]any{"purposes": map[string]any{"collect": "y"}}))
	require.NoError(t, err)

	opts := convertOptions{inputFormat: "cbor", outputFormat: "yaml"}
	var out bytes.Buffer
	require.NoError(t, runConvert("consents", bytes.NewReader(in), &out, opts))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]any{"collect": "y"}, got["purposes"])

	opts.outputFormat = "cbor"
	out.Reset()
	require.NoError(t, runConvert("consents", bytes.NewReader(in), &out, opts))
	back, err := wire.DecodeCBOR(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"purposes"}, back.Keys())
}

func TestRunEnum(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runEnum(&out, "privacy_status", []string{"OPTEDIN", "AEP_PRIVACY_STATUS_OPT_OUT", "maybe"}))
	assert.Equal(t, "OPTEDIN -> optedin\nAEP_PRIVACY_STATUS_OPT_OUT -> optedout\nmaybe -> unknown (default)\n", out.String())

	out.Reset()
	require.NoError(t, runEnum(&out, "privacy_status", nil))
	assert.Equal(t, "optedin\noptedout\nunknown\n", out.String())

	assert.Error(t, runEnum(&out, "colors", nil))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "text")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = newLogger(&buf, "loud", "json")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestPickSecret(t *testing.T) {
	one := map[string][]byte{"a": []byte("s")}
	id, secret, err := pickSecret(one, "")
	require.NoError(t, err)
	assert.Equal(t, "a", id)
	assert.Equal(t, []byte("s"), secret)

	two := map[string][]byte{"a": []byte("s"), "b": []byte("t")}
	_, _, err = pickSecret(two, "")
	assert.Error(t, err)
	id, _, err = pickSecret(two, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", id)
	_, _, err = pickSecret(two, "c")
	assert.Error(t, err)
	_, _, err = pickSecret(nil, "")
	assert.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs(`["optedin", 3, {"a": [true]}]`)
	require.NoError(t, err)
	require.Len(t, args, 3)
	s, _ := args[0].AsString()
	assert.Equal(t, "optedin", s)
	assert.Equal(t, wire.KindMap, args[2].Kind())

	_, err = parseArgs(`{"a": 1}`)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = parseArgs(`[1,`)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestConvert_Decisioning(t *testing.T) {
	got := convertJSON(t, "offer", `{"id": "o1", "score": 3.6, "type": "HTML", "content": "<b>hi</b>"}`, jsonOpts())
	assert.EqualValues(t, 3, got["score"])
	data := got["data"].(map[string]any)
	assert.Equal(t, "text/html", data["format"])
	assert.Equal(t, "<b>hi</b>", data["content"])

	got = convertJSON(t, "decision-scope", `{"activityId": "a", "placementId": "p"}`, jsonOpts())
	assert.Equal(t, "eyJhY3Rpdml0eUlkIjoiYSIsInBsYWNlbWVudElkIjoicCJ9", got["name"])

	got = convertJSON(t, "proposition", `{"id": "p1", "scope": "hero", "offers": [{"id": "o1"}, 7]}`, jsonOpts())
	assert.Len(t, got["items"], 1)

	var out bytes.Buffer
	err := runConvert("offer", strings.NewReader(`{"id": "o1"} {"id": "o2"}`), &out, jsonOpts())
	assert.ErrorIs(t, err, types.ErrConversionFailed)
}
