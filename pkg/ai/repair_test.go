package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONTrailingComma(t *testing.T) {
	cleaned := CleanJSON(`{"a":1,}`)
	require.True(t, json.Valid([]byte(cleaned)), "cleaned output should parse: %s", cleaned)

	cleaned = CleanJSON(`{"items":[1,2,3,],"b":2,}`)
	require.True(t, json.Valid([]byte(cleaned)), "cleaned output should parse: %s", cleaned)
}

func TestCleanJSONBareKeys(t *testing.T) {
	cleaned := CleanJSON(`{score: 5, feedback: "ok"}`)
	require.True(t, json.Valid([]byte(cleaned)), "cleaned output should parse: %s", cleaned)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(cleaned), &parsed))
	require.Equal(t, 5.0, parsed["score"])
}

func TestCleanJSONStripsControlCharacters(t *testing.T) {
	cleaned := CleanJSON("{\"a\":\x01 1}")
	require.True(t, json.Valid([]byte(cleaned)))
}

func TestRepairerDeterministicFallbackWithoutClient(t *testing.T) {
	repairer := NewRepairer(nil, zerolog.New(io.Discard))

	fixed, err := repairer.Repair(context.Background(), `{"a":1,}`, errors.New("invalid character '}'"), ShapeObject)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(fixed)))
}

func TestRepairerModelAssistedPass(t *testing.T) {
	client := &scriptedClient{responses: []string{"```json\n{\"a\": 1}\n```"}}
	repairer := NewRepairer(client, zerolog.New(io.Discard))

	fixed, err := repairer.Repair(context.Background(), `{"a": oops}`, errors.New("invalid character 'o'"), ShapeObject)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, fixed)
	require.Len(t, client.prompts, 1)
	require.Contains(t, client.prompts[0], `{"a": oops}`)
	require.Contains(t, client.prompts[0], "invalid character 'o'")
}

func TestRepairerFallsThroughWhenModelRepairIsBroken(t *testing.T) {
	client := &scriptedClient{responses: []string{`still {not json`}}
	repairer := NewRepairer(client, zerolog.New(io.Discard))

	fixed, err := repairer.Repair(context.Background(), `{"a":1,}`, errors.New("parse error"), ShapeObject)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(fixed)))
}

func TestRepairerHardFailure(t *testing.T) {
	client := &scriptedClient{err: errors.New("rate limited")}
	repairer := NewRepairer(client, zerolog.New(io.Discard))

	_, err := repairer.Repair(context.Background(), `{"a": [unclosed`, errors.New("unexpected end of JSON input"), ShapeObject)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRepairFailed)
}
