package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rentalhandler "briq/internal/rental/handler"
	"briq/internal/trust/seed"
)

const terms = `property_id: flat-12
landlord: "0xaaaa000000000000000000000000000000000001"
tenant: "0xbbbb000000000000000000000000000000000002"
monthly_rent: "1200"
deposit: "2400"
start_date: 2026-03-01T00:00:00Z
nonce: fixed
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMessageIsDeterministic(t *testing.T) {
	t.Setenv("BRIQ_CURRENCY_UNIT", "tinybar")
	path := writeFile(t, "terms.yaml", terms)

	var first, second bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"message", "-f", path}, &first))
	require.NoError(t, run(context.Background(), []string{"message", "--file", path}, &second))
	assert.Equal(t, first.String(), second.String())

	var d rentalhandler.DraftResponse
	require.NoError(t, json.Unmarshal(first.Bytes(), &d))
	assert.Equal(t, "fixed", d.Terms.Nonce)
	assert.Contains(t, d.Message, "Deposit: 2400 tinybar")
	assert.Len(t, d.AgreementHash, 66)
}

func TestSeedPersistsWithSQLite(t *testing.T) {
	t.Setenv("BRIQ_PROFILE_BACKEND", "sqlite")
	t.Setenv("BRIQ_SQLITE_PATH", filepath.Join(t.TempDir(), "briq.db"))
	t.Setenv("BRIQ_LOG_LEVEL", "error")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"seed", "-f", "../../internal/trust/seed/testdata/fixtures.yaml"}, &out))
	var res seed.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Profiles)

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"show", "0xbbbb000000000000000000000000000000000002"}, &out))
	assert.Contains(t, out.String(), `"trust_score"`)
	assert.Contains(t, out.String(), `"attributes"`)
}

func TestToken(t *testing.T) {
	t.Setenv("BRIQ_JWT_SIGNING_KEY", "")
	assert.Error(t, run(context.Background(), []string{"token", "0xabc"}, &bytes.Buffer{}))

	t.Setenv("BRIQ_JWT_SIGNING_KEY", "k")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"token", "--ttl", "5m", "0xabc"}, &out))
	assert.NotEmpty(t, bytes.TrimSpace(out.Bytes()))
}

func TestUsageErrors(t *testing.T) {
	assert.ErrorIs(t, run(context.Background(), nil, &bytes.Buffer{}), errUsage)
	assert.Error(t, run(context.Background(), []string{"bogus"}, &bytes.Buffer{}))
	assert.Error(t, run(context.Background(), []string{"seed"}, &bytes.Buffer{}))
	assert.Error(t, run(context.Background(), []string{"show"}, &bytes.Buffer{}))
}
