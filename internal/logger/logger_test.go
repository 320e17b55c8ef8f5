package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	SetLevel("warn")
	Infof("被过滤的信息 %d", 1)
	Warnf("保留的警告 %s", "x")
	SetLevel("info")

	out := buf.String()
	assert.NotContains(t, out, "被过滤的信息")
	assert.Contains(t, out, "保留的警告 x")
	assert.Contains(t, out, "level=WARN")
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("nonsense"))
	assert.NotEqual(t, parseLevel("debug"), parseLevel("error"))
	assert.Equal(t, parseLevel("warn"), parseLevel(" WARNING "))
}

func TestOracleDumpRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	SetOracleLog(&buf)
	defer SetOracleLog(nil)

	EnableOraclePayloadDump(false)
	OracleRequest("grok-3-mini", "system text", "user text", `{"raw":"payload"}`)
	OracleResponse("grok-3-mini", `{"action":"SKIP"}`)

	out := buf.String()
	assert.Contains(t, out, ">>> request model=grok-3-mini")
	assert.Contains(t, out, "--- system ---\nsystem text\n")
	assert.Contains(t, out, "--- user ---\nuser text\n")
	assert.NotContains(t, out, "--- payload ---")
	assert.Contains(t, out, "<<< response model=grok-3-mini")
	assert.Contains(t, out, `{"action":"SKIP"}`)
	assert.Equal(t, 2, strings.Count(out, "=====\n"))
}

func TestOraclePayloadDumpToggle(t *testing.T) {
	var buf bytes.Buffer
	SetOracleLog(&buf)
	defer SetOracleLog(nil)

	EnableOraclePayloadDump(true)
	defer EnableOraclePayloadDump(false)
	OracleRequest("grok-3-mini", "s", "u", `{"model":"grok-3-mini"}`)

	assert.Contains(t, buf.String(), "--- payload ---\n{\"model\":\"grok-3-mini\"}\n")
}

func TestOracleLogDisabledByDefault(t *testing.T) {
	SetOracleLog(nil)
	OracleResponse("grok-3-mini", "dropped")
}
