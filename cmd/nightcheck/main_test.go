package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/scheduler"
	"github.com/farmtrack/nightcheck/internal/server/middleware"
)

const testSecret = "cli-test-secret-0123456"

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TIMEZONE", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "token", "--user", "u1", "--farm", "F1", "--role", "admin", "--ttl", "1h")
	require.NoError(t, err)

	id, err := middleware.ParseToken([]byte(testSecret), string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, middleware.Identity{UserID: "u1", FarmID: "F1", Role: "admin"}, id)
}

func TestTokenCommandValidation(t *testing.T) {
	setEnv(t)

	_, err := execute(t, "token", "--farm", "F1")
	assert.ErrorContains(t, err, "--user and --farm are required")

	_, err = execute(t, "token", "--user", "u1", "--farm", "F1", "--role", "owner")
	assert.ErrorContains(t, err, "--role")
}

func TestCommandsRequireConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "--user", "u1", "--farm", "F1")
	assert.Error(t, err)
}

func TestRunRejectsBadDate(t *testing.T) {
	setEnv(t)

	_, err := execute(t, "run", "--date", "tonight")
	assert.ErrorContains(t, err, "parse date")
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	day := models.Date{Year: 2026, Month: time.October, Day: 17}
	printResult(cmd, &models.CheckResult{FarmID: "F1", Date: day, MissingAnimals: []string{"Bessie (A1)"}, AlertsGenerated: 1})
	assert.True(t, strings.HasPrefix(out.String(), "F1 2026-10-17: 1 missing, 1 alert(s) stored\n"))
	assert.Contains(t, out.String(), "Bessie (A1)")

	out.Reset()
	printResult(cmd, &models.CheckResult{Date: day})
	assert.Equal(t, "(no farm) 2026-10-17: all animals accounted for\n", out.String())
}

func TestPrintJobs(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	printJobs(cmd, []scheduler.JobInfo{
		{FarmID: scheduler.GlobalJobKey, Spec: "0 21 * * *"},
		{FarmID: "F1", Spec: "30 6 * * *"},
	})
	text := out.String()
	assert.Contains(t, text, "(global)")
	assert.Contains(t, text, "30 6 * * *")
}
