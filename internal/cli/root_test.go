package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safechecks/safechecks/internal/syncer"
	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/model"
)

func executeCommand(root *cobra.Command, args ...string) (stdout string, err error) {
	// Capture os.Stdout since CLI uses fmt.Printf directly
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		io.Copy(&buf, r)
		close(done)
	}()

	root.SetArgs(args)
	err = root.Execute()

	w.Close()
	<-done
	os.Stdout = oldStdout
	return buf.String(), err
}

func setupTestDir(t *testing.T) string {
	dir := t.TempDir()
	originalWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(originalWd)
	})
	return dir
}

func createTestRootCmd() *cobra.Command {
	jsonOutput = false
	noColor = false
	color.Disable()

	cmd := &cobra.Command{
		Use:           "safechecks",
		Short:         "SafeChecks - shift checklists and temperature logs",
		Long:          `SafeChecks records checklists and temperatures on each device and works offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(initCmd, connectCmd, disconnectCmd, deviceCmd)
	cmd.AddCommand(checkCmd, tempCmd, probeCmd, taskCmd)
	cmd.AddCommand(syncCmd, settingsCmd, historyCmd)
	cmd.AddCommand(journalCmd, doctorCmd, statusCmd, versionCmd)
	return cmd
}

func initDevice(t *testing.T, dept, staff string) {
	t.Helper()
	_, err := executeCommand(createTestRootCmd(), "init", "--dept", dept, "--staff", staff)
	require.NoError(t, err)
}

// useWorkbook points every workspace opened in the test at one xlsx file,
// standing in for the shared spreadsheet.
func useWorkbook(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "shared.xlsx")
	t.Setenv("SAFECHECKS_REMOTE_DRIVER", "xlsx")
	t.Setenv("SAFECHECKS_REMOTE_WORKBOOK", path)
	return path
}

func TestRootCommand_Help(t *testing.T) {
	stdout, err := executeCommand(createTestRootCmd(), "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "works offline")
}

func TestRootCommand_JSONFlag(t *testing.T) {
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--json", "--help")
	require.NoError(t, err)
	assert.True(t, jsonOutput)
}

func TestVersionCommand(t *testing.T) {
	stdout, err := executeCommand(createTestRootCmd(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "safechecks ")
}

func TestInitCommand_CreatesWorkspace(t *testing.T) {
	dir := setupTestDir(t)
	stdout, err := executeCommand(createTestRootCmd(), "init", "--dept", "kitchen", "--staff", "s2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Initialized SafeChecks")
	assert.Contains(t, stdout, "Head Chef")
	assert.Contains(t, stdout, "not configured")

	_, statErr := os.Stat(filepath.Join(dir, ".safechecks", "config.yaml"))
	assert.NoError(t, statErr)
}

func TestCheckCommands_TickAndSubmit(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "kitchen", "s2")

	stdout, err := executeCommand(createTestRootCmd(), "check", "tick", "opening", "sh_o1", "ko1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[x] sh_o1")
	assert.Contains(t, stdout, ": 2/")

	stdout, err = executeCommand(createTestRootCmd(), "check", "untick", "opening", "ko1")
	require.NoError(t, err)
	assert.Contains(t, stdout, ": 1/")

	stdout, err = executeCommand(createTestRootCmd(), "check", "submit", "opening", "--notes", "fine")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Submitted opening")
	assert.Contains(t, stdout, "queued for sync")

	stdout, err = executeCommand(createTestRootCmd(), "check", "show", "opening")
	require.NoError(t, err)
	assert.Contains(t, stdout, ": 0/")

	stdout, err = executeCommand(createTestRootCmd(), "history", "--range", "today")
	require.NoError(t, err)
	assert.Contains(t, stdout, "opening")
}

func TestTempLog_JSON(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "kitchen", "s2")

	stdout, err := executeCommand(createTestRootCmd(), "--json", "temp", "log", "--equipment", "e3", "--value", "9")
	require.NoError(t, err)
	var rec model.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, model.TypeTemperature, rec.Type)
	assert.Equal(t, "Walk-in Fridge", rec.Fields[model.KeyTempLocation])
	assert.Equal(t, string(model.StatusFail), rec.Fields[model.KeyTempStatus])

	stdout, err = executeCommand(createTestRootCmd(), "--json", "journal")
	require.NoError(t, err)
	var entries []model.JournalEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, model.JournalRecordQueued, entries[len(entries)-1].Event)
	assert.Equal(t, rec.ID, entries[len(entries)-1].RecordID)
}

func TestSync_TwoDevicesShareWorkbook(t *testing.T) {
	useWorkbook(t)
	originalWd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(originalWd) })
	dirA, dirB := t.TempDir(), t.TempDir()

	require.NoError(t, os.Chdir(dirA))
	initDevice(t, "kitchen", "s2")
	stdout, err := executeCommand(createTestRootCmd(), "--json", "probe", "log", "--product", "pp1", "--value", "78")
	require.NoError(t, err)
	var rec model.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, string(model.StatusPass), rec.Fields[model.KeyProbeStatus])

	require.NoError(t, os.Chdir(dirB))
	initDevice(t, "kitchen", "s3")
	stdout, err = executeCommand(createTestRootCmd(), "--json", "sync", "pull")
	require.NoError(t, err)
	var res syncer.PullResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, 1, res.Added)
	assert.Empty(t, res.FailedTabs)

	stdout, err = executeCommand(createTestRootCmd(), "--json", "history")
	require.NoError(t, err)
	var recs []model.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, model.SourceRemote, recs[0].Source)
}

func TestTaskCommands(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "kitchen", "s2")

	stdout, err := executeCommand(createTestRootCmd(), "task", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "kt1")
	assert.NotContains(t, stdout, "ft1")

	stdout, err = executeCommand(createTestRootCmd(), "task", "add", "Descale the kettle", "--day", "Friday")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added ot_")

	stdout, err = executeCommand(createTestRootCmd(), "task", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Descale the kettle (one-off)")
}

func TestSettingsShow(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "foh", "s5")

	stdout, err := executeCommand(createTestRootCmd(), "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "restaurant_name: My Restaurant")
	assert.Contains(t, stdout, "Walk-in Fridge")
}

func TestConnectAndSyncStatus(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "foh", "s5")

	stdout, err := executeCommand(createTestRootCmd(), "connect", "https://script.example.test/exec")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Connected to")

	stdout, err = executeCommand(createTestRootCmd(), "sync", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "https://script.example.test/exec")
	assert.Contains(t, stdout, "Queued: 0")

	stdout, err = executeCommand(createTestRootCmd(), "disconnect")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Disconnected.")
}

func TestDoctorCommand_Healthy(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "mgmt", "s1")

	stdout, err := executeCommand(createTestRootCmd(), "--json", "doctor")
	require.NoError(t, err)
	var result struct {
		Healthy bool `json:"healthy"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.True(t, result.Healthy)
}

func TestStatusCommand(t *testing.T) {
	setupTestDir(t)
	initDevice(t, "mgmt", "s1")

	stdout, err := executeCommand(createTestRootCmd(), "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Kitchen")
	assert.Contains(t, stdout, "Front of House")
	assert.Contains(t, stdout, "Management")
}
