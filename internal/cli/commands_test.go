package cli

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patientbook/internal/backup"
	"github.com/roach88/patientbook/internal/config"
	"github.com/roach88/patientbook/internal/dedup"
	"github.com/roach88/patientbook/internal/engine"
	"github.com/roach88/patientbook/internal/merge"
	"github.com/roach88/patientbook/internal/query"
	"github.com/roach88/patientbook/internal/record"
	"github.com/roach88/patientbook/internal/stats"
	"github.com/roach88/patientbook/internal/testutil"
)

func TestAddAndShow(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.runJSON(t, "add",
		"--name", "Asha Rao",
		"--age", "34",
		"--gender", "female",
		"--phone", "98450 00001",
		"--start", "2024-01-10",
		"--satisfied", "yes",
	)
	require.NoError(t, err)
	created := decodeData[record.Patient](t, resp)
	assert.Equal(t, int64(1), created.SerialNo)
	assert.Equal(t, record.GenderFemale, created.Gender)
	assert.Equal(t, record.SatisfactionYes, created.Satisfied)
	require.NotNil(t, created.Age)
	assert.Equal(t, 34, *created.Age)

	stdout, _, err := env.run(t, "add", "--name", "Ravi Kumar")
	require.NoError(t, err)
	assert.Equal(t, "Added patient 2 (Ravi Kumar)\n", stdout)

	stdout, _, err = env.run(t, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name:                Asha Rao\n")
	assert.Contains(t, stdout, "start_date:          2024-01-10\n")
	assert.Contains(t, stdout, "end_date:            -\n")
}

func TestAdd_ExplicitSerialCollision(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "add", "--serial", "3", "--name", "Someone")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDuplicateIdentifier, resp.Error.Code)
}

func TestAdd_RequiresName(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "add", "--age", "3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAdd_BadGenderIsUsageError(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, "add", "--name", "X", "--gender", "robot")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E_USAGE]")

	_, statErr := os.Stat(env.dataFile)
	assert.True(t, os.IsNotExist(statErr), "nothing should be saved")
}

func TestShow_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "show", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, map[string]any{"serial_no": float64(99)}, resp.Error.Details)
}

func TestEdit(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "edit", "2", "--treatment", "Physiotherapy", "--end", "2024-03-01")
	require.NoError(t, err)
	updated := decodeData[record.Patient](t, resp)
	assert.Equal(t, "Physiotherapy", updated.Treatment)
	assert.Equal(t, testutil.Date(2024, time.March, 1), updated.EndDate)
	assert.Equal(t, "Ravi Kumar", updated.Name, "untouched fields are kept")

	resp, err = env.runJSON(t, "edit", "2", "--clear-age")
	require.NoError(t, err)
	assert.Nil(t, decodeData[record.Patient](t, resp).Age)
}

func TestEdit_NothingToChange(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "edit", "2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeUsage, resp.Error.Code)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	stdout, _, err := env.run(t, "delete", "2", "5", "42")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 record(s)\n", stdout)

	resp, err := env.runJSON(t, "list")
	require.NoError(t, err)
	assert.Equal(t, 5, decodeData[query.Result](t, resp).Total)

	_, _, err = env.run(t, "delete", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRename(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	stdout, _, err := env.run(t, "rename", "5", "50")
	require.NoError(t, err)
	assert.Equal(t, "Renamed patient 5 to 50\n", stdout)

	resp, err := env.runJSON(t, "rename", "50", "1")
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicateIdentifier, resp.Error.Code)
}

func TestList_FiltersAndPages(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "list", "--gender", "Female", "--min-age", "30", "--sort", "age")
	require.NoError(t, err)
	res := decodeData[query.Result](t, resp)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Records, 3)
	assert.Equal(t, []int64{1, 3, 7}, serialsOf(res.Records))

	resp, err = env.runJSON(t, "list", "--page-size", "3", "--page", "3")
	require.NoError(t, err)
	res = decodeData[query.Result](t, resp)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, []int64{7}, serialsOf(res.Records))

	stdout, _, err := env.run(t, "list", "--page-size", "3", "--page", "4")
	require.NoError(t, err)
	assert.Equal(t, "No records on page 4 (7 records in 3 page(s))\n", stdout)

	stdout, _, err = env.run(t, "list", "--search", "nobody has this")
	require.NoError(t, err)
	assert.Equal(t, "No records found\n", stdout)
}

func TestList_BadFlags(t *testing.T) {
	env := newTestEnv(t)

	tests := [][]string{
		{"list", "--sort", "shoe_size"},
		{"list", "--page", "0"},
		{"list", "--from", "last tuesday"},
		{"list", "--satisfied", "meh"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			resp, err := env.runJSON(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, ErrCodeUsage, resp.Error.Code)
		})
	}
}

func TestDismissAndUndismiss(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	stdout, _, err := env.run(t, "dismiss", "2", "5")
	require.NoError(t, err)
	assert.Equal(t, "Dismissed 2 record(s)\n", stdout)

	resp, err := env.runJSON(t, "dups")
	require.NoError(t, err)
	groups := decodeData[[]dedup.Group](t, resp)
	require.Len(t, groups, 1)
	assert.Equal(t, []int64{3, 6}, groups[0].Serials())

	stdout, _, err = env.run(t, "undismiss", "7")
	require.NoError(t, err)
	assert.Equal(t, "Restored 1 record(s)\n", stdout)

	resp, err = env.runJSON(t, "dups")
	require.NoError(t, err)
	groups = decodeData[[]dedup.Group](t, resp)
	require.Len(t, groups, 2)
	assert.Equal(t, []int64{1, 7}, groups[0].Serials())

	resp, err = env.runJSON(t, "dismiss", "3", "404")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestDups_None(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.NewPatient(1, "Only One"))

	stdout, _, err := env.run(t, "dups")
	require.NoError(t, err)
	assert.Equal(t, "No likely duplicates\n", stdout)

	resp, err := env.runJSON(t, "dups")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestImport_CSV(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	src := filepath.Join(env.dir, "legacy.csv")
	csv := "SerialNo,Name,Age,Gender,PhoneNo\n" +
		"3,Lakshmi Nair,45,Female,98450 11111\n" +
		"20,Arjun Das,38,Male,\n" +
		",Nameless Serial,,,\n"
	require.NoError(t, os.WriteFile(src, []byte(csv), 0o644))

	resp, err := env.runJSON(t, "import", src)
	require.NoError(t, err)
	report := decodeData[merge.Report](t, resp)
	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 1, report.Kept)
	assert.Len(t, report.Reassigned, 2)

	resp, err = env.runJSON(t, "list")
	require.NoError(t, err)
	assert.Equal(t, 10, decodeData[query.Result](t, resp).Total)

	got, err := env.runJSON(t, "show", "3")
	require.NoError(t, err)
	assert.Equal(t, "Meena Iyer", decodeData[record.Patient](t, got).Name, "existing records are never overwritten")
}

func TestImport_BadSource(t *testing.T) {
	env := newTestEnv(t)

	src := filepath.Join(env.dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	resp, err := env.runJSON(t, "import", src)
	require.Error(t, err)
	assert.Equal(t, ErrCodeCorruptStore, resp.Error.Code)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	stdout, _, err := env.run(t, "export", "--gender", "Male")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "serial_no,name,email,age,gender"))
	assert.True(t, strings.HasPrefix(lines[1], "2,Ravi Kumar,"))

	out := filepath.Join(env.dir, "out", "patients.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
	resp, err := env.runJSON(t, "export", "-o", out, "--sort", "name")
	require.NoError(t, err)
	res := decodeData[exportResult](t, resp)
	assert.Equal(t, 7, res.Records)
	assert.Equal(t, "json", string(res.Format))

	// The export can be imported back.
	other := newTestEnv(t)
	resp, err = other.runJSON(t, "import", out)
	require.NoError(t, err)
	assert.Equal(t, 7, decodeData[merge.Report](t, resp).Added)
}

func TestBackupCommands(t *testing.T) {
	env := newTestEnv(t)
	env.env[config.EnvBackupCompress] = "true"
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "backup", "create")
	require.NoError(t, err)
	snap := decodeData[backup.Snapshot](t, resp)
	assert.True(t, snap.Compressed)
	assert.Equal(t, "patients_backup_20240115_093000.db.zst", snap.Name)

	_, _, err = env.run(t, "delete", "1", "2", "3")
	require.NoError(t, err)

	resp, err = env.runJSON(t, "backup", "list")
	require.NoError(t, err)
	require.Len(t, decodeData[[]backup.Snapshot](t, resp), 1)

	stdout, _, err := env.run(t, "backup", "restore", snap.Name)
	require.NoError(t, err)
	assert.Equal(t, "Restored "+snap.Name+"\n", stdout)

	resp, err = env.runJSON(t, "list")
	require.NoError(t, err)
	assert.Equal(t, 7, decodeData[query.Result](t, resp).Total)

	resp, err = env.runJSON(t, "backup", "restore", "../patients.db")
	require.Error(t, err)
	assert.Equal(t, ErrCodeBackup, resp.Error.Code)

	stdout, _, err = env.run(t, "backup", "prune", "--keep", "0")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 backup(s)\n", stdout)
}

func TestBackupCreate_MissingDataFile(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.runJSON(t, "backup", "create")
	require.Error(t, err)
	assert.Equal(t, ErrCodeBackup, resp.Error.Code)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	resp, err := env.runJSON(t, "stats")
	require.NoError(t, err)
	summary := decodeData[stats.Summary](t, resp)
	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 4, summary.Count(record.GenderFemale))

	stdout, _, err := env.run(t, "stats", "--gender", "Other")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Patients: 1\n")
	assert.Contains(t, stdout, "Average age: -\n")
	assert.Contains(t, stdout, "Most common symptom: Migraine (1)\n")
}

func TestPhotoCommands(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	src := filepath.Join(env.dir, "face.png")
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	resp, err := env.runJSON(t, "photo", "attach", "2", src)
	require.NoError(t, err)
	p := decodeData[record.Patient](t, resp)
	assert.Equal(t, filepath.Join(env.dir, "photos", "patient_2.png"), p.PhotoRef)
	assert.FileExists(t, p.PhotoRef)

	stdout, _, err := env.run(t, "photo", "remove", "2")
	require.NoError(t, err)
	assert.Equal(t, "Removed photo of patient 2\n", stdout)
	assert.NoFileExists(t, p.PhotoRef)

	resp, err = env.runJSON(t, "photo", "attach", "99", src)
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	stdout, _, err := env.run(t, "info")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Records:          7\n")
	assert.Contains(t, stdout, "Next serial:      8\n")
	assert.Contains(t, stdout, "Duplicate groups: 2\n")
	assert.Contains(t, stdout, "(generation seed)")

	resp, err := env.runJSON(t, "info")
	require.NoError(t, err)
	info := decodeData[engine.Info](t, resp)
	assert.Equal(t, env.dataFile, info.DataFile)
}

func TestCorruptDataFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.dataFile, []byte("this is not a patient table"), 0o644))

	resp, err := env.runJSON(t, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeCorruptStore, resp.Error.Code)

	_, stderr, err := env.run(t, "list")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [E_CORRUPT_STORE]")
}

func TestConfigFromEnvironment(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)
	env.env[config.EnvDataFile] = env.dataFile
	env.env[config.EnvPageSize] = "2"

	stdout, _, err := env.execute(t, "--format", "json", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"page_size": 2`)
	assert.Contains(t, stdout, `"total": 7`)
}

func TestConfigFromYAMLAndDataFlag(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, testutil.SamplePatients()...)

	cfgPath := filepath.Join(env.dir, "custom.yaml")
	yaml := "data_file: " + filepath.Join(env.dir, "elsewhere.db") + "\npage_size: 5\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	// --data wins over the config file.
	stdout, _, err := env.execute(t, "--config", cfgPath, "--data", env.dataFile, "--format", "json", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"page_size": 5`)
	assert.Contains(t, stdout, `"total": 7`)
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	env.env[config.EnvPageSize] = "0"

	resp, err := env.runJSON(t, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestInvalidFormat(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "--format", "xml", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.False(t, IsReported(err))
}

func serialsOf(records []record.Patient) []int64 {
	out := make([]int64, len(records))
	for i, p := range records {
		out[i] = p.SerialNo
	}
	return out
}
