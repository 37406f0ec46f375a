package terminal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
)

type fakeBackend struct {
	mu        sync.Mutex
	base      int
	mtbfErr   error
	documents []string
}

func (b *fakeBackend) GenerateReport(_ context.Context, req api.GenerateReportRequest) ([]api.BaseReport, error) {
	b.mu.Lock()
	b.base++
	b.mu.Unlock()

	var out []api.BaseReport
	for _, p := range req.Processes {
		out = append(out, api.BaseReport{
			Process:   p,
			Report:    p + " 정상 가동",
			Labels:    []string{"09:10", "09:40"},
			Available: []float64{1, 1, 1, 0},
			Failures:  []int{1, 2},
		})
	}
	return out, nil
}

func (b *fakeBackend) GetDowntime(context.Context, api.SectionRequest) (*api.DowntimeResponse, error) {
	return &api.DowntimeResponse{FailureTotal: 12, RepairTotal: 4}, nil
}

func (b *fakeBackend) GetMTBF(context.Context, api.SectionRequest) (*api.MTBFResponse, error) {
	if b.mtbfErr != nil {
		return nil, b.mtbfErr
	}
	return &api.MTBFResponse{MTBFMinutes: 42, FailureCount: 3}, nil
}

func (b *fakeBackend) GetMTTR(context.Context, api.SectionRequest) (*api.MTTRResponse, error) {
	return &api.MTTRResponse{MTTRMinutes: 6.5, RepairCount: 2}, nil
}

func (b *fakeBackend) GenerateDocument(_ context.Context, format string, _ api.ExportForm) (*api.DocumentBlob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.documents = append(b.documents, format)
	return &api.DocumentBlob{Body: []byte("document")}, nil
}

func run(t *testing.T, be *fakeBackend, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cli := NewCLI(Options{Output: &out, LogOutput: &logs, Backend: be})
	cli.SetArgs(args)
	err := cli.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Generate(t *testing.T) {
	be := &fakeBackend{}

	out, err := run(t, be, "generate", "-p", "P1", "-p", "P2", "--range", "3시간")

	require.NoError(t, err)
	assert.Equal(t, 1, be.base)
	assert.Contains(t, out, "Range: 3h")
	assert.Contains(t, out, "=== [P1] 공정 ===")
	assert.Contains(t, out, "=== [P2] 공정 ===")
	assert.Contains(t, out, "P1 정상 가동")
	assert.Contains(t, out, "09시대:3")
	assert.Contains(t, out, "✓ [P2] mtbf")
	assert.Contains(t, out, "42.0")
}

func TestCLI_Generate_PartialFailure(t *testing.T) {
	be := &fakeBackend{mtbfErr: errors.New("mtbf service down")}

	out, err := run(t, be, "generate", "-p", "P1", "--include", "availability,mtbf")

	require.NoError(t, err)
	assert.Contains(t, out, "✗ [P1] mtbf")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "mtbf service down")
	assert.Contains(t, out, "availability")
}

func TestCLI_Generate_ValidationHappensBeforeFetch(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing end", args: []string{"generate", "-p", "P1", "--range", "custom", "--start", "2025-04-10T09:00"}},
		{name: "unknown period", args: []string{"generate", "-p", "P1", "--period", "yearly"}},
		{name: "unknown section", args: []string{"generate", "-p", "P1", "--include", "oee"}},
		{name: "no process", args: []string{"generate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{}
			_, err := run(t, be, tt.args...)
			assert.Error(t, err)
			assert.Equal(t, 0, be.base)
		})
	}
}

func TestCLI_Export(t *testing.T) {
	be := &fakeBackend{}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	out, err := run(t, be, "export", "-p", "P1", "--format", "excel", "--out", path)

	require.NoError(t, err)
	assert.Contains(t, out, "saved "+path)
	assert.Equal(t, []string{"excel"}, be.documents)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "document", string(data))
}

func TestCLI_Profiles(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "profiles.ini")
	require.NoError(t, os.WriteFile(ini, []byte("[line-a]\nurl = http://10.0.0.5:5000\ntimeout = 5s\n"), 0o644))
	settings := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("backend:\n  profiles: \""+ini+"\"\n"), 0o644))

	out, err := run(t, &fakeBackend{}, "profiles", "--config", settings)

	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "line-a")
	assert.Contains(t, out, "http://10.0.0.5:5000")
	assert.Contains(t, out, "5s")
}

func TestReporter_SectionReady(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.SectionReady(context.Background(), domain.SectionEvent{Process: "P1", Section: domain.SectionMTTR})
	r.SectionReady(context.Background(), domain.SectionEvent{Process: "P1", Section: domain.SectionMTBF, Err: errors.New("boom")})

	assert.Equal(t, "  ✓ [P1] mttr\n  ✗ [P1] mtbf: boom\n", buf.String())
}
