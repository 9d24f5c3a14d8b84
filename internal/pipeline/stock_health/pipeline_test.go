package stock_health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/stockhealth/backend-go/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractIsolatesBrokenFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "listado_centro.csv",
			"Código,Nombre,Existencia Actual,Dpto. Descrip,Marca\n"+
				"A1,Guante latex mediano,100,Quirurgico,Acme\n"+
				"B2,Venda elastica,500,,\n"),
		writeFile(t, dir, "vendido_centro.csv", "Código,Cantidad\nA1,120\nB2,60\n"),
		writeFile(t, dir, "listado_norte.xlsx", "this is not a workbook"),
		writeFile(t, dir, "vendido_norte.csv", "Código,Cantidad\nA1,30\n"),
		writeFile(t, dir, "notas.txt", "ignore me"),
	}

	cfg := pipeline.DefaultPipelineConfig(PipelineName)
	cfg.RetryBackoff = 0
	p := NewStockHealthPipeline(nil, cfg, nil)

	ext, err := p.Extract(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusCompleted, ext.Run.Status)
	assert.Equal(t, 5, ext.Run.TotalFiles)
	assert.Equal(t, 3, ext.Run.ProcessedFiles)
	assert.Equal(t, 1, ext.Run.FailedFiles)
	assert.Equal(t, 1, ext.Run.SkippedFiles)

	for _, job := range ext.Run.Jobs {
		if filepath.Base(job.FilePath) == "listado_norte.xlsx" {
			assert.Equal(t, pipeline.FileStatusFailed, job.Status)
			assert.Equal(t, 1, job.RetryCount)
			assert.NotEmpty(t, job.ErrorMessage)
		}
	}

	require.Len(t, ext.Rows, 1)
	centro := ext.Rows[0]
	assert.Equal(t, OutletCentro, centro.Outlet)
	assert.True(t, centro.HasSales)
	assert.Len(t, centro.Stock, 2)
	assert.Len(t, centro.Sales, 2)
	assert.Equal(t, []string{filepath.Join(dir, "vendido_norte.csv")}, ext.Ignored)

	sn, err := BuildSnapshot(context.Background(), ext.Rows, DefaultSettings())
	require.NoError(t, err)
	items := consolidatedByCode(sn.Consolidated)
	require.Len(t, items, 2)
	assert.Equal(t, Balanced, items["A1"].Classification)
	assert.Equal(t, Excess, items["B2"].Classification)
	assert.Equal(t, 440, items["B2"].ExcessUnits)

	latest, err := p.Runs().GetLatestPipelineRun(context.Background(), PipelineName)
	require.NoError(t, err)
	assert.Equal(t, ext.Run.ID, latest.ID)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewStockHealthPipeline(nil, pipeline.DefaultPipelineConfig(PipelineName), nil)

	assert.NoError(t, p.Validate(writeFile(t, dir, "listado_norte.csv", "a\n")))
	assert.ErrorIs(t, p.Validate(writeFile(t, dir, "listado_norte.txt", "a\n")), pipeline.ErrSkipFile)
	assert.ErrorIs(t, p.Validate(writeFile(t, dir, "resumen.csv", "a\n")), pipeline.ErrSkipFile)

	err := p.Validate(filepath.Join(dir, "listado_centro.csv"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, pipeline.ErrSkipFile)

	sub := filepath.Join(dir, "listado_centro.xlsx")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.NotErrorIs(t, p.Validate(sub), pipeline.ErrSkipFile)
}
