package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safechecks/safechecks/internal/gateway"
	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/pkg/errclass"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openWorkbook(t *testing.T) *gateway.Workbook {
	t.Helper()
	wb, err := gateway.OpenWorkbook(filepath.Join(t.TempDir(), "venue.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestWorkbook_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	wb := openWorkbook(t)

	rows, err := wb.Read(ctx, sheets.TabOpening)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, wb.Append(ctx, sheets.TabOpening, []string{"ID", "Date"}, []string{"r1", "27/02/2026"}))
	// A later writer with an extra column extends the header row.
	require.NoError(t, wb.Append(ctx, sheets.TabOpening, []string{"ID", "Date", "Summary"}, []string{"r2", "27/02/2026", "ok"}))

	rows, err = wb.Read(ctx, sheets.TabOpening)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r1", rows[0]["ID"])
	assert.Equal(t, "", rows[0]["Summary"])
	assert.Equal(t, "ok", rows[1]["Summary"])
}

func TestWorkbook_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "venue.xlsx")

	wb, err := gateway.OpenWorkbook(path)
	require.NoError(t, err)
	require.NoError(t, wb.Append(ctx, sheets.TabTemperature, []string{"ID"}, []string{"r1"}))
	require.NoError(t, wb.Close())

	wb, err = gateway.OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.Read(ctx, sheets.TabTemperature)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWorkbook_UpsertByKey(t *testing.T) {
	ctx := context.Background()
	wb := openWorkbook(t)
	h := sheets.DraftHeaders

	row := func(key, ticks string) []string {
		return []string{key, "opening", "kitchen", "2026-02-27", "dev", "2026-02-27T10:00:00Z", "false", ticks}
	}
	require.NoError(t, wb.Upsert(ctx, sheets.TabDrafts, "a", h, row("a", `{"ko1":true}`)))
	require.NoError(t, wb.Upsert(ctx, sheets.TabDrafts, "b", h, row("b", `{}`)))
	require.NoError(t, wb.Upsert(ctx, sheets.TabDrafts, "a", h, row("a", `{"ko1":true,"ko2":true}`)))

	rows, err := wb.Read(ctx, sheets.TabDrafts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `{"ko1":true,"ko2":true}`, rows[0][sheets.ColTicks])

	err = wb.Upsert(ctx, sheets.TabDrafts, "", h, row("", ""))
	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestWorkbook_Settings(t *testing.T) {
	ctx := context.Background()
	wb := openWorkbook(t)

	blob, err := wb.ReadSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, wb.SaveSettings(ctx, []byte(`{"restaurantName":"A"}`)))
	require.NoError(t, wb.SaveSettings(ctx, []byte(`{"restaurantName":"B"}`)))
	blob, err = wb.ReadSettings(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"restaurantName":"B"}`, string(blob))
}

func TestServer_SpeaksClientProtocol(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(gateway.NewServer(openWorkbook(t), gateway.Options{Secret: "k"}).Handler())
	defer srv.Close()

	c := sheets.NewClient(srv.URL+"/exec", "k", 5*time.Second)
	require.NoError(t, c.Append(ctx, sheets.TabFoodProbe, []string{"ID", "Core Temperature (°C)"}, []string{"p1", "75"}))
	rows, err := c.Read(ctx, sheets.TabFoodProbe)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "75", rows[0][sheets.ColCoreTemp])

	require.NoError(t, c.SaveSettings(ctx, []byte(`{"restaurantName":"Venue"}`)))
	blob, err := c.ReadSettings(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"restaurantName":"Venue"}`, string(blob))

	wrong := sheets.NewClient(srv.URL, "nope", 5*time.Second)
	_, err = wrong.Read(ctx, sheets.TabFoodProbe)
	assert.ErrorIs(t, err, errclass.ErrRemote)
}

func TestServer_RejectsUnknownAction(t *testing.T) {
	h := gateway.NewServer(openWorkbook(t), gateway.Options{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?action=drop", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
