package clia

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"clia-tracker/core/record"
	"clia-tracker/core/report"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	field, name, body string
}

func newRequest(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func setupTestApp(t *testing.T) (*fiber.App, string) {
	return setupTestAppWith(t, testSettings())
}

func setupTestAppWith(t *testing.T, settings Settings) (*fiber.App, string) {
	svc, outDir := newTestService(t, settings, nil, nil)
	app := fiber.New()
	NewHandler(svc, 20).RegisterRoutes(app)
	return app, outDir
}

func post(t *testing.T, app *fiber.App, target string, parts ...part) (int, []byte) {
	t.Helper()
	body, contentType := newRequest(t, parts...)
	req := httptest.NewRequest("POST", target, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func TestHandleReconcile(t *testing.T) {
	app, outDir := setupTestApp(t)

	status, body := post(t, app, "/reconcile?max_rows=1",
		part{"baseline", "master.csv", masterCSV},
		part{"new", "data1.csv", data1CSV},
		part{"new", "data2.csv", data2CSV},
	)
	require.Equal(t, fiber.StatusOK, status, string(body))

	var doc report.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, 1, doc.Summary.New)
	assert.Equal(t, 1, doc.Summary.Closed)
	assert.Equal(t, 2, doc.Summary.Unchanged)
	assert.Equal(t, 1, doc.Summary.Duplicates)
	assert.Equal(t, 1, doc.MaxRows)
	require.Len(t, doc.Sections, 4)
	assert.Len(t, doc.Sections[3].Rows, 1)
	assert.True(t, doc.Sections[3].Truncated)
	assert.Equal(t, []string{"data1.csv", "data2.csv"}, doc.Run.Inputs)
	assert.Empty(t, doc.Files)
	assert.NoDirExists(t, outDir)
}

func TestHandleReconcile_SaveAndExtra(t *testing.T) {
	app, outDir := setupTestApp(t)

	status, body := post(t, app, "/reconcile?save=true&extra=1",
		part{"baseline", "master.csv", masterCSV},
		part{"new", "data1.csv", data1CSV},
		part{"new", "data2.csv", data2CSV},
	)
	require.Equal(t, fiber.StatusOK, status, string(body))

	var doc report.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Len(t, doc.Files, 5)
	assert.DirExists(t, outDir)
	require.Len(t, doc.Sections, 9)
	assert.Equal(t, TitleBaseline, doc.Sections[0].Title)
	assert.Equal(t, TitleCombined, doc.Sections[1].Title)
	assert.Equal(t, "Labs in Alabama only", doc.Sections[6].Title)
}

func TestHandleReconcile_Errors(t *testing.T) {
	settings := testSettings()
	settings.Reconcile.MaxClosedRatio = 0.5
	app, _ := setupTestAppWith(t, settings)

	tests := []struct {
		name   string
		target string
		parts  []part
		want   int
	}{
		{"Missing new", "/reconcile", []part{{"baseline", "master.csv", masterCSV}}, fiber.StatusBadRequest},
		{"Two baselines", "/reconcile", []part{
			{"baseline", "a.csv", masterCSV},
			{"baseline", "b.csv", masterCSV},
			{"new", "data1.csv", data1CSV},
		}, fiber.StatusBadRequest},
		{"No key column", "/reconcile", []part{
			{"baseline", "master.csv", masterCSV},
			{"new", "data1.csv", "LAB_NAME\nLab A\n"},
		}, fiber.StatusBadRequest},
		{"Excessive churn", "/reconcile", []part{
			{"baseline", "master.csv", masterCSV},
			{"new", "data1.csv", "CLIA,LAB_NAME,CITY\nA,Lab A,Juneau\n"},
		}, fiber.StatusConflict},
		{"Churn forced", "/reconcile?force=true", []part{
			{"baseline", "master.csv", masterCSV},
			{"new", "data1.csv", "CLIA,LAB_NAME,CITY\nA,Lab A,Juneau\n"},
		}, fiber.StatusOK},
		{"Baseline duplicate", "/reconcile", []part{
			{"baseline", "master.csv", masterCSV + "B,Lab B,Nome\n"},
			{"new", "data1.csv", data1CSV},
		}, fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, app, tt.target, tt.parts...)
			assert.Equal(t, tt.want, status, string(body))
			if tt.want != fiber.StatusOK {
				var out map[string]string
				require.NoError(t, json.Unmarshal(body, &out))
				assert.NotEmpty(t, out["error"])
			}
		})
	}
}

func TestHandleReconcile_FullClosureByDefault(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := post(t, app, "/reconcile",
		part{"baseline", "master.csv", "CLIA,LAB_NAME\nA1,Lab\n"},
		part{"new", "data1.csv", "CLIA,LAB_NAME\n"},
	)
	require.Equal(t, fiber.StatusOK, status, string(body))

	var doc report.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, 1, doc.Summary.Closed)
	assert.Equal(t, 0, doc.Summary.NewMaster)
}

func TestHandleReconcile_NotMultipart(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/reconcile", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleColumns(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/reconcile/columns", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		KeyColumn string   `json:"key_column"`
		Columns   []string `json:"columns"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "CLIA", body.KeyColumn)
	assert.Equal(t, Columns, body.Columns)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusUnprocessableEntity, statusFor(&record.DuplicateKeyError{Key: "A"}))
}

func TestLoader(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), nil, nil)
	feature := NewFeature(svc, 20)

	assert.Equal(t, "clia", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.False(t, NewFeature(nil, 20).IsEnabled())

	app := fiber.New()
	assert.NoError(t, feature.Load(app))
}
