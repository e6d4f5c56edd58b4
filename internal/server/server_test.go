package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/methodology"
	"github.com/matsen/pubfrac/internal/registry"
	"github.com/matsen/pubfrac/internal/report"
)

const header = "НАЗВАНИЕ;ГОД;Подразделение (широко);Список НИУ ВШЭ;Рец тип строгий;Фракционный балл;Тип (по Portal);Тип (по Scopus)\n"

const registryCSV = header +
	"P1;2023;\"Law;Economics\";A;1;2,0;Статья;Article\n" +
	"P2;2023;Law;A;1;1,0;Статья;Review\n" +
	"P3;2023;;A;1;5,0;Статья;Article\n" +
	"P4;2022;\"Math, Applied\";B;1;3,0;Монографии;Book\n"

func newTestServer(t *testing.T, content string) (*gin.Engine, *registry.Memo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "registry.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	memo := registry.NewMemo(registry.Options{}, nil, nil)
	builder := report.NewBuilder(methodology.Default(), attribution.DefaultTypeSets(), registry.ColumnNames{}, nil)
	return New(path, memo, builder, nil).Router(), memo
}

func get(t *testing.T, r http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestServer(t, registryCSV)
	rec := get(t, r, "/healthcheck")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestAggregates(t *testing.T) {
	r, _ := newTestServer(t, registryCSV)
	rec := get(t, r, "/api/aggregates")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AggregatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, attribution.TaxonomyPortal, resp.Taxonomy)
	assert.Equal(t, methodology.Window{From: 2021, To: 2023}, resp.Window)

	// Display order: most publications first, then highest score.
	require.Len(t, resp.Aggregates, 3)
	assert.Equal(t, attribution.Aggregate{Year: 2023, Division: "Law", PublicationCount: 2, FractionalScoreSum: 2, PublicationUnits: 1.5}, resp.Aggregates[0])
	assert.Equal(t, "Math, Applied", resp.Aggregates[1].Division)
	assert.Equal(t, "Economics", resp.Aggregates[2].Division)
}

func TestAggregates_Filters(t *testing.T) {
	r, memo := newTestServer(t, registryCSV)

	tests := []struct {
		name      string
		url       string
		divisions []string
	}{
		{"scopus", "/api/aggregates?taxonomy=scopus", []string{"Math, Applied", "Economics", "Law"}},
		{"year", "/api/aggregates?year=2022", []string{"Math, Applied"}},
		{"years comma-separated", "/api/aggregates?year=2022,2023&top=1", []string{"Law"}},
		{"division with comma", "/api/aggregates?division=Math%2C+Applied", []string{"Math, Applied"}},
		{"repeated division", "/api/aggregates?division=Law&division=Economics", []string{"Law", "Economics"}},
		{"no match", "/api/aggregates?year=1999", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, r, tt.url)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp AggregatesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			got := make([]string, 0, len(resp.Aggregates))
			for _, a := range resp.Aggregates {
				got = append(got, a.Division)
			}
			assert.Equal(t, tt.divisions, got)
		})
	}

	// Every request above re-filtered the same parsed registry.
	stats := memo.Stats()
	assert.Equal(t, 1, stats.Reads)
	assert.Equal(t, 1, stats.Parses)
}

func TestFacets(t *testing.T) {
	r, _ := newTestServer(t, registryCSV)
	rec := get(t, r, "/api/facets?taxonomy=scopus")
	require.Equal(t, http.StatusOK, rec.Code)

	var f attribution.Facets
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, []int{2022, 2023}, f.Years)
	assert.Equal(t, []string{"Economics", "Law", "Math, Applied"}, f.Divisions)
}

func TestReport(t *testing.T) {
	r, _ := newTestServer(t, registryCSV)
	rec := get(t, r, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var pair report.Pair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotNil(t, pair.Portal)
	require.NotNil(t, pair.Scopus)
	assert.Equal(t, attribution.TaxonomyScopus, pair.Scopus.Taxonomy)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		url     string
		status  int
		code    string
	}{
		{"bad taxonomy", registryCSV, "/api/aggregates?taxonomy=wos", http.StatusBadRequest, CodeBadRequest},
		{"bad year", registryCSV, "/api/aggregates?year=last", http.StatusBadRequest, CodeBadRequest},
		{"bad top", registryCSV, "/api/facets?top=-1", http.StatusBadRequest, CodeBadRequest},
		{"bad review", registryCSV, "/api/report?review=loose", http.StatusBadRequest, CodeBadRequest},
		{"portal score column missing", registryCSV, "/api/aggregates?mode=portal-score", http.StatusUnprocessableEntity, CodeSchema},
		{"non-strict column missing", registryCSV, "/api/aggregates?review=non-strict", http.StatusUnprocessableEntity, CodeSchema},
		{"missing columns", "a;b\n1;2\n", "/api/aggregates", http.StatusUnprocessableEntity, CodeSchema},
		{"nothing eligible", header + "P1;2023;Law;C;1;1;Статья;Article\n", "/api/aggregates", http.StatusConflict, CodeEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestServer(t, tt.content)
			rec := get(t, r, tt.url)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var env ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestErrors_SchemaListsMissingColumns(t *testing.T) {
	r, _ := newTestServer(t, registryCSV)
	rec := get(t, r, "/api/aggregates?mode=portal-score")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, []string{registry.DefaultColumns.PortalScore}, env.Error.Missing)
}

func TestSourceRemoved(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "gone.csv")
	builder := report.NewBuilder(methodology.Default(), attribution.DefaultTypeSets(), registry.ColumnNames{}, nil)
	r := New(path, registry.NewMemo(registry.Options{}, nil, nil), builder, nil).Router()

	rec := get(t, r, "/api/aggregates")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
