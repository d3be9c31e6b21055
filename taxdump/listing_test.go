package taxdump

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestPage = `<html><body><pre>
<a href="../">Parent Directory</a>
<a href="new_taxdump.tar.gz">new_taxdump.tar.gz</a>
<a href="new_taxdump.tar.gz.md5">new_taxdump.tar.gz.md5</a>
<a href="taxdump_readme.txt">taxdump_readme.txt</a>
</pre></body></html>`

const archivePage = `<html><body><pre>
<a href="/pub/taxonomy/taxdump_archive/new_taxdump_2024-01-01.zip">new_taxdump_2024-01-01.zip</a>
<a href="taxdmp_2018-01-01.zip">taxdmp_2018-01-01.zip</a>
<a name="anchor">no href</a>
</pre></body></html>`

func indexServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pub/taxonomy/new_taxdump/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(latestPage))
	})
	mux.HandleFunc("/pub/taxonomy/taxdump_archive/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(archivePage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListArchives(t *testing.T) {
	srv := indexServer(t)

	got, err := ListArchives(context.Background(), srv.Client(),
		srv.URL+"/pub/taxonomy/new_taxdump/",
		srv.URL+"/pub/taxonomy/taxdump_archive/",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL + "/pub/taxonomy/new_taxdump/new_taxdump.tar.gz"}, got.Latest)
	assert.Equal(t, []string{
		srv.URL + "/pub/taxonomy/taxdump_archive/new_taxdump_2024-01-01.zip",
		srv.URL + "/pub/taxonomy/taxdump_archive/taxdmp_2018-01-01.zip",
	}, got.Archive)
}

func TestListArchives_HTTPError(t *testing.T) {
	srv := indexServer(t)

	_, err := ListArchives(context.Background(), srv.Client(),
		srv.URL+"/pub/taxonomy/new_taxdump/",
		srv.URL+"/missing/",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
