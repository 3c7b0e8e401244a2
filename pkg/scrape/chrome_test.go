package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lazyListing adds a row only after the page is scrolled.
const lazyListing = `<html><body style="height:4000px">
<table id="tablepress-23"><tbody>
<tr><td class="column-4">Red Zoro</td><td class="column-6">2024-05-01</td><td class="column-8">Alice</td><td class="column-10">Regional</td></tr>
</tbody></table>
<script>
window.addEventListener("scroll", function () {
  if (document.getElementById("lazy")) return;
  var tr = document.createElement("tr");
  tr.id = "lazy";
  tr.innerHTML = '<td class="column-4">Purple Luffy</td><td class="column-6">2024-05-03</td><td class="column-8">Carol</td><td class="column-10">Treasure Cup</td>';
  document.querySelector("#tablepress-23 tbody").appendChild(tr);
});
</script>
</body></html>`

func chromeBinary(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no chrome binary found")
	return ""
}

func TestChromeSessionOpen(t *testing.T) {
	execPath := chromeBinary(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(lazyListing))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	t.Run("without scrolling", func(t *testing.T) {
		s, err := NewChromeSession(ctx, ChromeConfig{ExecPath: execPath, Timeout: 20 * time.Second})
		require.NoError(t, err)
		defer s.Close()

		doc, err := s.Open(ctx, srv.URL+"/op08")
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Find("#tablepress-23 tbody tr").Length())
		require.NotNil(t, doc.Url)
		assert.Equal(t, "/op08", doc.Url.Path)
	})

	t.Run("scroll and wait", func(t *testing.T) {
		s, err := NewChromeSession(ctx, ChromeConfig{
			ExecPath:   execPath,
			Timeout:    20 * time.Second,
			ScrollWait: 300 * time.Millisecond,
		})
		require.NoError(t, err)
		defer s.Close()

		doc, err := s.Open(ctx, srv.URL+"/op08")
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Find("#tablepress-23 tbody tr").Length())

		ex, err := NewExtractor(s, ModeTable, tableSelectors())
		require.NoError(t, err)
		res := ex.Extract(ctx, srv.URL+"/op08")
		assert.Empty(t, res.Failures)
		require.Len(t, res.Records, 2)
		assert.Equal(t, "Purple Luffy", res.Records[1].DeckName)
	})

	t.Run("open after close fails", func(t *testing.T) {
		s, err := NewChromeSession(ctx, ChromeConfig{ExecPath: execPath})
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = s.Open(ctx, srv.URL)
		assert.Error(t, err)
	})
}
