package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumesFixture = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "The Go Programming Language",
			"authors": ["Alan A. A. Donovan", "Brian W. Kernighan"],
			"publisher": "Addison-Wesley",
			"publishedDate": "2015-11-16",
			"description": " A reference for Go. ",
			"pageCount": 380,
			"categories": ["Computers"],
			"language": "en",
			"industryIdentifiers": [
				{"type": "ISBN_10", "identifier": "0134190440"},
				{"type": "ISBN_13", "identifier": "9780134190440"}
			]
		}
	}]
}`

func newFixtureCatalog(t *testing.T, handler http.HandlerFunc) *CatalogClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewCatalogClient()
	c.base = srv.URL
	return c
}

func TestLookupISBN(t *testing.T) {
	c := newFixtureCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isbn:9780134190440", r.URL.Query().Get("q"))
		w.Write([]byte(volumesFixture))
	})

	vol, err := c.LookupISBN("978-0-13-419044-0")
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", vol.Title)
	assert.Equal(t, []string{"Alan A. A. Donovan", "Brian W. Kernighan"}, vol.Authors)
	assert.Equal(t, "9780134190440", vol.ISBN13)
	assert.Equal(t, "en", vol.Language)
	assert.Equal(t, "A reference for Go.", vol.Description)
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/9780134190440-L.jpg", vol.CoverImageURL)
}

func TestSearchNoResults(t *testing.T) {
	c := newFixtureCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalItems":0}`))
	})
	_, err := c.Search("no such book")
	assert.Error(t, err)
}

func TestLookupUpstreamError(t *testing.T) {
	c := newFixtureCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.LookupISBN("9780134190440")
	assert.Error(t, err)
}

func TestLookupISBNRequired(t *testing.T) {
	c := NewCatalogClient()
	_, err := c.LookupISBN("  ")
	assert.Error(t, err)
	_, err = c.Search("")
	assert.Error(t, err)
}
