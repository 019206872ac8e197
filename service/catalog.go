package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// CatalogVolume is the normalized metadata from the catalog lookup service,
// consumed once at title-creation time and never re-queried for existing
// rows.
type CatalogVolume struct {
	Title         string
	Authors       []string
	Publisher     string
	PublishedDate string
	Description   string
	PageCount     int
	Categories    []string
	CoverImageURL string
	ISBN13        string
	Language      string
}

// CatalogClient queries the Google Books volumes API. The short timeout
// keeps a slow upstream from blocking title creation.
type CatalogClient struct {
	base   string
	client *http.Client
}

func NewCatalogClient() *CatalogClient {
	return &CatalogClient{
		base:   googleBooksBase,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type volumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			Categories          []string `json:"categories"`
			Language            string   `json:"language"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// LookupISBN fetches volume metadata by ISBN.
func (c *CatalogClient) LookupISBN(isbn string) (*CatalogVolume, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required")
	}
	return c.lookup("isbn:" + isbn)
}

// Search fetches the best volume match for a free-text query.
func (c *CatalogClient) Search(query string) (*CatalogVolume, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	return c.lookup(query)
}

func (c *CatalogClient) lookup(q string) (*CatalogVolume, error) {
	params := url.Values{}
	params.Set("q", q)
	resp, err := c.client.Get(c.base + "?" + params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data volumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("no volume found for %q", q)
	}
	vi := data.Items[0].VolumeInfo
	vol := &CatalogVolume{
		Title:         vi.Title,
		Authors:       vi.Authors,
		Publisher:     vi.Publisher,
		PublishedDate: vi.PublishedDate,
		Description:   strings.TrimSpace(vi.Description),
		PageCount:     vi.PageCount,
		Categories:    vi.Categories,
		Language:      vi.Language,
	}
	if vi.Subtitle != "" {
		vol.Title = vol.Title + ": " + vi.Subtitle
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			vol.ISBN13 = id.Identifier
			break
		}
	}
	// Open Library serves covers by ISBN without a captcha; Google Books
	// image URLs often require one.
	if vol.ISBN13 != "" {
		vol.CoverImageURL = openLibraryCoverURL(vol.ISBN13)
	}
	return vol, nil
}

func openLibraryCoverURL(isbn string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if clean == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(clean) + "-L.jpg"
}
