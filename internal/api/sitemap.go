/**
 * @description
 * Sitemap endpoint: enumerates active cabin listings from storage plus the
 * site's static routes into a standard sitemap XML document.
 */
package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/cabinly/payments-service/internal/domain"
	"github.com/cabinly/payments-service/internal/store"
)

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Static marketing routes included alongside the listings.
var staticRoutes = []sitemapURL{
	{Loc: "/", ChangeFreq: "daily", Priority: "1.0"},
	{Loc: "/cabins", ChangeFreq: "daily", Priority: "0.9"},
	{Loc: "/host", ChangeFreq: "monthly", Priority: "0.6"},
	{Loc: "/about", ChangeFreq: "monthly", Priority: "0.5"},
	{Loc: "/contact", ChangeFreq: "monthly", Priority: "0.5"},
}

// SitemapHandler renders /sitemap.xml.
type SitemapHandler struct {
	listings      store.ListingRepository
	publicBaseURL string
}

// NewSitemapHandler creates a new SitemapHandler.
func NewSitemapHandler(listings store.ListingRepository, publicBaseURL string) *SitemapHandler {
	return &SitemapHandler{listings: listings, publicBaseURL: publicBaseURL}
}

// GetSitemap handles GET /sitemap.xml.
func (h *SitemapHandler) GetSitemap(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListActive(r.Context())
	if err != nil {
		writeError(w, "sitemap", domain.WrapE(domain.ErrPersistence, "list-listings",
			"could not enumerate active listings", err))
		return
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, route := range staticRoutes {
		entry := route
		entry.Loc = h.publicBaseURL + route.Loc
		set.URLs = append(set.URLs, entry)
	}
	for _, listing := range listings {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/cabins/%s", h.publicBaseURL, listing.ID),
			LastMod:    listing.UpdatedAt.Format(time.DateOnly),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	_ = enc.Encode(set)
}
