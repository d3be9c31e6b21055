package taxdump

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/teranos/taxa/errors"
)

// Doer sends HTTP requests. *http.Client and httpclient.Client both
// satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Archives lists downloadable dumps from the two NCBI index pages.
type Archives struct {
	Latest  []string `json:"latest"`
	Archive []string `json:"archive"`
}

// ListArchives scrapes the latest and archive index pages for .zip and
// .tar.gz links and returns them as absolute URLs in page order.
func ListArchives(ctx context.Context, client Doer, latestIndex, archiveIndex string) (Archives, error) {
	latest, err := listIndex(ctx, client, latestIndex)
	if err != nil {
		return Archives{}, err
	}
	archive, err := listIndex(ctx, client, archiveIndex)
	if err != nil {
		return Archives{}, err
	}
	return Archives{Latest: latest, Archive: archive}, nil
}

func listIndex(ctx context.Context, client Doer, index string) ([]string, error) {
	base, err := url.Parse(index)
	if err != nil {
		return nil, errors.Wrapf(err, "parse index url %q", index)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, index, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", index)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch index %s", index)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetch index %s: HTTP %d", index, resp.StatusCode)
	}
	return archiveLinks(resp.Body, base)
}

// archiveLinks extracts archive hrefs from an index page. Links are
// resolved by file name against base, the way NCBI's flat listings are laid out.
func archiveLinks(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse index html")
	}

	links := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !isArchive(attr.Val) {
					continue
				}
				ref, err := url.Parse(path.Base(attr.Val))
				if err != nil {
					continue
				}
				links = append(links, base.ResolveReference(ref).String())
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func isArchive(href string) bool {
	return strings.HasSuffix(href, ".zip") || strings.HasSuffix(href, ".tar.gz")
}
