package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/medicare-ai/medassist/common/httpx"
	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/config"
)

// ErrDownloadFailed is returned when no gateway served the content.
var ErrDownloadFailed = errors.New("failed to download from all gateways")

// Fetcher downloads content addressed documents from IPFS gateways, trying
// them in order.
type Fetcher struct {
	client   *httpx.Client
	gateways []string
	maxBytes int64
}

func NewFetcher(cfg config.DocumentConfig, client *httpx.Client) *Fetcher {
	gateways := make([]string, 0, len(cfg.Gateways))
	for _, g := range cfg.Gateways {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if !strings.HasSuffix(g, "/") {
			g += "/"
		}
		gateways = append(gateways, g)
	}
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	return &Fetcher{client: client, gateways: gateways, maxBytes: cfg.MaxBytes}
}

// Fetch returns the raw bytes of cid from the first gateway answering 200.
func (f *Fetcher) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, fmt.Errorf("%w: empty cid", ErrDownloadFailed)
	}
	var errs *multierror.Error
	for _, g := range f.gateways {
		data, err := f.fetchFrom(ctx, g+cid)
		if err == nil {
			logger.Debugf("document: fetched %s from %s (%d bytes)", cid, g, len(data))
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debugf("document: gateway %s failed for %s: %v", g, cid, err)
		errs = multierror.Append(errs, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, errs.ErrorOrNil())
}

func (f *Fetcher) fetchFrom(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return ReadLimited(resp.Body, f.maxBytes)
}

// Load fetches cid and extracts its text.
func (f *Fetcher) Load(ctx context.Context, cid string) (*Document, error) {
	data, err := f.Fetch(ctx, cid)
	if err != nil {
		return nil, err
	}
	doc, err := Extract(data)
	if err != nil {
		return nil, err
	}
	doc.CID = cid
	return doc, nil
}
