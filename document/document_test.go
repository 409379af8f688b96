package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-ai/medassist/common/httpx"
	"github.com/medicare-ai/medassist/config"
)

const sampleCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestExtractCID(t *testing.T) {
	tests := []struct {
		name, text, want string
	}{
		{"bare v0", "please read " + sampleCID + " thanks", sampleCID},
		{"gateway url", "see https://ipfs.io/ipfs/bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi now", "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"},
		{"too short", "QmShort", ""},
		{"none", "what is paracetamol", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCID(tt.text))
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	doc, err := Extract([]byte("  Patient report\n\n\nPrescribed:   Dolo 650  twice daily \n"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, doc.Format)
	assert.Equal(t, "Patient report\nPrescribed: Dolo 650 twice daily", doc.Text)
}

func TestExtractNormalisesCompatibilityForms(t *testing.T) {
	doc, err := Extract([]byte("Dose: ５００ｍｇ"))
	require.NoError(t, err)
	assert.Equal(t, "Dose: 500mg", doc.Text)
}

func TestExtractHTMLSkipsScripts(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>t</title><style>p{}</style></head>
<body><h1>Discharge summary</h1><script>var x = 1;</script><p>Take Crocin after meals.</p></body></html>`
	doc, err := Extract([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, doc.Format)
	assert.Equal(t, "Discharge summary\nTake Crocin after meals.", doc.Text)
}

func TestExtractEmpty(t *testing.T) {
	_, err := Extract([]byte(" \n\t "))
	assert.ErrorIs(t, err, ErrContextExtraction)

	_, err = Extract([]byte{0xff, 0xfe, 0x00, 0x81})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDetectsLanguage(t *testing.T) {
	doc, err := Extract([]byte(strings.Repeat("The patient was advised to continue the prescribed medicine and return for a follow up visit next week. ", 3)))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Language)
}

func TestFetcherTriesGatewaysInOrder(t *testing.T) {
	var downHits int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downHits, 1)
		http.NotFound(w, r)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ipfs/"+sampleCID, r.URL.Path)
		_, _ = w.Write([]byte("Lab result: haemoglobin normal"))
	}))
	defer up.Close()

	f := NewFetcher(config.DocumentConfig{
		Gateways: []string{down.URL + "/ipfs", up.URL + "/ipfs/"},
		MaxBytes: 1 << 20,
	}, httpx.New(nil, httpx.Options{}))

	doc, err := f.Load(context.Background(), sampleCID)
	require.NoError(t, err)
	assert.Equal(t, sampleCID, doc.CID)
	assert.Equal(t, "Lab result: haemoglobin normal", doc.Text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&downHits))
}

func TestFetcherAllGatewaysFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(config.DocumentConfig{Gateways: []string{srv.URL + "/a/", srv.URL + "/b/"}}, httpx.New(nil, httpx.Options{}))
	_, err := f.Fetch(context.Background(), sampleCID)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestFetcherRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	f := NewFetcher(config.DocumentConfig{Gateways: []string{srv.URL + "/"}, MaxBytes: 16}, httpx.New(nil, httpx.Options{}))
	_, err := f.Fetch(context.Background(), sampleCID)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}
