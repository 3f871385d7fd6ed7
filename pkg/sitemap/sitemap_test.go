package sitemap

import (
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/utils"
)

func TestBuild(t *testing.T) {
	rendered := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	results := []models.PageResult{
		{URL: "/guide/", Status: models.OutputStatusWritten, RenderedAt: rendered},
		{URL: "/", Status: models.OutputStatusUnchanged},
		{Output: "assets/site.css", Status: models.OutputStatusCopied},
		{URL: "/broken/", Status: models.OutputStatusFailed},
		{URL: "/guide/", Status: models.OutputStatusWritten},
	}

	set, err := Build("https://www.chaijs.com/docs", results)
	require.NoError(t, err)

	require.Len(t, set.URLs, 2)
	assert.Equal(t, "https://www.chaijs.com/docs/", set.URLs[0].Loc)
	assert.Empty(t, set.URLs[0].LastMod)
	assert.Equal(t, "https://www.chaijs.com/docs/guide/", set.URLs[1].Loc)
	assert.Equal(t, "2024-03-10", set.URLs[1].LastMod, "lastmod is reported in UTC")
}

func TestBuild_RelativeBase(t *testing.T) {
	_, err := Build("/docs/", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
}

func TestWrite(t *testing.T) {
	set, err := Build("https://example.com/", []models.PageResult{
		{URL: "/about-us/", Status: models.OutputStatusWritten},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dist", "sitemap.xml")
	require.NoError(t, Write(path, set))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "<?xml"))
	assert.Contains(t, string(raw), `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)

	var decoded XMLURLSet
	require.NoError(t, xml.Unmarshal(raw, &decoded))
	require.Len(t, decoded.URLs, 1)
	assert.Equal(t, "https://example.com/about-us/", decoded.URLs[0].Loc)
}
