package extract_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbruckner/metsalto"
	"github.com/tbruckner/metsalto/extract"
	"github.com/tbruckner/metsalto/mock"
)

// pageDoc builds a one-line ALTO document whose text equals content.
// Constructed via the etree API so loader mocks stay safe on worker
// goroutines.
func pageDoc(content string) *etree.Document {
	doc := etree.NewDocument()
	line := doc.CreateElement("alto").CreateElement("TextLine")
	line.CreateElement("String").CreateAttr("CONTENT", content)
	return doc
}

func manifestDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateElement("mets")
	return doc
}

// testPipeline wires mocks for a manifest with the given page addresses.
// Loading an address that contains "fail" returns an error; any other page
// yields its own address as text.
func testPipeline(t *testing.T, addresses []string) (*extract.Pipeline, *[]*metsalto.Volume) {
	t.Helper()

	locators := make([]metsalto.PageLocator, len(addresses))
	for i, addr := range addresses {
		locators[i] = metsalto.PageLocator{ID: addr, Address: addr}
	}

	var mu sync.Mutex
	written := &[]*metsalto.Volume{}
	record := func(v *metsalto.Volume, format metsalto.Format) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		*written = append(*written, v)
		return "/tmp/out", nil
	}

	return &extract.Pipeline{
		Loader: &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				if source == "mets.xml" {
					return manifestDoc(), nil
				}
				if strings.Contains(source, "fail") {
					return nil, metsalto.Errorf(metsalto.EUNAVAILABLE, "fetching %s: timeout", source)
				}
				return pageDoc(source), nil
			},
		},
		Manifest: &mock.ManifestReader{
			LocatorsFn: func(doc *etree.Document) ([]metsalto.PageLocator, error) {
				return locators, nil
			},
			MetadataFn: func(doc *etree.Document) metsalto.Metadata {
				return metsalto.Metadata{Title: "Testwerk"}
			},
			StructureFn: func(doc *etree.Document) []metsalto.StructureNode {
				return nil
			},
		},
		Extractor: &mock.TextExtractor{
			ExtractTextFn: func(doc *etree.Document, normalize bool) string {
				return doc.Root().FindElement("//String").SelectAttrValue("CONTENT", "")
			},
		},
		Writer: &mock.VolumeWriter{
			ValidateFn:      func() error { return nil },
			WriteCombinedFn: record,
			WritePagesFn:    record,
		},
	}, written
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	t.Run("assembles pages in locator order", func(t *testing.T) {
		t.Parallel()

		p, written := testPipeline(t, []string{"a.xml", "b.xml", "c.xml"})

		result, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Pages)
		assert.Zero(t, result.Failed)

		require.Len(t, *written, 1)
		v := (*written)[0]
		assert.Equal(t, "mets.xml", v.Source)
		assert.Equal(t, "Testwerk", v.Metadata.Title)
		require.Len(t, v.Pages, 3)
		assert.Equal(t, metsalto.PageText{Key: "page_0001", Text: "a.xml"}, v.Pages[0])
		assert.Equal(t, metsalto.PageText{Key: "page_0002", Text: "b.xml"}, v.Pages[1])
		assert.Equal(t, metsalto.PageText{Key: "page_0003", Text: "c.xml"}, v.Pages[2])
	})

	t.Run("absorbs page failures without shortening the sequence", func(t *testing.T) {
		t.Parallel()

		p, written := testPipeline(t, []string{"a.xml", "fail.xml", "c.xml"})

		result, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Pages)
		assert.Equal(t, 1, result.Failed)

		v := (*written)[0]
		require.Len(t, v.Pages, 3)
		assert.Equal(t, "a.xml", v.Pages[0].Text)
		assert.Empty(t, v.Pages[1].Text)
		assert.Equal(t, "page_0002", v.Pages[1].Key)
		assert.Equal(t, "c.xml", v.Pages[2].Text)
	})

	t.Run("concurrent extraction preserves deterministic order", func(t *testing.T) {
		t.Parallel()

		addresses := make([]string, 20)
		for i := range addresses {
			addresses[i] = metsalto.PageKey(i+1) + ".xml"
		}
		p, written := testPipeline(t, addresses)
		p.Concurrency = 8

		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.NoError(t, err)
		v := (*written)[0]
		require.Len(t, v.Pages, 20)
		for i, page := range v.Pages {
			assert.Equal(t, metsalto.PageKey(i+1), page.Key)
			assert.Equal(t, addresses[i], page.Text)
		}
	})

	t.Run("reports progress per page", func(t *testing.T) {
		t.Parallel()

		p, _ := testPipeline(t, []string{"a.xml", "fail.xml"})

		var events []extract.PageProgress
		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, func(e extract.PageProgress) {
			events = append(events, e)
		})

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, 2, events[1].Completed)
		assert.Equal(t, 2, events[1].Total)

		var failures int
		for _, e := range events {
			if e.Error != nil {
				failures++
			}
		}
		assert.Equal(t, 1, failures)
	})

	t.Run("uses the per-page writer in page mode", func(t *testing.T) {
		t.Parallel()

		p, _ := testPipeline(t, []string{"a.xml"})
		var perPage bool
		p.Writer = &mock.VolumeWriter{
			ValidateFn: func() error { return nil },
			WritePagesFn: func(v *metsalto.Volume, format metsalto.Format) (string, error) {
				perPage = true
				return "/tmp/pages", nil
			},
		}

		result, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatJSON,
			Mode:         metsalto.ModePerPage,
		}, nil)

		require.NoError(t, err)
		assert.True(t, perPage)
		assert.Equal(t, "/tmp/pages", result.Path)
	})

	t.Run("fails fast when the manifest cannot be loaded", func(t *testing.T) {
		t.Parallel()

		p, written := testPipeline(t, nil)
		p.Loader = &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				return nil, metsalto.Errorf(metsalto.ENOTFOUND, "file not found: %s", source)
			},
		}

		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.Error(t, err)
		assert.Equal(t, metsalto.ENOTFOUND, metsalto.ErrorCode(err))
		assert.Empty(t, *written)
	})

	t.Run("rejects an empty manifest path before any I/O", func(t *testing.T) {
		t.Parallel()

		p, _ := testPipeline(t, nil)
		p.Loader = &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				t.Fatal("loader must not be called")
				return nil, nil
			},
		}

		_, err := p.Run(context.Background(), extract.Request{Format: metsalto.FormatText, Mode: metsalto.ModeCombined}, nil)

		require.Error(t, err)
		assert.Equal(t, metsalto.EINVALID, metsalto.ErrorCode(err))
	})

	t.Run("rejects an unknown output mode before any I/O", func(t *testing.T) {
		t.Parallel()

		p, _ := testPipeline(t, nil)
		p.Loader = &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				t.Error("loader must not be called")
				return nil, nil
			},
		}

		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.Mode("weekly"),
		}, nil)

		require.Error(t, err)
		assert.Equal(t, metsalto.EINVALID, metsalto.ErrorCode(err))
	})

	t.Run("rejects an empty destination before any I/O", func(t *testing.T) {
		t.Parallel()

		p, _ := testPipeline(t, []string{"a.xml", "b.xml"})

		var loads atomic.Int64
		inner := p.Loader
		p.Loader = &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				loads.Add(1)
				return inner.Load(ctx, source)
			},
		}
		p.Writer = &mock.VolumeWriter{
			ValidateFn: func() error {
				return metsalto.Errorf(metsalto.EINVALID, "destination directory required")
			},
		}

		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.Error(t, err)
		assert.Equal(t, metsalto.EINVALID, metsalto.ErrorCode(err))
		assert.Zero(t, loads.Load())
	})

	t.Run("derives the source name from a remote manifest URL", func(t *testing.T) {
		t.Parallel()

		p, written := testPipeline(t, []string{"a.xml"})
		p.Loader = &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				if strings.HasPrefix(source, "https://") {
					return manifestDoc(), nil
				}
				return pageDoc(source), nil
			},
		}

		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "https://archive.example.org/ids/werk123/mets.xml",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, "mets.xml", (*written)[0].Source)
	})

	t.Run("omits the source name for a remote manifest without a path", func(t *testing.T) {
		t.Parallel()

		p, written := testPipeline(t, []string{"a.xml"})
		p.Loader = &mock.Loader{
			LoadFn: func(ctx context.Context, source string) (*etree.Document, error) {
				if strings.HasPrefix(source, "https://") {
					return manifestDoc(), nil
				}
				return pageDoc(source), nil
			},
		}

		_, err := p.Run(context.Background(), extract.Request{
			ManifestPath: "https://archive.example.org",
			Format:       metsalto.FormatText,
			Mode:         metsalto.ModeCombined,
		}, nil)

		require.NoError(t, err)
		assert.Empty(t, (*written)[0].Source)
	})
}
