// In file: internal/wordware/metadata_test.go
package wordware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeriveToolName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Founder Research", "founder_research"},
		{"Research v2.1 (beta)", "research_v_beta"},
		{"  Save   to   Notion  ", "save_to_notion"},
		{"UPPER Case Tool", "upper_case_tool"},
		{"42", "wordware_tool_719da0f9"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := DeriveToolName(tt.title, "2ef1755d-febd-47d6-b96d-b35e719da0f9")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveToolNameNeverEmpty(t *testing.T) {
	// Titles of digits and punctuation only fall back to the synthetic name.
	got := DeriveToolName("123 !!! ...", "abcdef1234567890")
	assert.Equal(t, "wordware_tool_34567890", got)

	short := DeriveToolName("", "short")
	assert.Equal(t, "wordware_tool_short", short)
}

func TestDeriveToolNameOnlyLowercaseLettersAndUnderscores(t *testing.T) {
	for _, title := range []string{"A-B-C 1 2 3", "Hello, World!", "tool #7 (new)"} {
		name := DeriveToolName(title, "0123456789")
		assert.NotEmpty(t, name)
		for _, r := range name {
			ok := (r >= 'a' && r <= 'z') || r == '_'
			assert.True(t, ok, "unexpected rune %q in derived name %q", r, name)
		}
	}
}

func TestClassifySchemaDetectsKwargsWrapper(t *testing.T) {
	wrapped := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"kwargs": {
				Type: "object",
				Properties: map[string]*Schema{
					"a": {Type: "string"},
					"b": {Type: "number"},
				},
			},
		},
	}
	assert.True(t, classifySchema(wrapped))

	flat := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"query": {Type: "string"},
		},
	}
	assert.False(t, classifySchema(flat))
}

func TestClassifySchemaEdgeCases(t *testing.T) {
	assert.False(t, classifySchema(nil))
	assert.False(t, classifySchema(&Schema{Type: "object"}))
	// A kwargs property with no nested properties is not a wrapper.
	assert.False(t, classifySchema(&Schema{
		Properties: map[string]*Schema{"kwargs": {Type: "string"}},
	}))
	// Two top-level properties, one of them kwargs: not a wrapper.
	assert.False(t, classifySchema(&Schema{
		Properties: map[string]*Schema{
			"kwargs": {Properties: map[string]*Schema{"a": {}}},
			"other":  {Type: "string"},
		},
	}))
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithAPIURL(baseURL), WithLogger(zap.NewNop())}, opts...)
	return NewClient("test-key", opts...)
}

func TestResolveToolBuildsAndCachesDescriptor(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		assert.Equal(t, "/v1/apps/tool-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"data": {
				"attributes": {
					"title": "Founder Research",
					"description": "Researches founders.",
					"inputSchema": {
						"type": "object",
						"properties": {
							"kwargs": {
								"type": "object",
								"properties": {
									"a": {"type": "string"},
									"b": {"type": "string"}
								}
							}
						}
					}
				}
			}
		}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	d, err := client.ResolveTool(context.Background(), "tool-1")
	require.NoError(t, err)
	assert.Equal(t, "founder_research", d.Name)
	assert.Equal(t, "Researches founders.", d.Description)
	assert.True(t, d.RequiresKwargsWrapper)
	assert.Len(t, d.Parameters, 2)
	assert.Contains(t, d.Parameters, "a")
	assert.Contains(t, d.Parameters, "b")

	// Second resolution is served from the cache without re-fetching.
	again, err := client.ResolveTool(context.Background(), "tool-1")
	require.NoError(t, err)
	assert.Same(t, d, again)
	assert.Equal(t, 1, fetches)
}

func TestResolveToolWithoutWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"data": {
				"attributes": {
					"title": "Topic Search",
					"inputSchema": {
						"type": "object",
						"properties": {"query": {"type": "string"}}
					}
				}
			}
		}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	d, err := client.ResolveTool(context.Background(), "tool-2")
	require.NoError(t, err)
	assert.False(t, d.RequiresKwargsWrapper)
	assert.Contains(t, d.Parameters, "query")
}

func TestResolveToolMissingDataKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": []}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ResolveTool(context.Background(), "tool-3")
	var fetchErr *MetadataFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "tool-3", fetchErr.ToolID)
	assert.Equal(t, 0, client.Cache().Len())
}

func TestResolveToolUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ResolveTool(context.Background(), "tool-4")
	var fetchErr *MetadataFetchError
	require.ErrorAs(t, err, &fetchErr)
	var httpErr *UpstreamHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
