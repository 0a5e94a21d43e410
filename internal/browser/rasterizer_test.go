package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountWords_IgnoresTags(t *testing.T) {
	require.Equal(t, 3, countWords("<h1>Jane Doe</h1><p>Engineer</p>"))
}

func TestCountWords_Empty(t *testing.T) {
	require.Equal(t, 0, countWords(""))
}

func TestEstimatePageCount_SingleUnmarkedPDFDefaultsToOne(t *testing.T) {
	require.Equal(t, 1, estimatePageCount([]byte("%PDF-1.4 no page markers here")))
}

func TestEstimatePageCount_CountsPageObjectsExcludingPagesRoot(t *testing.T) {
	pdf := []byte("/Type/Pages /Type/Page /Type/Page /Type /Page")
	require.Equal(t, 3, estimatePageCount(pdf))
}

func TestNew_DefaultsTimeout(t *testing.T) {
	r := New("", 0)
	require.Equal(t, 30*time.Second, r.timeout)
}

func TestNew_KeepsExplicitTimeout(t *testing.T) {
	r := New("ws://example", 5*time.Second)
	require.Equal(t, 5*time.Second, r.timeout)
}
