package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrigins_EmptyMeansWildcard(t *testing.T) {
	require.Equal(t, []string{"*"}, ParseOrigins(""))
	require.Equal(t, []string{"*"}, ParseOrigins("   "))
	require.Equal(t, []string{"*"}, ParseOrigins("*"))
}

func TestParseOrigins_SplitsAndTrims(t *testing.T) {
	got := ParseOrigins("https://a.example, https://b.example ,https://c.example")
	require.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, got)
}

func TestParseOrigins_SkipsEmptySegments(t *testing.T) {
	got := ParseOrigins("https://a.example,,  ,https://b.example")
	require.Equal(t, []string{"https://a.example", "https://b.example"}, got)
}

func TestParseOrigins_AllEmptySegmentsFallsBackToWildcard(t *testing.T) {
	require.Equal(t, []string{"*"}, ParseOrigins(" , , "))
}
