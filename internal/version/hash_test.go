package version

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
)

func TestHash_StableAcrossFieldOrder(t *testing.T) {
	a := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}, Summary: "Engineer", Skills: []string{"Go", "SQL"}}
	b := domain.Content{Skills: []string{"Go", "SQL"}, Summary: "Engineer", Personal: domain.Personal{Name: "Jane Doe"}}
	require.Equal(t, Hash(a), Hash(b))
}

func TestHash_DiffersOnContentChange(t *testing.T) {
	a := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}, Summary: "Engineer"}
	b := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}, Summary: "Senior Engineer"}
	require.NotEqual(t, Hash(a), Hash(b))
}

func TestHash_PreservesSliceOrderSignificance(t *testing.T) {
	a := domain.Content{Experience: []domain.Experience{{Company: "A"}, {Company: "B"}}}
	b := domain.Content{Experience: []domain.Experience{{Company: "B"}, {Company: "A"}}}
	require.NotEqual(t, Hash(a), Hash(b), "reordering experience entries is a meaningful edit")
}

func TestContentHashOrNil_EmptyContentHasNoHash(t *testing.T) {
	require.Nil(t, ContentHashOrNil(domain.Content{}))
}

func TestContentHashOrNil_NonEmptyContentHashes(t *testing.T) {
	h := ContentHashOrNil(domain.Content{Personal: domain.Personal{Name: "Jane Doe"}})
	require.NotNil(t, h)
	require.Len(t, *h, 64)
}
