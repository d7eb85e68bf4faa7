package merge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallory/trust-summarizer/internal/types"
)

func partial(chunk int, exec string, sections ...types.Section) *types.PartialSummary {
	return &types.PartialSummary{ChunkIndex: chunk, Executive: exec, Sections: sections}
}

func TestMergeCanonicalSectionOrder(t *testing.T) {
	partials := []*types.PartialSummary{
		partial(0, "Exec one {{cite:001}}.",
			types.Section{Role: types.SectionDistributions, Title: "Payouts", Content: "Quarterly income {{cite:002}}."},
			types.Section{Role: types.SectionIdentity, Title: "Who", Content: "Roe Family Trust {{cite:001}}."},
		),
		partial(1, "Exec two {{cite:003}}.",
			types.Section{Role: types.SectionMechanics, Content: "Trustee may amend {{cite:003}}."},
		),
	}

	sum := Merge(partials, nil)
	require.Len(t, sum.Sections, 3)
	assert.Equal(t, types.SectionIdentity, sum.Sections[0].Role)
	assert.Equal(t, types.SectionMechanics, sum.Sections[1].Role)
	assert.Equal(t, types.SectionDistributions, sum.Sections[2].Role)
	assert.Equal(t, "Who", sum.Sections[0].Title)
	assert.Equal(t, "Trust Mechanics", sum.Sections[1].Title, "missing title falls back to the default")
	assert.Equal(t, "Exec one {{cite:001}}. Exec two {{cite:003}}.", sum.Executive)
}

func TestMergeSortsPartialsByChunkIndex(t *testing.T) {
	partials := []*types.PartialSummary{
		partial(2, "Third {{cite:003}}."),
		partial(0, "First {{cite:001}}."),
		partial(1, "Second {{cite:002}}."),
	}

	sum := Merge(partials, nil)
	assert.Equal(t, "First {{cite:001}}. Second {{cite:002}}. Third {{cite:003}}.", sum.Executive)
}

func TestMergeCollapsesOverlapDuplicates(t *testing.T) {
	dup := "The trustee holds the power of sale {{cite:004}}."
	partials := []*types.PartialSummary{
		partial(0, "", types.Section{Role: types.SectionMechanics, Content: "Intro sentence {{cite:001}}. " + dup}),
		partial(1, "", types.Section{Role: types.SectionMechanics, Content: "The  trustee holds the power of sale {{cite:004}}. Closing sentence {{cite:005}}."}),
	}

	sum := Merge(partials, nil)
	require.Len(t, sum.Sections, 1)
	content := sum.Sections[0].Content
	assert.Contains(t, content, "Intro sentence {{cite:001}}.")
	assert.Contains(t, content, "Closing sentence {{cite:005}}.")
	assert.Equal(t, 1, strings.Count(content, "power of sale"), "overlap duplicate collapsed")
}

func TestMergeKeepsSameWordingWithDifferentCitations(t *testing.T) {
	partials := []*types.PartialSummary{
		partial(0, "", types.Section{Role: types.SectionProvisions, Content: "Assets pass to the children {{cite:001}}."}),
		partial(1, "", types.Section{Role: types.SectionProvisions, Content: "Assets pass to the children {{cite:002}}."}),
	}

	sum := Merge(partials, nil)
	require.Len(t, sum.Sections, 1)
	assert.Equal(t, 2, strings.Count(sum.Sections[0].Content, "Assets pass to the children"),
		"same wording under different citations is two distinct claims")
}

func TestMergeGapMarkers(t *testing.T) {
	partials := []*types.PartialSummary{
		partial(0, "Exec {{cite:001}}.", types.Section{Role: types.SectionIdentity, Content: "Identity {{cite:001}}."}),
	}
	failed := []FailedChunk{
		{Index: 2, StartPage: 9, EndPage: 12},
		{Index: 1, StartPage: 5, EndPage: 5},
	}

	sum := Merge(partials, failed)
	require.Len(t, sum.Sections, 2)
	provisions := sum.Sections[1]
	assert.Equal(t, types.SectionProvisions, provisions.Role)
	assert.Contains(t, provisions.Content, "[Content unavailable: extraction failed for page 5]")
	assert.Contains(t, provisions.Content, "[Content unavailable: extraction failed for pages 9–12]")
	assert.Less(t,
		strings.Index(provisions.Content, "page 5"),
		strings.Index(provisions.Content, "pages 9–12"),
		"markers appear in chunk order")
}

func TestMergeEmptyInput(t *testing.T) {
	sum := Merge(nil, nil)
	assert.Empty(t, sum.Executive)
	assert.Empty(t, sum.Sections)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One {{cite:001}}. Two! Three? Trailing without stop")
	assert.Equal(t, []string{"One {{cite:001}}.", "Two!", "Three?", "Trailing without stop"}, got)
}
