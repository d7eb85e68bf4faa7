package citation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallory/trust-summarizer/internal/types"
)

func fact(chunk int, ft types.FactType, text string, page int, conf float64) types.Fact {
	return types.Fact{
		Statement:  "statement for " + text,
		ExactText:  text,
		Page:       page,
		Type:       ft,
		Confidence: conf,
		ChunkIndex: chunk,
	}
}

func TestAllocateAssignsSequentialPaddedIDs(t *testing.T) {
	facts := []types.Fact{
		fact(0, types.FactCreation, "declared on January 5, 2019", 1, 0.97),
		fact(0, types.FactPartyIdentity, "Jane Roe shall serve as trustee", 2, 0.93),
		fact(1, types.FactPower, "the trustee may sell trust property", 4, 0.88),
	}

	alloc, err := Allocate(facts, AllocatorConfig{})
	require.NoError(t, err)
	require.Len(t, alloc.Citations, 3)
	assert.Equal(t, "001", alloc.Citations[0].ID)
	assert.Equal(t, "002", alloc.Citations[1].ID)
	assert.Equal(t, "003", alloc.Citations[2].ID)
	assert.Equal(t, []string{"001", "002", "003"}, alloc.FactIDs)
}

func TestAllocateDeduplicatesAcrossChunkOverlap(t *testing.T) {
	// The same quote extracted from two chunks that share an overlap page
	// must collapse into a single citation with a single source.
	facts := []types.Fact{
		fact(0, types.FactPartyIdentity, "Jane Roe shall serve as Trustee", 3, 0.90),
		fact(1, types.FactPartyIdentity, "Jane  Roe shall serve as trustee", 3, 0.94),
	}

	alloc, err := Allocate(facts, AllocatorConfig{})
	require.NoError(t, err)
	require.Len(t, alloc.Citations, 1)
	assert.Equal(t, []string{"001", "001"}, alloc.FactIDs)
	assert.Len(t, alloc.Citations[0].Sources, 1)
	assert.Equal(t, 0.94, alloc.Citations[0].Confidence, "merged citation keeps the higher confidence")
}

func TestAllocateMergesAdjacentPagesButNotDistant(t *testing.T) {
	text := "income shall be distributed quarterly"
	facts := []types.Fact{
		fact(0, types.FactDistributionRule, text, 4, 0.9),
		fact(0, types.FactDistributionRule, text, 5, 0.9),
		fact(2, types.FactDistributionRule, text, 11, 0.9),
	}

	alloc, err := Allocate(facts, AllocatorConfig{PageAdjacency: 1})
	require.NoError(t, err)
	require.Len(t, alloc.Citations, 2)
	assert.Len(t, alloc.Citations[0].Sources, 2, "adjacent pages merge with separate sources")
	assert.Equal(t, "002", alloc.FactIDs[2], "page 11 is too far from pages 4-5 to merge")
}

func TestAllocateConflictOnTypeMismatch(t *testing.T) {
	text := "the trustee shall distribute the residue to the beneficiaries"
	facts := []types.Fact{
		fact(0, types.FactDistributionRule, text, 6, 0.9),
		fact(1, types.FactBeneficiaryRight, text, 6, 0.9),
	}

	_, err := Allocate(facts, AllocatorConfig{})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "001", conflict.CitationID)
	assert.Equal(t, types.FactDistributionRule, conflict.Existing.Type)
	assert.Equal(t, types.FactBeneficiaryRight, conflict.Incoming.Type)
}

func TestAllocateDeterministicOrder(t *testing.T) {
	var facts []types.Fact
	for chunk := 0; chunk < 3; chunk++ {
		for j := 0; j < 4; j++ {
			facts = append(facts, fact(chunk, types.FactAdministrative,
				fmt.Sprintf("provision %d of chunk %d", j, chunk), chunk*3+j+1, 0.8))
		}
	}

	first, err := Allocate(facts, AllocatorConfig{})
	require.NoError(t, err)
	second, err := Allocate(facts, AllocatorConfig{})
	require.NoError(t, err)
	assert.Equal(t, first.FactIDs, second.FactIDs)
	assert.Equal(t, first.Citations, second.Citations)
}

func TestAllocateSpansMultiPageFacts(t *testing.T) {
	f := fact(0, types.FactTaxProvision, "this trust is intended to qualify as a grantor trust", 7, 0.85)
	f.PageEnd = 8
	other := fact(1, types.FactTaxProvision, "this trust is intended to qualify as a grantor trust", 9, 0.85)

	alloc, err := Allocate([]types.Fact{f, other}, AllocatorConfig{PageAdjacency: 1})
	require.NoError(t, err)
	require.Len(t, alloc.Citations, 1, "page 9 is adjacent to the 7-8 range")
}
