// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// TestStringListAcceptsBareString verifies the lenient list decoding: a
// single bare string becomes a one-element list.
func TestStringListAcceptsBareString(t *testing.T) {
	var req MatchRequest
	err := json.Unmarshal([]byte(`{
		"species_requested": "human",
		"species_list": "Homo sapiens"
	}`), &req)
	require.NoError(t, err)
	assert.Equal(t, StringList{"Homo sapiens"}, req.SpeciesList)
}

func TestStringListAcceptsArray(t *testing.T) {
	var list StringList
	require.NoError(t, json.Unmarshal([]byte(`["a", "b"]`), &list))
	assert.Equal(t, StringList{"a", "b"}, list)
}

func TestStringListRejectsNumbers(t *testing.T) {
	var list StringList
	err := json.Unmarshal([]byte(`[1, 2]`), &list)
	assert.Error(t, err)
}

// TestStringListNullBecomesEmpty verifies that an explicit JSON null list
// decodes to an empty (but present) list, which the dispatcher later
// degrades to a null result rather than a rejection.
func TestStringListNullBecomesEmpty(t *testing.T) {
	var req MatchRequest
	err := json.Unmarshal([]byte(`{
		"cell_type_requested": "hek-293",
		"cell_type_list": null
	}`), &req)
	require.NoError(t, err)
	require.NotNil(t, req.CellTypeList)
	assert.Empty(t, req.CellTypeList)
}

// TestValidateRequest covers the document-boundary rules.
func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     MatchRequest
		wantErr bool
	}{
		{
			name: "complete single pair",
			req: MatchRequest{
				CellTypeRequested: strPtr("hek-293"),
				CellTypeList:      StringList{"HEK293T"},
			},
		},
		{
			name: "all three pairs",
			req: MatchRequest{
				CellTypeRequested:        strPtr("hek-293"),
				CellTypeList:             StringList{"HEK293T"},
				SpeciesRequested:         strPtr("human"),
				SpeciesList:              StringList{"Homo sapiens"},
				BindingMoleculeRequested: strPtr("ctcf"),
				BindingMoleculeList:      StringList{"CTCF"},
			},
		},
		{
			name: "present but empty pair is allowed",
			req: MatchRequest{
				CellTypeRequested: strPtr(""),
				CellTypeList:      StringList{},
			},
		},
		{
			name:    "empty request",
			req:     MatchRequest{},
			wantErr: true,
		},
		{
			name: "requested without list",
			req: MatchRequest{
				SpeciesRequested: strPtr("human"),
			},
			wantErr: true,
		},
		{
			name: "list without requested",
			req: MatchRequest{
				SpeciesList: StringList{"Homo sapiens"},
			},
			wantErr: true,
		},
		{
			name: "one complete pair does not excuse a dangling field",
			req: MatchRequest{
				CellTypeRequested: strPtr("hek-293"),
				CellTypeList:      StringList{"HEK293T"},
				SpeciesRequested:  strPtr("human"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestPairPresence verifies the present flag requires both fields.
func TestPairPresence(t *testing.T) {
	req := MatchRequest{
		CellTypeRequested: strPtr("hek-293"),
		CellTypeList:      StringList{"HEK293T"},
		SpeciesRequested:  strPtr("human"),
	}

	query, candidates, present := req.Pair(CategoryCellType)
	assert.True(t, present)
	assert.Equal(t, "hek-293", query)
	assert.Equal(t, []string{"HEK293T"}, candidates)

	_, _, present = req.Pair(CategorySpecies)
	assert.False(t, present)

	_, _, present = req.Pair(CategoryBindingMolecule)
	assert.False(t, present)
}

// TestCategoryKeys pins the wire keys derived from a category name.
func TestCategoryKeys(t *testing.T) {
	assert.Equal(t, "cell_type_requested", CategoryCellType.RequestedKey())
	assert.Equal(t, "cell_type_list", CategoryCellType.ListKey())
	assert.Equal(t, "binding_molecule_actual", CategoryBindingMolecule.ActualKey())
}

// TestResponseRoundtrip verifies SetActual/Actual agree for every category.
func TestResponseRoundtrip(t *testing.T) {
	var resp MatchResponse
	for _, c := range Categories {
		winner := "winner-" + string(c)
		resp.SetActual(c, &winner)
		got := resp.Actual(c)
		require.NotNil(t, got)
		assert.Equal(t, winner, *got)
	}
}
