// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the job document types for the matcher service.
//
// A job document carries up to three independent (requested term, candidate
// list) pairs, one per category. The same document schema is used by both
// transports: the framed TCP daemon and the REST gateway.
package datatypes

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Category identifies one of the fixed matching domains.
//
// The set is closed: adding a category means adding a constant here and a
// prompt template in the matcher registry, not new control flow.
type Category string

const (
	CategoryCellType        Category = "cell_type"
	CategorySpecies         Category = "species"
	CategoryBindingMolecule Category = "binding_molecule"
)

// Categories lists every category in the fixed processing order.
var Categories = []Category{
	CategoryCellType,
	CategorySpecies,
	CategoryBindingMolecule,
}

// RequestedKey returns the request-document key for the fuzzy input term.
func (c Category) RequestedKey() string { return string(c) + "_requested" }

// ListKey returns the request-document key for the candidate list.
func (c Category) ListKey() string { return string(c) + "_list" }

// ActualKey returns the result-document key the oracle must answer under.
func (c Category) ActualKey() string { return string(c) + "_actual" }

// StringList accepts either a JSON array of strings or a single bare
// string, which is treated as a one-element list.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*s = StringList{single}
	return nil
}

// =============================================================================
// Request / Response Documents
// =============================================================================

// MatchRequest is one matching job. A category takes part only when both
// its _requested and _list fields are present; nil means the field was
// absent from the document.
type MatchRequest struct {
	CellTypeRequested        *string    `json:"cell_type_requested,omitempty"`
	CellTypeList             StringList `json:"cell_type_list,omitempty"`
	SpeciesRequested         *string    `json:"species_requested,omitempty"`
	SpeciesList              StringList `json:"species_list,omitempty"`
	BindingMoleculeRequested *string    `json:"binding_molecule_requested,omitempty"`
	BindingMoleculeList      StringList `json:"binding_molecule_list,omitempty"`
}

// Pair returns the requested term and candidate list for a category.
// present is true when both fields were supplied in the document, even if
// one of them is empty. Present-but-empty pairs are skipped by the
// dispatcher with a null result; they are not a request-level failure.
func (r *MatchRequest) Pair(c Category) (query string, candidates []string, present bool) {
	var q *string
	var list StringList
	switch c {
	case CategoryCellType:
		q, list = r.CellTypeRequested, r.CellTypeList
	case CategorySpecies:
		q, list = r.SpeciesRequested, r.SpeciesList
	case CategoryBindingMolecule:
		q, list = r.BindingMoleculeRequested, r.BindingMoleculeList
	}
	if q == nil || list == nil {
		return "", nil, false
	}
	return *q, []string(list), true
}

// MatchResponse is the result document. Actual fields are always
// serialized; a category that was absent from the request, or that found
// no match, is reported as an explicit null.
type MatchResponse struct {
	MatcherVersion        string  `json:"matcher_version"`
	CellTypeActual        *string `json:"cell_type_actual"`
	SpeciesActual         *string `json:"species_actual"`
	BindingMoleculeActual *string `json:"binding_molecule_actual"`
}

// SetActual records the winner (or nil for no match) for a category.
func (r *MatchResponse) SetActual(c Category, value *string) {
	switch c {
	case CategoryCellType:
		r.CellTypeActual = value
	case CategorySpecies:
		r.SpeciesActual = value
	case CategoryBindingMolecule:
		r.BindingMoleculeActual = value
	}
}

// Actual returns the recorded winner for a category (nil for no match).
func (r *MatchResponse) Actual(c Category) *string {
	switch c {
	case CategoryCellType:
		return r.CellTypeActual
	case CategorySpecies:
		return r.SpeciesActual
	case CategoryBindingMolecule:
		return r.BindingMoleculeActual
	}
	return nil
}

// =============================================================================
// Validation
// =============================================================================

// matchValidate is the shared validator instance for job documents.
var matchValidate *validator.Validate

func init() {
	matchValidate = validator.New()
	matchValidate.RegisterStructValidation(validateMatchRequest, MatchRequest{})
}

// validateMatchRequest enforces the document-boundary rules:
//
//   - a _requested field without its _list (or the reverse) is rejected
//   - at least one complete category pair must be present
//
// Emptiness of a present pair is deliberately not checked here; the
// dispatcher degrades it to a null result for that category only.
func validateMatchRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(MatchRequest)

	type pair struct {
		q     *string
		list  StringList
		field string
	}
	pairs := map[Category]pair{
		CategoryCellType:        {req.CellTypeRequested, req.CellTypeList, "CellTypeRequested"},
		CategorySpecies:         {req.SpeciesRequested, req.SpeciesList, "SpeciesRequested"},
		CategoryBindingMolecule: {req.BindingMoleculeRequested, req.BindingMoleculeList, "BindingMoleculeRequested"},
	}

	complete := 0
	for c, p := range pairs {
		switch {
		case p.q != nil && p.list == nil:
			sl.ReportError(p.q, c.RequestedKey(), p.field, "paired_list", "")
		case p.q == nil && p.list != nil:
			sl.ReportError(p.list, c.ListKey(), p.field, "paired_requested", "")
		case p.q != nil && p.list != nil:
			complete++
		}
	}

	if complete == 0 {
		sl.ReportError(req.CellTypeRequested, "cell_type_requested",
			"CellTypeRequested", "atleastonepair", "")
	}
}

// Validate checks the request against the document-boundary rules and
// returns a caller-presentable error for the first violation.
func (r *MatchRequest) Validate() error {
	err := matchValidate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("invalid match request: %s", describeViolation(verrs[0]))
	}
	return fmt.Errorf("invalid match request: %w", err)
}

func describeViolation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "paired_list":
		return fmt.Sprintf("%s is set but its candidate list is missing", fe.Field())
	case "paired_requested":
		return fmt.Sprintf("%s is set but its requested term is missing", fe.Field())
	case "atleastonepair":
		return "request must contain at least one category to match"
	default:
		return fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag())
	}
}
