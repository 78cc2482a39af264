// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package matcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
)

// Each category carries its own instruction template. Templates take three
// placeholders: {input_term} (the fuzzy query), {choices_list} (a JSON
// array of candidate strings) and {actual_key} (the JSON key the oracle
// must answer under, e.g. "cell_type_actual").

const cellTypeTemplate = `
You are an expert in cell biology and ontology matching, specializing in cell type nomenclature. Your task is to find the *single best match* for a 'Fuzzy input' from a given list of 'Choices'.

<TASK>
Fuzzy input: {input_term}
Choices: {choices_list}
</TASK>

<INSTRUCTIONS>
1.  Your final answer **MUST** be one of the exact strings from the 'Choices' list, or the literal string "NULL".
2.  Follow these reasoning steps to arrive at your answer:
    a. First, analyze the 'Fuzzy input' to identify the core biological entity.
    b. Second, scan the 'Choices' for a direct or near-identical match.
    c. Third, if no direct match exists, use your biological knowledge to find the most relevant choice.
    d. When comparing multiple relevant choices:
        - If 'Fuzzy input' includes specific annotations, prioritize choices matching those.
        - If 'Fuzzy input' is general, prioritize a more canonical or less granular choice from 'Choices', if highly relevant.
    e. Finally, if no choice is a confident semantic or biological match, it is **better to return 'NULL'** than to guess a poorly related option.
3.  **You must not include any reasoning, explanation, or conversation in your output.**
</INSTRUCTIONS>

<EXAMPLES>
**Example 1: Simple fuzzy match**
Fuzzy input: hek-293
Choices: ["GM12878", "HEK293T", "K562"]
Output: {"{actual_key}": "HEK293T"}

**Example 2: Biological knowledge match (cell line to description)**
Fuzzy input: chronic myelogenous leukemia cell line
Choices: ["GM12878", "A549", "K562", "HeLa-S3"]
Output: {"{actual_key}": "K562"}

**Example 3: Biological knowledge match (description to cell line)**
Fuzzy input: A549
Choices: ["GM12878", "lung adenocarcinoma cell line", "MCF-7", "HeLa-S3"]
Output: {"{actual_key}": "lung adenocarcinoma cell line"}

**Example 4: Biological knowledge match closest match**
Fuzzy input: hep3b
Choices: ["WTC11", "some other cell", "HepG2"]
Output: {"{actual_key}": "HepG2"}

**Example 5: Match granularity of input - specific input**
Fuzzy input: mammary epithelial cell adult female
Choices: ["mammary epithelial cell female", "mammary epithelial cell female adult (23 years)"]
Output: {"{actual_key}": "mammary epithelial cell female adult (23 years)"}

**Example 6: Match granularity of input - general input**
Fuzzy input: mammary epithelial cell
Choices: ["mammary epithelial cell female", "mammary epithelial cell female adult (23 years)"]
Output: {"{actual_key}": "mammary epithelial cell female"}

**Example 7: No valid match**
Fuzzy input: my favorite cell
Choices: ["HEK293", "Hep3B", "A549"]
Output: {"{actual_key}": "NULL"}
</EXAMPLES>

Output:
`

const speciesTemplate = `You are an expert in taxonomy and species identification. Your task is to find the single best match for a 'Fuzzy input' from the 'Choices' list.

<INSTRUCTIONS>
1.  Your final answer MUST be one of the exact strings from the 'Choices' list, or the literal string "NULL".
2.  Consider common and scientific names.
3.  Your output MUST be a JSON object with a single key, "{actual_key}", and the matching string as the value.
4.  Do not output reasoning or any other text.
</INSTRUCTIONS>

<EXAMPLES>
Fuzzy input: human
Choices: ["Homo sapiens", "Mus musculus"]
Output: {"{actual_key}": "Homo sapiens"}

Fuzzy input: fruit fly
Choices: ["Danio rerio", "Drosophila melanogaster"]
Output: {"{actual_key}": "Drosophila melanogaster"}
</EXAMPLES>

<TASK>
Fuzzy input: {input_term}
Choices: {choices_list}
</TASK>

Output:
`

const bindingMoleculeTemplate = `
You are an expert in molecular biology, specializing in DNA-binding molecules like Transcription Factors (TFs) and Histone Modifications (HMs).

Your task is to match the following 'Fuzzy input' term to the closest semantic and biological canonical term from the provided 'Choices' list.
The choices list may contain a mix of TFs and HMs.

<INSTRUCTIONS>
1. Analyze the 'Fuzzy input' term to infer its biological category (e.g. Is it a Transcription Factor or Histone Modification?)
2. Search the 'Choices' list for terms that are semantically similar to the 'Fuzzy input'.
3. Prioritize selecting a choice that belongs to the same biological category you inferred from the 'Fuzzy input'.
4. If a good match that is consistent with the inferred category is found in 'Choices', return that term.
5. If the 'Fuzzy input' is ambiguous, if it does not appear to be a standard or canonical biological entity,
or if no choice in the list is a reasonably good semantic and biological match (especially when considering its likely category versus the categories of items in the list),
respond with the exact phrase "NULL".
</INSTRUCTIONS>

<EXAMPLES>
Fuzzy input: H3K4 trimethylation
Choices: ["CTCF", "H3K4me3", "POLR2A"]
Output: {"{actual_key}": "H3K4me3"}

Fuzzy input: RNA Polymerase II
Choices: ["CTCF", "H3K27ac", "POLR2A"]
Output: {"{actual_key}": "POLR2A"}
</EXAMPLES>

<TASK>
Fuzzy input: {input_term}
Choices: {choices_list}
</TASK>

Output:
`

// promptTemplates is the category registry. Adding a category is a new
// entry here plus a constant in datatypes, nothing else.
var promptTemplates = map[datatypes.Category]string{
	datatypes.CategoryCellType:        cellTypeTemplate,
	datatypes.CategorySpecies:         speciesTemplate,
	datatypes.CategoryBindingMolecule: bindingMoleculeTemplate,
}

// renderPrompt fills a category template with the query and a JSON-encoded
// candidate list.
func renderPrompt(c datatypes.Category, query string, candidates []string) (string, error) {
	template, ok := promptTemplates[c]
	if !ok {
		return "", fmt.Errorf("no prompt template registered for category %q", c)
	}
	choices, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("failed to encode choices for prompt: %w", err)
	}
	r := strings.NewReplacer(
		"{input_term}", query,
		"{choices_list}", string(choices),
		"{actual_key}", c.ActualKey(),
	)
	return r.Replace(template), nil
}
