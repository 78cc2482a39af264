// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"github.com/AleutianAI/GameMatcher/services/matcherd"
	"github.com/spf13/cobra"
)

func runMatch(cmd *cobra.Command, args []string) {
	req, err := buildRequest()
	if err != nil {
		log.Fatalf("Bad job document: %v", err)
	}
	if err := req.Validate(); err != nil {
		log.Fatalf("Bad job document: %v", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to encode the job document: %v", err)
	}

	conn, err := net.DialTimeout("tcp", daemonAddr, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to matcherd at %s: %v", daemonAddr, err)
	}
	defer conn.Close()

	// One deadline covers the whole exchange; tournament jobs can take
	// several oracle round-trips.
	deadline := time.Now().Add(time.Duration(dialTimeout) * time.Second)
	if err := conn.SetDeadline(deadline); err != nil {
		log.Fatalf("Failed to set the connection deadline: %v", err)
	}

	if err := matcherd.WriteFrame(conn, payload); err != nil {
		log.Fatalf("Failed to send the job: %v", err)
	}

	respPayload, err := matcherd.ReadFrame(conn)
	if err != nil {
		if err == io.EOF {
			log.Fatalf("matcherd rejected the job document (connection closed without a response)")
		}
		log.Fatalf("Failed to read the response: %v", err)
	}

	var resp datatypes.MatchResponse
	if err := json.Unmarshal(respPayload, &resp); err != nil {
		log.Fatalf("Failed to decode the response: %v", err)
	}

	pretty, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render the response: %v", err)
	}
	fmt.Println(string(pretty))
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("matcher engine version %s\n", matcher.MatcherVersion)
}

// buildRequest assembles the job document from --file or the field flags.
func buildRequest() (*datatypes.MatchRequest, error) {
	if jobFile != "" {
		return loadRequestFile(jobFile)
	}

	var req datatypes.MatchRequest
	if cellType != "" || cellTypeList != nil {
		req.CellTypeRequested = &cellType
		req.CellTypeList = datatypes.StringList(cellTypeList)
	}
	if species != "" || speciesList != nil {
		req.SpeciesRequested = &species
		req.SpeciesList = datatypes.StringList(speciesList)
	}
	if molecule != "" || moleculeList != nil {
		req.BindingMoleculeRequested = &molecule
		req.BindingMoleculeList = datatypes.StringList(moleculeList)
	}
	return &req, nil
}

func loadRequestFile(path string) (*datatypes.MatchRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read job document: %w", err)
	}

	var req datatypes.MatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse job document: %w", err)
	}
	return &req, nil
}
