// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command matcherctl is a small client for the matcher daemon. It frames
// a single job document over TCP and prints the response.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	daemonAddr   string
	jobFile      string
	dialTimeout  int
	cellType     string
	cellTypeList []string
	species      string
	speciesList  []string
	molecule     string
	moleculeList []string

	rootCmd = &cobra.Command{
		Use:   "matcherctl",
		Short: "A cli to submit label matching jobs to a running matcherd",
	}

	matchCmd = &cobra.Command{
		Use:   "match",
		Short: "Submit one job document and print the matched labels",
		Run:   runMatch, // Defined in cmd_match.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the matching engine version",
		Run:   runVersion, // Defined in cmd_match.go
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", "127.0.0.1:5000", "matcherd address")
	rootCmd.PersistentFlags().IntVar(&dialTimeout, "timeout", 600, "overall job timeout in seconds")

	matchCmd.Flags().StringVarP(&jobFile, "file", "f", "", "job document JSON file (- for stdin); overrides the field flags")
	matchCmd.Flags().StringVar(&cellType, "cell-type", "", "requested cell type label")
	matchCmd.Flags().StringSliceVar(&cellTypeList, "cell-type-list", nil, "candidate cell type labels")
	matchCmd.Flags().StringVar(&species, "species", "", "requested species label")
	matchCmd.Flags().StringSliceVar(&speciesList, "species-list", nil, "candidate species labels")
	matchCmd.Flags().StringVar(&molecule, "binding-molecule", "", "requested binding molecule label")
	matchCmd.Flags().StringSliceVar(&moleculeList, "binding-molecule-list", nil, "candidate binding molecule labels")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(versionCmd)
}
