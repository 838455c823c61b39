// Copyright 2025-2026 肖其顿 (XIAO QI DUN)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/xiaoqidun/otxrd"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.xrd>",
	Short: "Print the records extracted from a data file as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := otxrd.Open(args[0])
		if err != nil {
			return err
		}
		kind := otxrd.MeasurementTypeSingle
		if _, ok := doc.(*otxrd.BatchScan); ok {
			kind = otxrd.MeasurementTypeMapping
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"measurement_type": kind,
			"document":         doc,
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
