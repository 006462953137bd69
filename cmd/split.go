// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scfs-dev/scfs/cfg"
)

var splitViper = viper.New()

var splitCmd = &cobra.Command{
	Use:   "split <mirror-dir> <mount-point>",
	Short: "Present mirror-dir as a virtual directory of fixed-size chunks at mount-point",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := resolveConfig(splitViper, cfg.ModeSplit, args[0], args[1])
		if err != nil {
			return err
		}
		return runMount(c)
	},
}

func init() {
	if err := cfg.BindFlags(splitViper, splitCmd.Flags()); err != nil {
		panic(fmt.Sprintf("binding split flags: %v", err))
	}
}
