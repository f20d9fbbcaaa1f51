// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
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

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration after merging the config file, environment
variables and flags. The output can be saved as config.toml.`,
	Run: func(_ *cobra.Command, _ []string) {
		if used := viper.ConfigFileUsed(); used != "" {
			log.Info().Str("ConfigFile", used).Msg("loaded configuration")
		}

		out, err := toml.Marshal(viper.AllSettings())
		if err != nil {
			log.Fatal().Err(err).Msg("could not encode configuration")
		}
		fmt.Print(string(out))
	},
}
