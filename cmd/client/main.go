// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command client simulates a cohort of federated clients: each one
// splits a private input into boolean shares, deals the correlated
// randomness the two servers' phase driver needs, and registers with
// both servers over the bridge transport.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cmd = &cobra.Command{
	Use:   "fedmpc-client",
	Short: "Simulates a cohort of federated clients against a pair of servers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: run,
}

func init() {
	flags := cmd.Flags()
	flags.String("server-alice", "", "alice server client-listener address")
	flags.String("server-bob", "", "bob server client-listener address")
	flags.IntP("num-clients", "n", 1, "number of simulated clients to run")
	flags.IntP("gsize", "g", 1, "number of clients per aggregation group")
	flags.IntP("input-size", "i", 32, "client input width in bits (8 or 32)")
	flags.BoolP("verbose", "v", false, "enable verbose logging")

	cmd.MarkFlagRequired("server-alice")
	cmd.MarkFlagRequired("server-bob")
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
