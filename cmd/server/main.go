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

// Command server runs one side (Alice or Bob) of the two-server
// federated aggregation described in §6: it accepts client registrations,
// establishes the server-to-server MPC socket pool, and drives each
// client's phase through the protocol package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cmd = &cobra.Command{
	Use:   "fedmpc-server",
	Short: "Runs one side of the two-server federated aggregation",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: run,
}

func init() {
	flags := cmd.Flags()
	flags.Uint16P("port", "p", 9000, "port to accept client connections on")
	flags.IntP("num-clients", "n", 0, "number of clients to accept before starting")
	flags.IntP("gsize", "g", 0, "number of clients per aggregation group")
	flags.BoolP("bob", "b", false, "run as the Bob side (default Alice)")
	flags.StringP("mpc_addr", "m", "", "Alice: address to bind for the MPC socket pool; Bob: address to dial")
	flags.IntP("num_mpc_sockets", "s", 16, "number of sockets in the server-to-server MPC pool")
	flags.IntP("input_size", "i", 32, "client input width in bits (8 or 32)")
	flags.BoolP("verbose", "v", false, "enable verbose logging")

	cmd.MarkFlagRequired("num-clients")
	cmd.MarkFlagRequired("gsize")
	cmd.MarkFlagRequired("mpc_addr")
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
