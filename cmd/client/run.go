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

package main

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/logger"
	"github.com/getamis/fedmpc/protocol"
	"github.com/getamis/fedmpc/ring"
	"github.com/getamis/fedmpc/sqcorr"
	"github.com/getamis/fedmpc/transport/bridge"
	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const setupMessageID = 1

type config struct {
	serverAlice string
	serverBob   string
	numClients  int
	gsize       int
	inputSize   int
	verbose     bool
}

func loadConfig() config {
	return config{
		serverAlice: viper.GetString("server-alice"),
		serverBob:   viper.GetString("server-bob"),
		numClients:  viper.GetInt("num-clients"),
		gsize:       viper.GetInt("gsize"),
		inputSize:   viper.GetInt("input-size"),
		verbose:     viper.GetBool("verbose"),
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.gsize <= 0 || cfg.gsize > cfg.numClients {
		return fmt.Errorf("gsize must be in (0, num-clients]")
	}
	if cfg.verbose {
		logger.SetLogger(log.New("self", "client-cohort"))
	}
	l := logger.Logger()

	ctx := cmd.Context()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.numClients; i++ {
		clientID := uint64(i)
		g.Go(func() error {
			switch cfg.inputSize {
			case 8:
				return runOneClient[uint8](gctx, cfg, clientID)
			case 32:
				return runOneClient[uint32](gctx, cfg, clientID)
			default:
				return fmt.Errorf("input-size must be 8 or 32, got %d", cfg.inputSize)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	l.Info("cohort finished", "clients", cfg.numClients)
	return nil
}

// runOneClient generates one client's private input, splits it into
// boolean shares, deals the COT and square correlations the servers'
// phase driver needs, and hands each server its half.
func runOneClient[W ring.Unsigned](ctx context.Context, cfg config, clientID uint64) error {
	w := ring.Width[W]()

	x, err := ring.Random[W](rand.Reader)
	if err != nil {
		return err
	}
	xBits := bitsOf(x.Uint64(), w)

	seed, x1Bits, err := cot.SplitBooleanShare(xBits, rand.Reader)
	if err != nil {
		return err
	}
	x0Bits, err := seed.Expand(w)
	if err != nil {
		return err
	}

	var deltaBuf [16]byte
	if _, err := rand.Read(deltaBuf[:]); err != nil {
		return err
	}
	delta, err := block.FromBytes(deltaBuf[:])
	if err != nil {
		return err
	}
	senderHalf, receiverHalf, _, err := cot.Sample(x1Bits, delta, cot.VerificationOverhead)
	if err != nil {
		return err
	}

	aliceMain, bobMain, err := sqcorr.Generate[W](rand.Reader)
	if err != nil {
		return err
	}
	aliceSac, bobSac, err := sqcorr.Generate[W](rand.Reader)
	if err != nil {
		return err
	}

	selfID := fmt.Sprintf("client-%d", clientID)
	aliceConn, err := bridge.Dial(ctx, selfID, cfg.serverAlice, clientID)
	if err != nil {
		return fmt.Errorf("dialing alice: %w", err)
	}
	defer aliceConn.Close()
	bobConn, err := bridge.Dial(ctx, selfID, cfg.serverBob, clientID)
	if err != nil {
		return fmt.Errorf("dialing bob: %w", err)
	}
	defer bobConn.Close()

	senderPayload, err := protocol.EncodeSenderSetup(protocol.SenderSetup[W]{
		X0Bits: x0Bits,
		Half:   senderHalf,
		Main:   aliceMain,
		Sac:    aliceSac,
	})
	if err != nil {
		return err
	}
	receiverPayload, err := protocol.EncodeReceiverSetup(protocol.ReceiverSetup[W]{
		X1Bits: x1Bits,
		Half:   receiverHalf,
		Main:   bobMain,
		Sac:    bobSac,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-aliceConn.SendMessage(setupMessageID, senderPayload):
			return err
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	g.Go(func() error {
		select {
		case err := <-bobConn.SendMessage(setupMessageID, receiverPayload):
			return err
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	return g.Wait()
}

func bitsOf(v uint64, w int) []uint8 {
	out := make([]uint8, w)
	for i := 0; i < w; i++ {
		out[i] = uint8(v>>uint(i)) & 1
	}
	return out
}
