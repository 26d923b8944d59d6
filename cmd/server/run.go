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
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/getamis/fedmpc/clientspool"
	"github.com/getamis/fedmpc/logger"
	"github.com/getamis/fedmpc/protocol"
	"github.com/getamis/fedmpc/ring"
	"github.com/getamis/fedmpc/summary"
	"github.com/getamis/fedmpc/transport/bridge"
	"github.com/getamis/fedmpc/transport/mpcconn"
	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// setupMessageID is the reserved bridge message id a client uses, right
// after registration, to hand this server its half of the per-client
// cryptographic material (protocol.SenderSetup/ReceiverSetup).
const setupMessageID = 1

// config mirrors §6's server flag surface.
type config struct {
	port          uint16
	numClients    int
	gsize         int
	bob           bool
	mpcAddr       string
	numMPCSockets int
	inputSize     int
	verbose       bool
}

func loadConfig() config {
	return config{
		port:          uint16(viper.GetUint("port")),
		numClients:    viper.GetInt("num-clients"),
		gsize:         viper.GetInt("gsize"),
		bob:           viper.GetBool("bob"),
		mpcAddr:       viper.GetString("mpc_addr"),
		numMPCSockets: viper.GetInt("num_mpc_sockets"),
		inputSize:     viper.GetInt("input_size"),
		verbose:       viper.GetBool("verbose"),
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.gsize <= 0 || cfg.gsize > cfg.numClients {
		return fmt.Errorf("gsize must be in (0, num-clients]")
	}

	self := "alice"
	party := protocol.Alice
	if cfg.bob {
		self = "bob"
		party = protocol.Bob
	}
	if cfg.verbose {
		logger.SetLogger(log.New("self", self))
	}
	l := logger.Logger()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rec := summary.New()

	var peer *mpcconn.Pool
	err := rec.TimePhase("mpc_handshake", func() error {
		var err error
		if party == protocol.Alice {
			peer, err = mpcconn.AcceptN(ctx, self, cfg.mpcAddr, cfg.numMPCSockets)
		} else {
			peer, err = mpcconn.DialN(ctx, self, cfg.mpcAddr, cfg.numMPCSockets)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("establishing MPC socket pool: %w", err)
	}
	defer peer.Close()
	l.Info("mpc pool ready", "peer", peer.PeerAddr(), "sockets", peer.NumSockets())

	ln, err := bridge.Listen(fmt.Sprintf(":%d", cfg.port))
	if err != nil {
		return err
	}
	defer ln.Close()

	pool := clientspool.New(self)
	err = rec.TimePhase("client_registration", func() error {
		return acceptClients(ctx, self, ln, pool, cfg.numClients)
	})
	if err != nil {
		return err
	}
	l.Info("clients registered", "count", pool.Len())

	switch cfg.inputSize {
	case 8:
		err = runClients[uint8](ctx, l, rec, peer, pool, party)
	case 32:
		err = runClients[uint32](ctx, l, rec, peer, pool, party)
	default:
		return fmt.Errorf("input_size must be 8 or 32, got %d", cfg.inputSize)
	}
	if err != nil {
		return err
	}

	clientSent, clientRecv := pool.BytesTotals()
	rec.AddBytesSent(peer.BytesSent() + clientSent)
	rec.AddBytesRecv(peer.BytesRecv() + clientRecv)

	return rec.WriteCSV(os.Stdout)
}

// acceptClients accepts exactly n client registrations off ln, adding
// each to pool as it completes. Clients may connect out of order; each
// accept runs on its own goroutine so a slow client can't stall the rest.
func acceptClients(ctx context.Context, self string, ln net.Listener, pool *clientspool.Pool, n int) error {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		g.Go(func() error {
			conn, clientID, err := bridge.Accept(gctx, self, ln)
			if err != nil {
				return err
			}
			mu.Lock()
			pool.Add(clientID, conn)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// runClients assigns each registered client a role by id parity (§4.12's
// load-balancing split: roughly half this server's clients play OT
// sender, half OT receiver, so that cost doesn't always fall on the same
// server), gathers every client's setup payload in one round, and drives
// every client's phase concurrently over the shared MPC socket pool.
func runClients[W ring.Unsigned](ctx context.Context, l log.Logger, rec *summary.Recorder, peer *mpcconn.Pool, pool *clientspool.Pool, party protocol.Party) error {
	payloads, err := pool.Gather(ctx, setupMessageID)
	if err != nil {
		return fmt.Errorf("gathering client setup payloads: %w", err)
	}
	byClient := make(map[uint64][]byte, len(payloads))
	for _, p := range payloads {
		byClient[p.ClientID] = p.Payload
	}

	even, odd := pool.SplitByParity()
	evenRole, oddRole := protocol.Sender, protocol.Receiver
	if party == protocol.Bob {
		evenRole, oddRole = protocol.Receiver, protocol.Sender
	}

	var mu sync.Mutex
	verified, total := 0, 0
	record := func(ok bool) {
		mu.Lock()
		defer mu.Unlock()
		total++
		if ok {
			verified++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	dispatch := func(sub *clientspool.Pool, role protocol.Role) {
		for _, clientID := range sub.ClientIDs() {
			clientID, payload := clientID, byClient[clientID]
			g.Go(func() error {
				var ok bool
				err := rec.TimePhase("client_phase", func() error {
					var runErr error
					ok, runErr = runOneClient[W](gctx, peer, clientID, role, payload)
					return runErr
				})
				if err != nil {
					l.Error("client phase failed", "client", clientID, "err", err)
					return err
				}
				record(ok)
				return nil
			})
		}
	}
	dispatch(even, evenRole)
	dispatch(odd, oddRole)

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info(fmt.Sprintf("[client_phase] %d/%d successful", verified, total))
	return nil
}

// runOneClient decodes one client's setup payload and drives its phase
// over the MPC pool, returning whether its verifications passed.
func runOneClient[W ring.Unsigned](ctx context.Context, peer *mpcconn.Pool, clientID uint64, role protocol.Role, payload []byte) (bool, error) {
	if role == protocol.Sender {
		setup, err := protocol.DecodeSenderSetup[W](payload)
		if err != nil {
			return false, err
		}
		res, err := protocol.RunSenderClient[W](ctx, peer, clientID, setup.X0Bits, setup.Half, setup.Main, setup.Sac)
		if err != nil {
			return false, err
		}
		return res.OTVerified && res.SquareVerified, nil
	}
	setup, err := protocol.DecodeReceiverSetup[W](payload)
	if err != nil {
		return false, err
	}
	res, err := protocol.RunReceiverClient[W](ctx, peer, clientID, setup.X1Bits, setup.Half, setup.Main, setup.Sac)
	if err != nil {
		return false, err
	}
	return res.OTVerified && res.SquareVerified, nil
}
