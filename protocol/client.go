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

package protocol

import (
	"context"
	"fmt"

	"github.com/getamis/fedmpc/bits"
	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/b2a"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/errkind"
	"github.com/getamis/fedmpc/ring"
	"github.com/getamis/fedmpc/sqcorr"
	"github.com/getamis/fedmpc/transcript"
	"github.com/getamis/fedmpc/transport/mpcconn"
)

// ClientResult is one client's settled contribution after a full run of
// the phase driver: the B2A arithmetic share, the A2S square share, and
// whether each verification passed.
type ClientResult[W ring.Unsigned] struct {
	ClientID         uint64
	ArithmeticShare  ring.Ring[W]
	SquareShare      ring.Ring[W]
	OTVerified       bool
	SquareVerified   bool
	TranscriptDigest [32]byte
}

// RunSenderClient drives one client's phase-1 contribution on the side
// that plays OT sender (boolean-share-0 holder) and square-correlation
// Alice role for this client. x0Bits is this server's boolean share of
// the client's input, width w := ring.Width[W](). sqMain/sqSac are this
// server's Alice halves of the correlation under test and its
// sacrificial partner.
func RunSenderClient[W ring.Unsigned](ctx context.Context, peer *mpcconn.Pool, clientID uint64, x0Bits []uint8, senderHalf cot.SenderHalf, sqMain, sqSac sqcorr.Share[W]) (ClientResult[W], error) {
	w := ring.Width[W]()
	tc := transcript.New(fmt.Sprintf("client-%d-sender", clientID))
	if err := absorbBooleanShare(tc, x0Bits); err != nil {
		return ClientResult[W]{}, err
	}
	deltaBytes := senderHalf.Delta.Bytes()
	tc.Absorb(deltaBytes[:])

	localChi, localT, err := localSeeds(tc)
	if err != nil {
		return ClientResult[W]{}, err
	}
	sendID, recvID := directedIDs(clientID, msgSeeds, Sender)
	peerChi, peerT, err := exchangeSeeds(ctx, peer, sendID, recvID, localChi, localT)
	if err != nil {
		return ClientResult[W]{}, err
	}
	combinedChiSeed := combineChallenge(localChi, peerChi)
	combinedTSeed := combineChallenge(localT, peerT)

	total := w + cot.VerificationOverhead
	qs, err := senderHalf.QsSeed.Expand(total)
	if err != nil {
		return ClientResult[W]{}, err
	}
	chi, err := cot.DeriveChi(block.New(combinedChiSeed, 0), total)
	if err != nil {
		return ClientResult[W]{}, err
	}

	// Only the receiver-role party ever sends on this slot.
	challengeRecvID := receiverToSenderID(clientID, msgReceiverChallenge)
	challengePayload, err := recvOn(ctx, peer, challengeRecvID)
	if err != nil {
		return ClientResult[W]{}, err
	}
	challenge, err := decodeReceiverChallenge(challengePayload)
	if err != nil {
		return ClientResult[W]{}, err
	}
	otVerified, err := cot.SenderVerify(senderHalf.QsSeed, senderHalf.Delta, chi, challenge)
	if err != nil {
		return ClientResult[W]{}, err
	}
	tc.AbsorbBytes(challengePayload)

	b2aSeed := block.New(combinedChiSeed, combinedTSeed)
	z0, msg, err := b2a.SenderPhase[W](x0Bits, qs[:w], senderHalf.Delta, b2aSeed)
	if err != nil {
		return ClientResult[W]{}, err
	}
	msgSendID := senderToReceiverID(clientID, msgB2AMessage)
	if err := sendOn(ctx, peer, msgSendID, encodeUint64Slice(msg)); err != nil {
		return ClientResult[W]{}, err
	}

	d, err := exchangeRound[W](ctx, peer, clientID, msgSquareRound1, Sender, sqcorr.Round1Share(z0, sqMain.A))
	if err != nil {
		return ClientResult[W]{}, err
	}
	squareShare := sqcorr.Round2Alice(d, z0, sqMain.C)

	sqVerified, err := runSquareVerify[W](ctx, peer, clientID, Sender, combinedTSeed, sqMain, sqSac)
	if err != nil {
		return ClientResult[W]{}, err
	}

	digest := tc.Digest()
	return ClientResult[W]{
		ClientID:         clientID,
		ArithmeticShare:  z0,
		SquareShare:      squareShare,
		OTVerified:       otVerified,
		SquareVerified:   sqVerified,
		TranscriptDigest: digest,
	}, nil
}

// RunReceiverClient is the mirror of RunSenderClient for the side playing
// OT receiver and square-correlation Bob role for this client.
func RunReceiverClient[W ring.Unsigned](ctx context.Context, peer *mpcconn.Pool, clientID uint64, x1Bits []uint8, receiverHalf cot.ReceiverHalf, sqMain, sqSac sqcorr.Share[W]) (ClientResult[W], error) {
	w := ring.Width[W]()
	tc := transcript.New(fmt.Sprintf("client-%d-receiver", clientID))
	if err := absorbBooleanShare(tc, x1Bits); err != nil {
		return ClientResult[W]{}, err
	}

	localChi, localT, err := localSeeds(tc)
	if err != nil {
		return ClientResult[W]{}, err
	}
	sendID, recvID := directedIDs(clientID, msgSeeds, Receiver)
	peerChi, peerT, err := exchangeSeeds(ctx, peer, sendID, recvID, localChi, localT)
	if err != nil {
		return ClientResult[W]{}, err
	}
	combinedChiSeed := combineChallenge(localChi, peerChi)
	combinedTSeed := combineChallenge(localT, peerT)

	fullChoices, err := receiverHalf.FullChoices(x1Bits)
	if err != nil {
		return ClientResult[W]{}, err
	}
	total := len(receiverHalf.Ts)
	chi, err := cot.DeriveChi(block.New(combinedChiSeed, 0), total)
	if err != nil {
		return ClientResult[W]{}, err
	}
	challenge, err := cot.ReceiverVerify(receiverHalf.Ts, fullChoices, chi)
	if err != nil {
		return ClientResult[W]{}, err
	}
	challengeSendID := receiverToSenderID(clientID, msgReceiverChallenge)
	challengePayload := encodeReceiverChallenge(challenge)
	if err := sendOn(ctx, peer, challengeSendID, challengePayload); err != nil {
		return ClientResult[W]{}, err
	}
	tc.AbsorbBytes(challengePayload)

	b2aSeed := block.New(combinedChiSeed, combinedTSeed)
	msgRecvID := senderToReceiverID(clientID, msgB2AMessage)
	msgPayload, err := recvOn(ctx, peer, msgRecvID)
	if err != nil {
		return ClientResult[W]{}, err
	}
	msg, err := decodeUint64Slice(msgPayload, w)
	if err != nil {
		return ClientResult[W]{}, err
	}
	z1, err := b2a.ReceiverPhase[W](x1Bits, receiverHalf.Ts[:w], b2aSeed, msg)
	if err != nil {
		return ClientResult[W]{}, err
	}

	d, err := exchangeRound[W](ctx, peer, clientID, msgSquareRound1, Receiver, sqcorr.Round1Share(z1, sqMain.A))
	if err != nil {
		return ClientResult[W]{}, err
	}
	squareShare := sqcorr.Round2Bob(d, z1, sqMain.C)

	sqVerified, err := runSquareVerify[W](ctx, peer, clientID, Receiver, combinedTSeed, sqMain, sqSac)
	if err != nil {
		return ClientResult[W]{}, err
	}

	digest := tc.Digest()
	return ClientResult[W]{
		ClientID:         clientID,
		ArithmeticShare:  z1,
		SquareShare:      squareShare,
		OTVerified:       true, // receiver doesn't run SenderVerify itself
		SquareVerified:   sqVerified,
		TranscriptDigest: digest,
	}, nil
}

func absorbBooleanShare(tc *transcript.Context, shareBits []uint8) error {
	packed, err := bits.BitsToBytes(shareBits)
	if err != nil {
		return err
	}
	tc.Absorb(packed)
	return nil
}

func localSeeds(tc *transcript.Context) (chiSeed, tSeed uint64, err error) {
	digest := tc.Digest()
	return transcript.DeriveSeeds(digest[:])
}

func exchangeSeeds(ctx context.Context, peer *mpcconn.Pool, sendID, recvID uint64, chiSeed, tSeed uint64) (peerChi, peerT uint64, err error) {
	if err := sendOn(ctx, peer, sendID, encodeSeedPair(chiSeed, tSeed)); err != nil {
		return 0, 0, err
	}
	payload, err := recvOn(ctx, peer, recvID)
	if err != nil {
		return 0, 0, err
	}
	return decodeSeedPair(payload)
}

// runSquareVerify runs the two-round sacrifice check described in §4.8:
// round one opens d = t*a - a' (summed across parties), round two opens
// w = t^2 c - c' - 2td a (summed across parties); honest correlations
// yield w == 0.
func runSquareVerify[W ring.Unsigned](ctx context.Context, peer *mpcconn.Pool, clientID uint64, role Role, combinedTSeed uint64, main, sac sqcorr.Share[W]) (bool, error) {
	t := ring.FromUint64[W](combinedTSeed)
	dShare := sqcorr.VerifyPhase1Share(t, main.A, sac.A)
	d, err := exchangeRound[W](ctx, peer, clientID, msgSquareVerifyRound1, role, dShare)
	if err != nil {
		return false, err
	}

	var w ring.Ring[W]
	if role == Sender {
		w = sqcorr.VerifyPhase2Alice(t, d, main.A, main.C, sac.C)
	} else {
		w = sqcorr.VerifyPhase2Bob(t, d, main.A, main.C, sac.C)
	}
	wCombined, err := exchangeRound[W](ctx, peer, clientID, msgSquareVerifyRound2, role, w)
	if err != nil {
		return false, err
	}
	return wCombined.Uint64() == 0, nil
}

// exchangeRound sends this party's share for one additive-opening round
// and returns the sum with the peer's.
func exchangeRound[W ring.Unsigned](ctx context.Context, peer *mpcconn.Pool, clientID uint64, slot uint64, role Role, local ring.Ring[W]) (ring.Ring[W], error) {
	sendID, recvID := directedIDs(clientID, slot, role)
	if err := sendOn(ctx, peer, sendID, encodeUint64(local.Uint64())); err != nil {
		return ring.Ring[W]{}, err
	}
	payload, err := recvOn(ctx, peer, recvID)
	if err != nil {
		return ring.Ring[W]{}, err
	}
	peerRaw, err := decodeUint64(payload)
	if err != nil {
		return ring.Ring[W]{}, err
	}
	return local.Add(ring.FromUint64[W](peerRaw)), nil
}

func sendOn(ctx context.Context, peer *mpcconn.Pool, id uint64, payload []byte) error {
	select {
	case err := <-peer.Send(id, payload):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recvOn(ctx context.Context, peer *mpcconn.Pool, id uint64) ([]byte, error) {
	sub, err := peer.Subscribe(id)
	if err != nil {
		return nil, err
	}
	select {
	case payload, ok := <-sub:
		if !ok {
			return nil, errkind.WrapIO(mpcconn.ErrClosed)
		}
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
