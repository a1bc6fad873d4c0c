// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"math/big"
	"sync"

	"github.com/ChainSafe/chainbridge-utils/core"
	metrics "github.com/ChainSafe/chainbridge-utils/metrics/types"
	"github.com/ChainSafe/chainbridge-utils/msg"
	"github.com/ChainSafe/log15"
	"github.com/chainx-org/AssetHandler/chainbridge"
	"github.com/chainx-org/AssetHandler/handler"
	"github.com/chainx-org/AssetHandler/origin"
	utils "github.com/chainx-org/AssetHandler/shared/substrate"
)

var _ core.Writer = &writer{}

type writer struct {
	chainId msg.ChainId
	bridge  *chainbridge.Bridge
	handler *handler.Handler
	log     log15.Logger
	metrics *metrics.ChainMetrics
	lock    sync.Mutex
}

func NewWriter(id msg.ChainId, bridge *chainbridge.Bridge, h *handler.Handler, log log15.Logger, m *metrics.ChainMetrics) *writer {
	return &writer{
		chainId: id,
		bridge:  bridge,
		handler: h,
		log:     log,
		metrics: m,
	}
}

// ResolveMessage applies an inbound fungible transfer. It returns true once the transfer is executed,
// including when it had already been executed before.
func (w *writer) ResolveMessage(m msg.Message) bool {
	if m.Destination != w.chainId {
		w.log.Info(NotMine, "msg.DestId", m.Destination, "chainId", w.chainId)
		return false
	}
	if m.Type != msg.FungibleTransfer {
		w.log.Error(UnsupportedTransferType, "type", m.Type, "nonce", m.DepositNonce)
		return false
	}
	amount, to, ok := decodeFungiblePayload(m)
	if !ok {
		w.log.Error(InvalidFungiblePayload, "src", m.Source, "nonce", m.DepositNonce)
		return false
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	value := chainbridge.FromWireBig(amount)
	if !amount.IsUint64() {
		w.log.Warn(AmountSaturated, "amount", amount, "applied", value)
	}

	applied, err := w.handler.TransferFromBridgeOnce(origin.NewSigned(w.bridge.AccountId()), m.Source, m.DepositNonce, to, value, m.ResourceId)
	if err != nil {
		w.log.Error(ExecuteTransferFailed, "src", m.Source, "nonce", m.DepositNonce, "rId", m.ResourceId.Hex(), "err", err)
		return false
	}
	if !applied {
		w.log.Info(MeetARepeatTx, "src", m.Source, "nonce", m.DepositNonce)
		return true
	}

	if w.metrics != nil {
		w.metrics.VotesSubmitted.Inc()
	}
	w.log.Info(FinishATransfer, "src", m.Source, "nonce", m.DepositNonce, "to", to, "amount", value)
	return true
}

// decodeFungiblePayload reads [amount bytes, recipient] out of a fungible transfer.
// The recipient must be a local account id.
func decodeFungiblePayload(m msg.Message) (*big.Int, utils.AccountId, bool) {
	if len(m.Payload) != 2 {
		return nil, utils.AccountId{}, false
	}
	amountBytes, ok := m.Payload[0].([]byte)
	if !ok {
		return nil, utils.AccountId{}, false
	}
	recipient, ok := m.Payload[1].([]byte)
	if !ok || len(recipient) != utils.AccountIdLen {
		return nil, utils.AccountId{}, false
	}
	return new(big.Int).SetBytes(amountBytes), utils.NewAccountId(recipient), true
}
