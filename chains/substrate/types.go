// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

const (
	/// Listener
	PollingOutbox             string = "Polling outbox..."
	RelayedMessage            string = "Relayed message"
	FailedToRouteMessage      string = "Failed to route message"
	FailedToReadOutbox        string = "Failed to read outbox"
	FailedToWriteToBlockStore string = "Failed to write to blockStore"
	ListenerStopped           string = "Listener stopped"
	/// Writer
	NotMine                 string = "Not mine"
	UnsupportedTransferType string = "Unsupported transfer type"
	InvalidFungiblePayload  string = "Invalid fungible payload"
	MeetARepeatTx           string = "Meet a repeat transaction"
	ExecuteTransferFailed   string = "Execute transfer from bridge failed"
	FinishATransfer         string = "Finish a transfer from bridge"
	AmountSaturated         string = "Amount exceeds local balance range, saturated"
	/// Genesis
	GenesisApplied string = "Genesis applied"
	GenesisSkipped string = "Genesis already applied"
)
