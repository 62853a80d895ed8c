package ethtxmanager

import (
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/Giveth/vaultcontract/common"
)

type MonitoredTxStatus string

const (
	Pending  MonitoredTxStatus = "pending"
	Success  MonitoredTxStatus = "success"
	Reverted MonitoredTxStatus = "reverted"
	Timeout  MonitoredTxStatus = "timeout"
)

// MonitoredTx is a collect transaction sent by the keeper.
type MonitoredTx struct {
	TxHash    ethcommon.Hash
	PaymentID uint64
	SentAfter uint64 // latest block number before sending the tx
	Status    MonitoredTxStatus
}

// Settled reports whether the tx stops the payment from being collected
// again.
func (mt *MonitoredTx) Settled() bool {
	return mt.Status == Pending || mt.Status == Success
}

type sqlMonitoredTx struct {
	TxHash    string
	PaymentID int64
	SentAfter int64
	Status    string
}

func (s *sqlMonitoredTx) encode(mt *MonitoredTx) *sqlMonitoredTx {
	s.TxHash = common.ByteSliceToPureHexStr(mt.TxHash[:])
	s.PaymentID = int64(mt.PaymentID)
	s.SentAfter = int64(mt.SentAfter)
	s.Status = string(mt.Status)
	return s
}

func (s *sqlMonitoredTx) decode() *MonitoredTx {
	return &MonitoredTx{
		TxHash:    ethcommon.HexToHash(s.TxHash),
		PaymentID: uint64(s.PaymentID),
		SentAfter: uint64(s.SentAfter),
		Status:    MonitoredTxStatus(s.Status),
	}
}
