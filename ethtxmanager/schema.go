package ethtxmanager

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// sentAfter == number of the latest block before sending the tx
	monitoredTxTable = `CREATE TABLE IF NOT EXISTS monitoredTx (
		txHash CHAR(64) PRIMARY KEY NOT NULL,
		paymentId INTEGER NOT NULL,
		sentAfter INTEGER NOT NULL,
		status VARCHAR(10) NOT NULL,
		CONSTRAINT chk_txHash CHECK (txHash != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_status CHECK (status IN ('pending', 'success', 'reverted', 'timeout'))
	);`

	monitoredTxPaymentIndex = `CREATE INDEX IF NOT EXISTS idx_monitoredTx_paymentId ON monitoredTx (paymentId);`
)
